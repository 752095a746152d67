package perception

import "strings"

// FollowupSignal is the lexical signal detected in a user's followup message.
type FollowupSignal int

const (
	// SignalNone means no lexical signal was found.
	SignalNone FollowupSignal = iota
	// SignalPositive means the user expressed satisfaction.
	SignalPositive
	// SignalNegative means the user indicated something was wrong.
	SignalNegative
	// SignalCorrection means the user is supplying the right answer.
	SignalCorrection
	// SignalContinuation means the task continues normally.
	SignalContinuation
)

var (
	positivePhrases = []string{
		"thanks", "thank you", "perfect", "great", "awesome", "that works", "exactly",
	}
	negativePhrases = []string{
		"no,", "wrong", "that's not", "incorrect", "don't", "stop", "try again", "not what i",
	}
	correctionPhrases = []string{
		"actually,", "i meant", "instead,", "should be",
	}
	continuationPhrases = []string{
		"now ", "next,", "also,", "and then", "continue",
	}
)

// DetectFollowupSignal classifies a user message by its lexical content.
// Pure keyword matching, first match in priority order wins.
func DetectFollowupSignal(userMessage string) FollowupSignal {
	lower := strings.ToLower(userMessage)

	for _, phrase := range positivePhrases {
		if strings.Contains(lower, phrase) {
			return SignalPositive
		}
	}
	if strings.HasPrefix(lower, "no ") {
		return SignalNegative
	}
	for _, phrase := range negativePhrases {
		if strings.Contains(lower, phrase) {
			return SignalNegative
		}
	}
	for _, phrase := range correctionPhrases {
		if strings.Contains(lower, phrase) {
			return SignalCorrection
		}
	}
	for _, phrase := range continuationPhrases {
		if strings.Contains(lower, phrase) {
			return SignalContinuation
		}
	}
	return SignalNone
}
