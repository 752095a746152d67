// Package feedback infers whether a previous response helped the user and
// reinforces the memories that informed it. The inference is lexical: the
// user's next message is the only evidence available.
package feedback

import (
	"context"
	"strings"
	"unicode"

	"github.com/shodh-ai/cortex/engine/brain"
	"github.com/shodh-ai/cortex/engine/perception"
	"github.com/shodh-ai/cortex/engine/session"
	"github.com/shodh-ai/cortex/pkg/logger"
)

// Outcome labels how a prior response landed.
type Outcome string

const (
	OutcomeHelpful    Outcome = "helpful"
	OutcomeMisleading Outcome = "misleading"
	OutcomeNeutral    Outcome = "neutral"
)

// DetectOutcome infers the outcome of the previous exchange from the user's
// followup message. Explicit lexical signals win; otherwise a topic change
// reads as neutral and a repeated request as misleading.
func DetectOutcome(userMessage string, sess *session.Session) Outcome {
	switch perception.DetectFollowupSignal(userMessage) {
	case perception.SignalPositive, perception.SignalContinuation:
		return OutcomeHelpful
	case perception.SignalNegative, perception.SignalCorrection:
		return OutcomeMisleading
	}

	if isTopicChange(userMessage, sess) {
		// Abandonment is ambiguous; don't punish the memories for it.
		return OutcomeNeutral
	}
	if isRepetition(userMessage, sess) {
		return OutcomeMisleading
	}
	return OutcomeNeutral
}

func distinctWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if len(w) > 3 {
			words[w] = struct{}{}
		}
	}
	return words
}

// isTopicChange reports whether the followup shares almost no vocabulary
// with the previous request. Less than 10% overlap of distinct words longer
// than three characters counts as a change.
func isTopicChange(userMessage string, sess *session.Session) bool {
	if sess.LastUserMessage == "" {
		return false
	}
	last := distinctWords(sess.LastUserMessage)
	current := distinctWords(userMessage)
	if len(last) == 0 || len(current) == 0 {
		return false
	}

	overlap := 0
	for w := range current {
		if _, ok := last[w]; ok {
			overlap++
		}
	}
	maxSize := len(last)
	if len(current) > maxSize {
		maxSize = len(current)
	}
	return float64(overlap)/float64(maxSize) < 0.1
}

func normalizeMessage(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isRepetition reports whether the user is asking the same thing again.
func isRepetition(userMessage string, sess *session.Session) bool {
	if sess.LastUserMessage == "" {
		return false
	}
	if normalizeMessage(userMessage) == normalizeMessage(sess.LastUserMessage) {
		return true
	}
	lower := strings.ToLower(userMessage)
	return strings.Contains(lower, "again") ||
		strings.Contains(lower, "retry") ||
		strings.Contains(lower, "one more time")
}

// Reinforce sends the outcome signal for a set of memories. Empty ID sets
// and neutral outcomes are skipped without touching the network; neutral
// carries no learning signal.
func Reinforce(ctx context.Context, client *brain.Client, userID string, memoryIDs []string, outcome Outcome) error {
	log := logger.FromContext(ctx)

	if len(memoryIDs) == 0 {
		return nil
	}
	if outcome == OutcomeNeutral {
		log.Debug("skipping reinforcement for neutral outcome", "user_id", userID)
		return nil
	}

	resp, err := client.Reinforce(ctx, &brain.ReinforceRequest{
		UserID:  userID,
		IDs:     memoryIDs,
		Outcome: string(outcome),
	})
	if err != nil {
		return err
	}
	log.Info("reinforced memories",
		"user_id", userID,
		"outcome", outcome,
		"memories_processed", resp.MemoriesProcessed,
	)
	return nil
}

// ProcessFeedback evaluates the previous interaction at the start of a new
// one. Returns the detected outcome and whether feedback was processed at
// all; it is skipped when the previous turn surfaced no memories.
func ProcessFeedback(
	ctx context.Context,
	client *brain.Client,
	userID string,
	userMessage string,
	sess *session.Session,
) (Outcome, bool) {
	if len(sess.LastMemoryIDs) == 0 {
		return OutcomeNeutral, false
	}

	outcome := DetectOutcome(userMessage, sess)
	if err := Reinforce(ctx, client, userID, sess.LastMemoryIDs, outcome); err != nil {
		logger.FromContext(ctx).Warn("failed to reinforce memories",
			"user_id", userID,
			"outcome", outcome,
			"error", err,
		)
	}
	return outcome, true
}
