package encoding

import (
	"fmt"
	"strings"

	"github.com/shodh-ai/cortex/engine/perception"
)

// Keyword tables for the interaction classifiers. Plain data-driven pure
// functions; none of this runs on the request's critical path.

var (
	decisionUserPhrases     = []string{"should i", "which one", "decide", "choose between"}
	decisionResponsePhrases = []string{"i recommend", "i suggest", "the better option"}

	learningUserPhrases     = []string{"how do", "what is", "explain", "learn", "understand"}
	learningResponsePhrases = []string{"this means", "in other words", "the concept"}

	errorUserPhrases     = []string{"error", "bug", "fix", "wrong", "doesn't work", "broken"}
	errorResponsePhrases = []string{"the issue", "the problem", "the fix"}

	taskTools      = []string{"Edit", "Write", "Bash"}
	discoveryTools = []string{"Read", "Glob", "Grep"}
)

func containsAny(haystack string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(haystack, phrase) {
			return true
		}
	}
	return false
}

// DetermineMemoryType labels an interaction by its content.
func DetermineMemoryType(userMessage, response string, toolUses []string) string {
	userLower := strings.ToLower(userMessage)
	responseLower := strings.ToLower(response)

	if containsAny(userLower, decisionUserPhrases) || containsAny(responseLower, decisionResponsePhrases) {
		return "Decision"
	}
	if containsAny(userLower, learningUserPhrases) || containsAny(responseLower, learningResponsePhrases) {
		return "Learning"
	}
	if containsAny(userLower, errorUserPhrases) || containsAny(responseLower, errorResponsePhrases) {
		return "Error"
	}
	for _, tool := range toolUses {
		for _, t := range taskTools {
			if tool == t {
				return "Task"
			}
		}
		for _, t := range discoveryTools {
			if tool == t {
				return "Discovery"
			}
		}
	}
	return "Conversation"
}

// GenerateTags builds the tag set attached to a stored interaction.
func GenerateTags(fc *perception.FullContext, toolUses []string) []string {
	tags := []string{"model:" + fc.Model}
	if fc.AgentID != "" {
		tags = append(tags, "agent:"+fc.AgentID)
	}
	if fc.ParentAgentID != "" {
		tags = append(tags, "parent_agent:"+fc.ParentAgentID)
	}
	if fc.RunID != "" {
		tags = append(tags, "run:"+fc.RunID)
	}
	seen := make(map[string]struct{}, len(toolUses))
	for _, tool := range toolUses {
		if _, ok := seen[tool]; ok {
			continue
		}
		seen[tool] = struct{}{}
		tags = append(tags, "tool:"+tool)
	}
	// Marks memories the proxy encoded automatically.
	tags = append(tags, "source:cortex")
	return tags
}

var (
	strongPositive = []string{
		"thanks", "thank you", "perfect", "excellent", "exactly what i needed",
		"that works", "awesome", "great job",
	}
	moderatePositive = []string{
		"works", "success", "done", "fixed", "solved", "helpful", "good", "nice",
	}
	strongNegative = []string{
		"completely wrong", "terrible", "hate", "worst", "useless", "frustrated",
	}
	moderateNegative = []string{
		"error", "bug", "wrong", "fail", "broken", "issue", "problem", "confus", "stuck", "crash",
	}
	completionPhrases = []string{"completed", "done", "created", "updated"}
)

// EstimateValence scores the emotional valence of an interaction in [-1, 1].
// Returns nil when the combined signal is too weak to be meaningful.
// An error-then-fixed exchange scores net positive: resolution outweighs
// the problem that prompted it.
func EstimateValence(userMessage, response string, toolUses []string) *float64 {
	userLower := strings.ToLower(userMessage)
	responseLower := strings.ToLower(response)

	var positive, negative float64

	for _, phrase := range strongPositive {
		if strings.Contains(userLower, phrase) {
			positive += 2.0
		}
	}
	for _, phrase := range strongNegative {
		if strings.Contains(userLower, phrase) {
			negative += 2.0
		}
	}

	combined := userLower + " " + responseLower
	for _, phrase := range moderatePositive {
		if strings.Contains(combined, phrase) {
			positive += 1.0
		}
	}
	for _, phrase := range moderateNegative {
		if strings.Contains(combined, phrase) {
			negative += 1.0
		}
	}

	if len(toolUses) > 0 && containsAny(responseLower, completionPhrases) {
		positive += 1.0
	}

	if (strings.Contains(userLower, "error") || strings.Contains(userLower, "bug")) &&
		(strings.Contains(responseLower, "fixed") || strings.Contains(responseLower, "the issue was")) {
		positive += 1.5
	}

	total := positive + negative
	if total < 1.0 {
		return nil
	}
	valence := (positive - negative) / total
	if valence > 1.0 {
		valence = 1.0
	} else if valence < -1.0 {
		valence = -1.0
	}
	return &valence
}

// FormatInteraction renders an exchange for storage.
func FormatInteraction(userMessage, response string, toolUses []string) string {
	var parts []string

	parts = append(parts, "User: "+perception.SmartTruncate(userMessage, 500))

	if len(toolUses) > 0 {
		summary := strings.Join(toolUses, ", ")
		if len(toolUses) > 3 {
			summary = fmt.Sprintf("%s, ... (+%d more)", strings.Join(toolUses[:3], ", "), len(toolUses)-3)
		}
		parts = append(parts, "Tools: "+summary)
	}

	parts = append(parts, "Assistant: "+perception.SmartTruncate(response, responsePreviewChars))

	return strings.Join(parts, "\n")
}
