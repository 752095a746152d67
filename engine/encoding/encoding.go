// Package encoding stores completed interactions as memories. It runs in the
// background after the upstream response has been delivered and never blocks
// or fails the request path.
package encoding

import (
	"context"

	"github.com/shodh-ai/cortex/engine/brain"
	"github.com/shodh-ai/cortex/engine/perception"
	"github.com/shodh-ai/cortex/pkg/logger"
)

const responsePreviewChars = 2000

// EncodeInteraction classifies a completed exchange and sends it to the
// memory service. Empty exchanges (no response text, no tool calls) are
// skipped. Returns the stored memory ID, or "" when skipped.
func EncodeInteraction(
	ctx context.Context,
	client *brain.Client,
	fc *perception.FullContext,
	responseText string,
	toolUses []string,
) (string, error) {
	log := logger.FromContext(ctx)

	if responseText == "" && len(toolUses) == 0 {
		log.Debug("skipping encode: empty interaction", "user_id", fc.UserID)
		return "", nil
	}

	userMessage := fc.LastUserMessage()
	content := FormatInteraction(userMessage, responseText, toolUses)

	req := &brain.RememberRequest{
		UserID:           fc.UserID,
		Content:          content,
		MemoryType:       DetermineMemoryType(userMessage, responseText, toolUses),
		Tags:             GenerateTags(fc, toolUses),
		EmotionalValence: EstimateValence(userMessage, responseText, toolUses),
		AgentID:          fc.AgentID,
		ParentAgentID:    fc.ParentAgentID,
		RunID:            fc.RunID,
	}

	resp, err := client.Remember(ctx, req)
	if err != nil {
		return "", err
	}

	log.Debug("encoded interaction",
		"user_id", fc.UserID,
		"memory_id", resp.ID,
		"memory_type", req.MemoryType,
		"tags", len(req.Tags),
	)
	return resp.ID, nil
}
