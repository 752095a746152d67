// Package activation retrieves relevant memories from the memory service
// for the current exchange.
package activation

import (
	"context"

	"github.com/shodh-ai/cortex/engine/brain"
	"github.com/shodh-ai/cortex/engine/perception"
	"github.com/shodh-ai/cortex/engine/session"
	"github.com/shodh-ai/cortex/pkg/logger"
)

// Result holds the memories surfaced for one request. It lives for the
// request plus the background tasks it spawns.
type Result struct {
	// Memories that were surfaced, in rank order.
	Memories []brain.SurfacedMemory
	// MemoryIDs retained for later reinforcement.
	MemoryIDs []string
	// FeedbackProcessed reports whether the memory service evaluated
	// feedback from the previous interaction.
	FeedbackProcessed bool
	// BrainError marks the call as failed; feeds the circuit breaker.
	BrainError bool
}

// Empty returns the result used when the memory service is skipped.
func Empty() *Result {
	return &Result{}
}

// Activate queries the memory service with a bounded context summary.
// Failures degrade to an empty result with BrainError set; the client
// request is never affected.
func Activate(
	ctx context.Context,
	client *brain.Client,
	fc *perception.FullContext,
	sess *session.Session,
	maxMemories int,
) *Result {
	log := logger.FromContext(ctx)

	req := &brain.ProactiveContextRequest{
		UserID:     fc.UserID,
		Context:    fc.ContextString(),
		MaxResults: maxMemories,
		// Encoding stores the interaction itself; auto-ingest here
		// would double-store.
		AutoIngest:       false,
		PreviousResponse: sess.LastResponse,
		UserFollowup:     fc.LastUserMessage(),
	}

	log.Debug("activating memories",
		"user_id", fc.UserID,
		"context_len", len(req.Context),
		"max_memories", maxMemories,
		"has_previous", sess.LastResponse != "",
	)

	resp, err := client.Activate(ctx, req)
	if err != nil {
		log.Warn("failed to activate memories", "error", err)
		return &Result{BrainError: true}
	}

	ids := make([]string, 0, len(resp.Memories))
	for _, mem := range resp.Memories {
		ids = append(ids, mem.ID)
	}

	if len(resp.Memories) > 0 {
		log.Info("activated memories", "count", len(resp.Memories), "user_id", fc.UserID)
		for i, mem := range resp.Memories {
			log.Debug("surfaced memory",
				"rank", i+1,
				"type", mem.MemoryType,
				"score", mem.Score,
				"content", perception.SmartTruncate(mem.Content, 60),
			)
		}
	}

	feedbackProcessed := resp.FeedbackProcessed != nil && resp.FeedbackProcessed.MemoriesEvaluated > 0
	if feedbackProcessed {
		log.Debug("memory service processed feedback from previous interaction")
	}

	return &Result{
		Memories:          resp.Memories,
		MemoryIDs:         ids,
		FeedbackProcessed: feedbackProcessed,
	}
}
