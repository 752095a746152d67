// Package injection splices surfaced memories into the outbound request's
// system prompt. Messages are never touched; the model sees the memories as
// background context, not as conversation.
package injection

import (
	"fmt"
	"strings"

	"github.com/shodh-ai/cortex/engine/brain"
	"github.com/shodh-ai/cortex/engine/perception"
)

// Inject appends a memory block to the request's system prompt. A plain-text
// prompt is promoted to block form; existing blocks keep their cache markers
// and the appended block is never cache-marked, since its content changes on
// every request. No memories, no change.
func Inject(req *perception.Request, memories []brain.SurfacedMemory) {
	if len(memories) == 0 {
		return
	}

	memoryBlock := perception.SystemBlock{Type: "text", Text: FormatMemoryBlock(memories)}

	if req.System == nil {
		req.System = perception.SystemBlocks([]perception.SystemBlock{memoryBlock})
		return
	}
	req.System = perception.SystemBlocks(append(req.System.Blocks(), memoryBlock))
}

// FormatMemoryBlock renders surfaced memories as a tagged context block.
func FormatMemoryBlock(memories []brain.SurfacedMemory) string {
	lines := make([]string, 0, len(memories))
	for i, m := range memories {
		lines = append(lines, fmt.Sprintf("[%d] (%s) %.0f%%: %s", i+1, m.MemoryType, m.Score*100, m.Content))
	}

	return fmt.Sprintf(`<shodh-context relevance="proactive">
The following memories from past interactions may be relevant:

%s

Use these memories to provide contextual, personalized responses.
If a memory contradicts the current request, prioritize the user's current intent.
</shodh-context>`, strings.Join(lines, "\n"))
}
