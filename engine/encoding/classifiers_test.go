package encoding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shodh-ai/cortex/engine/perception"
)

func TestDetermineMemoryType(t *testing.T) {
	t.Run("Should classify recommendation exchanges as Decision", func(t *testing.T) {
		got := DetermineMemoryType("Should I use Rust or Python?", "I recommend Rust", nil)
		assert.Equal(t, "Decision", got)
	})
	t.Run("Should classify explanatory exchanges as Learning", func(t *testing.T) {
		got := DetermineMemoryType("What is a mutex?", "A mutex is a synchronization primitive", nil)
		assert.Equal(t, "Learning", got)
	})
	t.Run("Should classify debugging exchanges as Error", func(t *testing.T) {
		got := DetermineMemoryType("I got an error", "The issue is with the type", nil)
		assert.Equal(t, "Error", got)
	})
	t.Run("Should classify file-mutating tool use as Task", func(t *testing.T) {
		got := DetermineMemoryType("Update the config", "Done", []string{"Edit"})
		assert.Equal(t, "Task", got)
	})
	t.Run("Should classify read-only tool use as Discovery", func(t *testing.T) {
		got := DetermineMemoryType("Look around", "Found three packages", []string{"Grep"})
		assert.Equal(t, "Discovery", got)
	})
	t.Run("Should fall back to Conversation", func(t *testing.T) {
		got := DetermineMemoryType("Hello", "Hi there", nil)
		assert.Equal(t, "Conversation", got)
	})
	t.Run("Should prefer content signals over tool signals", func(t *testing.T) {
		got := DetermineMemoryType("Fix this bug", "The fix is in", []string{"Edit"})
		assert.Equal(t, "Error", got)
	})
}

func TestEstimateValence(t *testing.T) {
	t.Run("Should score gratitude positive", func(t *testing.T) {
		v := EstimateValence("Thanks, that's great!", "You're welcome", nil)
		assert.NotNil(t, v)
		assert.Greater(t, *v, 0.0)
	})
	t.Run("Should score breakage negative", func(t *testing.T) {
		v := EstimateValence("This is broken", "There's an error in the code", nil)
		assert.NotNil(t, v)
		assert.Less(t, *v, 0.0)
	})
	t.Run("Should score a resolved error net positive", func(t *testing.T) {
		v := EstimateValence(
			"I got an error with the database",
			"The issue was a missing connection. I've fixed it.",
			[]string{"Edit"},
		)
		assert.NotNil(t, v)
		assert.Greater(t, *v, 0.0)
	})
	t.Run("Should return nil when the signal is too weak", func(t *testing.T) {
		v := EstimateValence("List the files", "Here are the files", nil)
		assert.Nil(t, v)
	})
	t.Run("Should stay within bounds", func(t *testing.T) {
		v := EstimateValence(
			"completely wrong, terrible, useless, I hate this",
			"error bug broken crash",
			nil,
		)
		assert.NotNil(t, v)
		assert.GreaterOrEqual(t, *v, -1.0)
		assert.LessOrEqual(t, *v, 1.0)
	})
	t.Run("Should credit tool completion", func(t *testing.T) {
		v := EstimateValence("Rename the package", "Done, all imports updated", []string{"Edit"})
		assert.NotNil(t, v)
		assert.Greater(t, *v, 0.0)
	})
}

func TestGenerateTags(t *testing.T) {
	t.Run("Should tag model, agent hierarchy, run, and tools", func(t *testing.T) {
		fc := &perception.FullContext{
			Model:         "claude-sonnet-4",
			AgentID:       "researcher",
			ParentAgentID: "lead",
			RunID:         "run-7",
		}
		tags := GenerateTags(fc, []string{"Bash", "Edit", "Bash"})
		assert.Equal(t, []string{
			"model:claude-sonnet-4",
			"agent:researcher",
			"parent_agent:lead",
			"run:run-7",
			"tool:Bash",
			"tool:Edit",
			"source:cortex",
		}, tags)
	})
	t.Run("Should omit empty identity fields", func(t *testing.T) {
		fc := &perception.FullContext{Model: "claude-sonnet-4"}
		tags := GenerateTags(fc, nil)
		assert.Equal(t, []string{"model:claude-sonnet-4", "source:cortex"}, tags)
	})
}

func TestFormatInteraction(t *testing.T) {
	t.Run("Should render user, tools, and assistant lines", func(t *testing.T) {
		got := FormatInteraction("Fix the test", "Fixed it", []string{"Read", "Edit"})
		assert.Equal(t, "User: Fix the test\nTools: Read, Edit\nAssistant: Fixed it", got)
	})
	t.Run("Should omit the tools line without tool use", func(t *testing.T) {
		got := FormatInteraction("Hello", "Hi", nil)
		assert.Equal(t, "User: Hello\nAssistant: Hi", got)
	})
	t.Run("Should summarize long tool lists", func(t *testing.T) {
		got := FormatInteraction("Refactor", "Done", []string{"Read", "Grep", "Edit", "Bash", "Write"})
		assert.Contains(t, got, "Tools: Read, Grep, Edit, ... (+2 more)")
	})
	t.Run("Should truncate long user messages", func(t *testing.T) {
		long := strings.Repeat("word ", 200)
		got := FormatInteraction(long, "ok", nil)
		userLine := strings.SplitN(got, "\n", 2)[0]
		assert.LessOrEqual(t, len(userLine), len("User: ")+500+3)
	})
}
