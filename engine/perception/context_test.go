package perception

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserID(t *testing.T) {
	t.Run("Should read the identity header", func(t *testing.T) {
		h := http.Header{}
		h.Set(HeaderUserID, "alice")
		assert.Equal(t, "alice", UserID(h))
	})
	t.Run("Should default without the header", func(t *testing.T) {
		assert.Equal(t, DefaultUserID, UserID(http.Header{}))
	})
}

func parseRequest(t *testing.T, body string) *Request {
	t.Helper()
	var req Request
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func TestExtractFullContext(t *testing.T) {
	body := `{
		"model": "claude-sonnet-4",
		"max_tokens": 100,
		"system": "You are helpful.",
		"tools": [{"name":"Bash","input_schema":{}},{"name":"Edit","input_schema":{}}],
		"messages": [
			{"role":"user","content":"Run the tests"},
			{"role":"assistant","content":[{"type":"text","text":"Running."},{"type":"tool_use","id":"tu_1","name":"Bash","input":{"command":"go test"}}]},
			{"role":"user","content":[{"type":"tool_result","tool_use_id":"tu_1","is_error":true,"content":"FAIL"}]},
			{"role":"user","content":"Why did it fail?"}
		]
	}`

	t.Run("Should capture messages, tools, and identity", func(t *testing.T) {
		headers := http.Header{}
		headers.Set(HeaderUserID, "u1")
		headers.Set(HeaderAgentID, "worker")
		headers.Set(HeaderRunID, "run-1")

		fc := ExtractFullContext(parseRequest(t, body), headers)

		assert.Equal(t, "claude-sonnet-4", fc.Model)
		assert.Equal(t, "u1", fc.UserID)
		assert.Equal(t, "worker", fc.AgentID)
		assert.Equal(t, "run-1", fc.RunID)
		assert.Equal(t, "You are helpful.", fc.SystemPrompt)
		assert.Len(t, fc.Messages, 4)
		assert.Equal(t, []string{"Bash", "Edit"}, fc.AvailableTools)

		require.Len(t, fc.ToolUses, 1)
		assert.Equal(t, "Bash", fc.ToolUses[0].Name)
		require.Len(t, fc.ToolResults, 1)
		assert.True(t, fc.ToolResults[0].IsError)
	})

	t.Run("Should find the last user message", func(t *testing.T) {
		fc := ExtractFullContext(parseRequest(t, body), http.Header{})
		assert.Equal(t, "Why did it fail?", fc.LastUserMessage())
	})

	t.Run("Should return empty last message without user turns", func(t *testing.T) {
		fc := ExtractFullContext(parseRequest(t, `{"model":"m","max_tokens":1,"messages":[{"role":"assistant","content":"hi"}]}`), http.Header{})
		assert.Empty(t, fc.LastUserMessage())
	})
}

func TestContextString(t *testing.T) {
	t.Run("Should render system, messages, tools, and errors", func(t *testing.T) {
		fc := &FullContext{
			SystemPrompt: "Be terse.",
			Messages: []MessageSummary{
				{Role: "user", Content: "Run the tests"},
				{Role: "assistant", Content: "Running."},
			},
			ToolUses:    []ToolUse{{Name: "Bash", Input: json.RawMessage(`{"command":"go test"}`)}},
			ToolResults: []ToolResult{{Content: "FAIL: TestX", IsError: true}},
		}
		s := fc.ContextString()
		assert.Contains(t, s, "[System]: Be terse.")
		assert.Contains(t, s, "[user]: Run the tests")
		assert.Contains(t, s, "[assistant]: Running.")
		assert.Contains(t, s, `[Tools]: Bash({"command":"go test"})`)
		assert.Contains(t, s, "[Errors]: FAIL: TestX")
	})

	t.Run("Should keep only the most recent messages", func(t *testing.T) {
		fc := &FullContext{}
		for i := 0; i < MaxRecentMessages+5; i++ {
			fc.Messages = append(fc.Messages, MessageSummary{Role: "user", Content: "message"})
		}
		s := fc.ContextString()
		assert.Equal(t, MaxRecentMessages, strings.Count(s, "[user]:"))
	})

	t.Run("Should cap tool inputs at 100 characters", func(t *testing.T) {
		fc := &FullContext{
			ToolUses: []ToolUse{{Name: "Write", Input: json.RawMessage(`{"content":"` + strings.Repeat("x", 300) + `"}`)}},
		}
		s := fc.ContextString()
		for _, line := range strings.Split(s, "\n") {
			if strings.HasPrefix(line, "[Tools]:") {
				assert.LessOrEqual(t, len(line), len("[Tools]: Write()")+100)
			}
		}
	})
	t.Run("Should truncate multibyte tool inputs without splitting runes", func(t *testing.T) {
		input := `{"text":"` + strings.Repeat("日", 200) + `"}`
		fc := &FullContext{
			ToolUses: []ToolUse{{Name: "Write", Input: json.RawMessage(input)}},
		}
		s := fc.ContextString()
		assert.True(t, utf8.ValidString(s))
		assert.Contains(t, s, "Write("+string([]rune(input)[:100])+")")
	})
}

func TestSmartTruncate(t *testing.T) {
	t.Run("Should leave short text alone", func(t *testing.T) {
		assert.Equal(t, "Hello world", SmartTruncate("Hello world", 100))
	})
	t.Run("Should cut at a sentence boundary past the midpoint", func(t *testing.T) {
		text := "First sentence. Second sentence. Third sentence is longer."
		got := SmartTruncate(text, 40)
		assert.True(t, strings.HasSuffix(got, ".") || strings.HasSuffix(got, "..."))
		assert.LessOrEqual(t, len(got), 43)
	})
	t.Run("Should cut at a word boundary past three quarters", func(t *testing.T) {
		text := strings.Repeat("word ", 30)
		got := SmartTruncate(text, 52)
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.NotContains(t, strings.TrimSuffix(got, "..."), "wor...")
	})
	t.Run("Should hard-cut unbroken text", func(t *testing.T) {
		got := SmartTruncate(strings.Repeat("a", 100), 20)
		assert.Equal(t, strings.Repeat("a", 20)+"...", got)
	})
	t.Run("Should not split multibyte runes", func(t *testing.T) {
		got := SmartTruncate(strings.Repeat("日", 50), 10)
		assert.Equal(t, strings.Repeat("日", 10)+"...", got)
	})
}
