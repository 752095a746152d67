package perception

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	// HeaderUserID carries the caller identity.
	HeaderUserID = "x-shodh-user-id"
	// HeaderAgentID carries the sub-agent identity.
	HeaderAgentID = "x-shodh-agent-id"
	// HeaderParentAgentID carries the parent agent identity.
	HeaderParentAgentID = "x-shodh-parent-agent-id"
	// HeaderRunID groups requests within one execution.
	HeaderRunID = "x-shodh-run-id"

	// DefaultUserID is used when no caller identity header is present.
	DefaultUserID = "claude-code"
)

// ToolUse is a tool invocation extracted from an assistant message.
type ToolUse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult is a tool result extracted from a user message.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error"`
}

// MessageSummary is a flattened view of one message.
type MessageSummary struct {
	Role          string `json:"role"`
	Content       string `json:"content"`
	HasToolUse    bool   `json:"has_tool_use"`
	HasToolResult bool   `json:"has_tool_result"`
}

// FullContext is an immutable snapshot of everything one request exposes.
// It is built once per request and cloned into background tasks.
type FullContext struct {
	SystemPrompt   string           `json:"system_prompt,omitempty"`
	Messages       []MessageSummary `json:"messages"`
	ToolUses       []ToolUse        `json:"tool_uses"`
	ToolResults    []ToolResult     `json:"tool_results"`
	Model          string           `json:"model"`
	UserID         string           `json:"user_id"`
	AgentID        string           `json:"agent_id,omitempty"`
	ParentAgentID  string           `json:"parent_agent_id,omitempty"`
	RunID          string           `json:"run_id,omitempty"`
	AvailableTools []string         `json:"available_tools"`
}

// UserID extracts the caller identity from request headers.
func UserID(headers http.Header) string {
	if id := headers.Get(HeaderUserID); id != "" {
		return id
	}
	return DefaultUserID
}

// ExtractFullContext builds a FullContext from the parsed request and its
// headers. Pure function: no network or mutable-state access.
func ExtractFullContext(req *Request, headers http.Header) *FullContext {
	fc := &FullContext{
		SystemPrompt:  req.System.AsText(),
		Model:         req.Model,
		UserID:        UserID(headers),
		AgentID:       headers.Get(HeaderAgentID),
		ParentAgentID: headers.Get(HeaderParentAgentID),
		RunID:         headers.Get(HeaderRunID),
	}
	for _, msg := range req.Messages {
		results := msg.Content.ToolResults()
		fc.Messages = append(fc.Messages, MessageSummary{
			Role:          msg.Role,
			Content:       msg.Content.AsText(),
			HasToolUse:    msg.Content.HasToolUse(),
			HasToolResult: len(results) > 0,
		})
		switch msg.Role {
		case "assistant":
			fc.ToolUses = append(fc.ToolUses, msg.Content.ToolUses()...)
		case "user":
			fc.ToolResults = append(fc.ToolResults, results...)
		}
	}
	for _, tool := range req.Tools {
		if name := gjson.GetBytes(tool, "name").String(); name != "" {
			fc.AvailableTools = append(fc.AvailableTools, name)
		}
	}
	return fc
}

// LastUserMessage returns the text of the most recent user message.
func (fc *FullContext) LastUserMessage() string {
	for i := len(fc.Messages) - 1; i >= 0; i-- {
		if fc.Messages[i].Role == "user" {
			return fc.Messages[i].Content
		}
	}
	return ""
}

// ContextString renders the context as a bounded text summary for the
// memory service, preferring sentence boundaries when truncating.
func (fc *FullContext) ContextString() string {
	var parts []string

	if fc.SystemPrompt != "" {
		if preview := SmartTruncate(fc.SystemPrompt, SystemPromptPreviewChars); preview != "" {
			parts = append(parts, "[System]: "+preview)
		}
	}

	start := 0
	if len(fc.Messages) > MaxRecentMessages {
		start = len(fc.Messages) - MaxRecentMessages
	}
	for _, msg := range fc.Messages[start:] {
		if preview := SmartTruncate(msg.Content, MessagePreviewChars); preview != "" {
			parts = append(parts, fmt.Sprintf("[%s]: %s", msg.Role, preview))
		}
	}

	if len(fc.ToolUses) > 0 {
		tools := make([]string, 0, len(fc.ToolUses))
		for _, use := range fc.ToolUses {
			input := string(use.Input)
			if runes := []rune(input); len(runes) > 100 {
				input = string(runes[:100])
			}
			tools = append(tools, fmt.Sprintf("%s(%s)", use.Name, input))
		}
		parts = append(parts, "[Tools]: "+strings.Join(tools, ", "))
	}

	var errorSummaries []string
	for _, result := range fc.ToolResults {
		if result.IsError {
			errorSummaries = append(errorSummaries, SmartTruncate(result.Content, 200))
		}
	}
	if len(errorSummaries) > 0 {
		parts = append(parts, "[Errors]: "+strings.Join(errorSummaries, "; "))
	}

	return strings.Join(parts, "\n")
}

// SmartTruncate caps text at maxChars, preferring the last sentence boundary
// past the halfway point, then the last word boundary past three quarters.
func SmartTruncate(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	truncated := string(runes[:maxChars])

	if pos := strings.LastIndexAny(truncated, ".!?\n"); pos >= 0 && pos > maxChars/2 {
		return truncated[:pos+1]
	}
	if pos := strings.LastIndexFunc(truncated, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n'
	}); pos >= 0 && pos > maxChars*3/4 {
		return truncated[:pos] + "..."
	}
	return truncated + "..."
}
