package perception

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// SystemPromptPreviewChars caps the system prompt preview in context strings.
	SystemPromptPreviewChars = 2000
	// MessagePreviewChars caps each message preview in context strings.
	MessagePreviewChars = 1000
	// MaxRecentMessages caps how many trailing messages enter the context string.
	MaxRecentMessages = 20
)

// Request is an inbound messages-API request. Unknown top-level fields are
// captured in Extra so the request can be re-serialized without loss.
type Request struct {
	Model     string
	Messages  []Message
	System    *SystemContent
	MaxTokens int
	Stream    bool
	Tools     []json.RawMessage
	Extra     map[string]json.RawMessage
}

func (r *Request) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = Request{Extra: make(map[string]json.RawMessage)}
	for key, raw := range fields {
		switch key {
		case "model":
			if err := json.Unmarshal(raw, &r.Model); err != nil {
				return fmt.Errorf("invalid model: %w", err)
			}
		case "messages":
			if err := json.Unmarshal(raw, &r.Messages); err != nil {
				return fmt.Errorf("invalid messages: %w", err)
			}
		case "system":
			var system SystemContent
			if err := json.Unmarshal(raw, &system); err != nil {
				return fmt.Errorf("invalid system: %w", err)
			}
			r.System = &system
		case "max_tokens":
			if err := json.Unmarshal(raw, &r.MaxTokens); err != nil {
				return fmt.Errorf("invalid max_tokens: %w", err)
			}
		case "stream":
			if err := json.Unmarshal(raw, &r.Stream); err != nil {
				return fmt.Errorf("invalid stream: %w", err)
			}
		case "tools":
			if err := json.Unmarshal(raw, &r.Tools); err != nil {
				return fmt.Errorf("invalid tools: %w", err)
			}
		default:
			r.Extra[key] = raw
		}
	}
	return nil
}

func (r Request) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(r.Extra)+6)
	for key, raw := range r.Extra {
		fields[key] = raw
	}
	var err error
	if fields["model"], err = json.Marshal(r.Model); err != nil {
		return nil, err
	}
	if fields["messages"], err = json.Marshal(r.Messages); err != nil {
		return nil, err
	}
	if fields["max_tokens"], err = json.Marshal(r.MaxTokens); err != nil {
		return nil, err
	}
	if r.System != nil {
		if fields["system"], err = json.Marshal(r.System); err != nil {
			return nil, err
		}
	}
	if r.Stream {
		fields["stream"] = json.RawMessage("true")
	}
	if len(r.Tools) > 0 {
		if fields["tools"], err = json.Marshal(r.Tools); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fields)
}

// Message is a single conversation turn.
type Message struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageContent is either plain text or an ordered list of content blocks.
type MessageContent struct {
	text   string
	blocks []ContentBlock
	isText bool
}

// TextContent builds a plain-text message content.
func TextContent(text string) MessageContent {
	return MessageContent{text: text, isText: true}
}

// BlocksContent builds a block-list message content.
func BlocksContent(blocks []ContentBlock) MessageContent {
	return MessageContent{blocks: blocks}
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		c.isText = true
		c.blocks = nil
		return json.Unmarshal(data, &c.text)
	}
	c.isText = false
	c.text = ""
	return json.Unmarshal(data, &c.blocks)
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.isText {
		return json.Marshal(c.text)
	}
	return json.Marshal(c.blocks)
}

// AsText flattens the content to plain text. Tool-result sub-blocks are
// concatenated with newlines.
func (c MessageContent) AsText() string {
	if c.isText {
		return c.text
	}
	var parts []string
	for _, block := range c.blocks {
		switch block.Type {
		case "text":
			parts = append(parts, block.Text)
		case "tool_result":
			if block.Content != nil {
				parts = append(parts, block.Content.AsText())
			}
		}
	}
	return strings.Join(parts, "\n")
}

// HasToolUse reports whether the content contains a tool invocation.
func (c MessageContent) HasToolUse() bool {
	for _, block := range c.blocks {
		if block.Type == "tool_use" {
			return true
		}
	}
	return false
}

// ToolUses extracts tool invocations from the content.
func (c MessageContent) ToolUses() []ToolUse {
	var uses []ToolUse
	for _, block := range c.blocks {
		if block.Type == "tool_use" {
			uses = append(uses, ToolUse{ID: block.ID, Name: block.Name, Input: block.Input})
		}
	}
	return uses
}

// ToolResults extracts tool results from the content.
func (c MessageContent) ToolResults() []ToolResult {
	var results []ToolResult
	for _, block := range c.blocks {
		if block.Type != "tool_result" {
			continue
		}
		result := ToolResult{ToolUseID: block.ToolUseID}
		if block.Content != nil {
			result.Content = block.Content.AsText()
		}
		if block.IsError != nil {
			result.IsError = *block.IsError
		}
		results = append(results, result)
	}
	return results
}

// ContentBlock is one typed block inside a message. The original JSON is
// retained and re-emitted verbatim so unknown block types and fields
// survive the round trip.
type ContentBlock struct {
	Type      string
	Text      string
	ID        string
	Name      string
	Input     json.RawMessage
	ToolUseID string
	Content   *ToolResultContent
	IsError   *bool

	raw json.RawMessage
}

func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var aux struct {
		Type      string             `json:"type"`
		Text      string             `json:"text"`
		ID        string             `json:"id"`
		Name      string             `json:"name"`
		Input     json.RawMessage    `json:"input"`
		ToolUseID string             `json:"tool_use_id"`
		Content   *ToolResultContent `json:"content"`
		IsError   *bool              `json:"is_error"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*b = ContentBlock{
		Type:      aux.Type,
		Text:      aux.Text,
		ID:        aux.ID,
		Name:      aux.Name,
		Input:     aux.Input,
		ToolUseID: aux.ToolUseID,
		Content:   aux.Content,
		IsError:   aux.IsError,
		raw:       append(json.RawMessage(nil), data...),
	}
	return nil
}

func (b ContentBlock) MarshalJSON() ([]byte, error) {
	if b.raw != nil {
		return b.raw, nil
	}
	return json.Marshal(map[string]any{"type": b.Type, "text": b.Text})
}

// ToolResultContent is either plain text or a list of sub-blocks.
type ToolResultContent struct {
	text   string
	blocks []ToolResultBlock
	isText bool
}

func (c *ToolResultContent) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		c.isText = true
		c.blocks = nil
		return json.Unmarshal(data, &c.text)
	}
	c.isText = false
	c.text = ""
	return json.Unmarshal(data, &c.blocks)
}

func (c ToolResultContent) MarshalJSON() ([]byte, error) {
	if c.isText {
		return json.Marshal(c.text)
	}
	return json.Marshal(c.blocks)
}

// AsText flattens the tool result to plain text.
func (c ToolResultContent) AsText() string {
	if c.isText {
		return c.text
	}
	var parts []string
	for _, block := range c.blocks {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ToolResultBlock is one sub-block inside a tool result.
type ToolResultBlock struct {
	Type string
	Text string

	raw json.RawMessage
}

func (b *ToolResultBlock) UnmarshalJSON(data []byte) error {
	var aux struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*b = ToolResultBlock{Type: aux.Type, Text: aux.Text, raw: append(json.RawMessage(nil), data...)}
	return nil
}

func (b ToolResultBlock) MarshalJSON() ([]byte, error) {
	if b.raw != nil {
		return b.raw, nil
	}
	return json.Marshal(map[string]any{"type": b.Type, "text": b.Text})
}

// SystemContent is a system prompt: plain text or a list of text blocks.
type SystemContent struct {
	text   string
	blocks []SystemBlock
	isText bool
}

// SystemText builds a plain-text system prompt.
func SystemText(text string) *SystemContent {
	return &SystemContent{text: text, isText: true}
}

// SystemBlocks builds a block-form system prompt.
func SystemBlocks(blocks []SystemBlock) *SystemContent {
	return &SystemContent{blocks: blocks}
}

func (c *SystemContent) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		c.isText = true
		c.blocks = nil
		return json.Unmarshal(data, &c.text)
	}
	c.isText = false
	c.text = ""
	return json.Unmarshal(data, &c.blocks)
}

func (c SystemContent) MarshalJSON() ([]byte, error) {
	if c.isText {
		return json.Marshal(c.text)
	}
	return json.Marshal(c.blocks)
}

// AsText flattens the system prompt to plain text.
func (c *SystemContent) AsText() string {
	if c == nil {
		return ""
	}
	if c.isText {
		return c.text
	}
	parts := make([]string, 0, len(c.blocks))
	for _, block := range c.blocks {
		parts = append(parts, block.Text)
	}
	return strings.Join(parts, "\n")
}

// IsText reports whether the prompt is in plain-text form.
func (c *SystemContent) IsText() bool {
	return c != nil && c.isText
}

// Blocks returns a copy of the prompt in block form. A plain-text prompt
// converts to a single text block without a cache marker.
func (c *SystemContent) Blocks() []SystemBlock {
	if c == nil {
		return nil
	}
	if c.isText {
		return []SystemBlock{{Type: "text", Text: c.text}}
	}
	return append([]SystemBlock(nil), c.blocks...)
}

// SystemBlock is one text block of a block-form system prompt. Blocks parsed
// from the wire keep their original JSON so cache markers and unknown fields
// re-serialize untouched.
type SystemBlock struct {
	Type         string
	Text         string
	CacheControl json.RawMessage

	raw json.RawMessage
}

func (b *SystemBlock) UnmarshalJSON(data []byte) error {
	var aux struct {
		Type         string          `json:"type"`
		Text         string          `json:"text"`
		CacheControl json.RawMessage `json:"cache_control"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*b = SystemBlock{
		Type:         aux.Type,
		Text:         aux.Text,
		CacheControl: aux.CacheControl,
		raw:          append(json.RawMessage(nil), data...),
	}
	return nil
}

func (b SystemBlock) MarshalJSON() ([]byte, error) {
	if b.raw != nil {
		return b.raw, nil
	}
	return json.Marshal(map[string]any{"type": b.Type, "text": b.Text})
}
