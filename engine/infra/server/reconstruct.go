package server

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/shodh-ai/cortex/pkg/logger"
)

// ExtractFromStream reconstructs the response text and tool names from a
// collected SSE stream. Text accumulates from content_block_delta events;
// tool names come from content_block_start events carrying a named block.
// A scan failure (an oversized line, for instance) yields whatever was
// reconstructed up to that point.
func ExtractFromStream(ctx context.Context, raw []byte) (string, []string) {
	var text strings.Builder
	var tools []string

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		event := gjson.Parse(data)
		switch event.Get("type").String() {
		case "content_block_delta":
			text.WriteString(event.Get("delta.text").String())
		case "content_block_start":
			if name := event.Get("content_block.name").String(); name != "" {
				tools = append(tools, name)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		logger.FromContext(ctx).Warn("stream reconstruction stopped early", "error", err)
	}
	return text.String(), tools
}

// ExtractFromResponse pulls the response text and tool names out of a
// buffered non-streaming response body.
func ExtractFromResponse(body []byte) (string, []string) {
	var text strings.Builder
	var tools []string

	for _, block := range gjson.GetBytes(body, "content").Array() {
		text.WriteString(block.Get("text").String())
		if block.Get("type").String() == "tool_use" {
			if name := block.Get("name").String(); name != "" {
				tools = append(tools, name)
			}
		}
	}
	return text.String(), tools
}
