package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shodh-ai/cortex/engine/activation"
	"github.com/shodh-ai/cortex/engine/encoding"
	"github.com/shodh-ai/cortex/engine/feedback"
	"github.com/shodh-ai/cortex/engine/injection"
	"github.com/shodh-ai/cortex/engine/perception"
	"github.com/shodh-ai/cortex/engine/session"
	"github.com/shodh-ai/cortex/pkg/logger"
)

// messagesHandler is the augmentation pipeline: perceive the request,
// process feedback from the previous turn, activate and inject memories,
// forward upstream, and encode the completed exchange in the background.
// Every memory step degrades silently; the client sees the upstream's
// response either way.
func (s *Server) messagesHandler(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var req perception.Request
	if err := json.Unmarshal(rawBody, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	fc := perception.ExtractFullContext(&req, c.Request.Header)
	log.Debug("perceived context",
		"user_id", fc.UserID,
		"messages", len(fc.Messages),
		"tool_uses", len(fc.ToolUses),
	)

	sess := s.sessions.Snapshot(fc.UserID)
	brainAvailable := s.breaker.IsAvailable()

	// Feedback for the previous turn runs in the background; the caller's
	// request never waits on it.
	if brainAvailable {
		if userMsg := fc.LastUserMessage(); userMsg != "" {
			bgCtx := logger.ContextWithLogger(context.Background(), log)
			prev := sess
			go feedback.ProcessFeedback(bgCtx, s.brain, fc.UserID, userMsg, &prev)
		}
	}

	var result *activation.Result
	if brainAvailable {
		result = activation.Activate(ctx, s.brain, fc, &sess, s.config.Brain.MaxMemories)
		if result.BrainError {
			s.breaker.RecordFailure()
		} else {
			s.breaker.RecordSuccess()
		}
	} else {
		log.Debug("memory service circuit open, skipping activation")
		result = activation.Empty()
	}

	injection.Inject(&req, result.Memories)

	// Without an injection the original bytes go upstream untouched, so a
	// request the proxy had nothing to add to is forwarded verbatim.
	outBody := rawBody
	if len(result.Memories) > 0 {
		outBody, err = json.Marshal(&req)
		if err != nil {
			log.Error("failed to serialize augmented request, forwarding original", "error", err)
			outBody = rawBody
		}
	}

	// The upstream call must outlive the client connection: on a streaming
	// disconnect the forward stops but the collector still drains the rest
	// of the response so the interaction is recorded in full.
	upstreamReq, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost,
		s.config.Upstream.URL+"/v1/messages", bytes.NewReader(outBody))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to build upstream request: " + err.Error()})
		return
	}
	copyForwardHeaders(upstreamReq.Header, c.Request.Header)
	s.applyFallbackAuth(upstreamReq.Header, c.Request.Header)

	resp, err := s.upstream.Do(upstreamReq)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream LLM error: " + err.Error()})
		return
	}

	isError := resp.StatusCode < 200 || resp.StatusCode >= 300

	if req.Stream && !isError {
		s.streamResponse(c, resp, fc, result, brainAvailable)
		return
	}
	s.bufferResponse(c, resp, fc, result, brainAvailable, isError)
}

// bufferResponse relays a non-streaming (or error) upstream response.
// Upstream errors pass through verbatim and are never encoded as memories.
func (s *Server) bufferResponse(
	c *gin.Context,
	resp *http.Response,
	fc *perception.FullContext,
	result *activation.Result,
	brainAvailable bool,
	isError bool,
) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to read upstream response: " + err.Error()})
		return
	}

	if !isError {
		text, tools := ExtractFromResponse(body)
		bgCtx := logger.ContextWithLogger(context.Background(), logger.FromContext(c.Request.Context()))
		go s.encodeAndUpdate(bgCtx, fc, result.MemoryIDs, text, tools, brainAvailable)
	}

	c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), body)
}

// streamResponse tees the upstream SSE stream: chunks reach the client as
// they arrive while a collector keeps its own copy to reconstruct the
// response for encoding. The collector drains the full stream even when the
// client disconnects mid-response.
func (s *Server) streamResponse(
	c *gin.Context,
	resp *http.Response,
	fc *perception.FullContext,
	result *activation.Result,
	brainAvailable bool,
) {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/event-stream"
	}
	c.Writer.Header().Set("Content-Type", contentType)
	c.Status(resp.StatusCode)

	collectorCh := make(chan []byte, 100)
	clientCh := make(chan []byte, 100)
	clientGone := make(chan struct{})

	bgCtx := logger.ContextWithLogger(context.Background(), logger.FromContext(c.Request.Context()))

	go func() {
		var collected bytes.Buffer
		for chunk := range collectorCh {
			collected.Write(chunk)
		}
		text, tools := ExtractFromStream(bgCtx, collected.Bytes())
		s.encodeAndUpdate(bgCtx, fc, result.MemoryIDs, text, tools, brainAvailable)
	}()

	go func() {
		defer resp.Body.Close()
		defer close(collectorCh)
		defer close(clientCh)

		buf := make([]byte, 32*1024)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				collectorCh <- chunk
				select {
				case clientCh <- chunk:
				case <-clientGone:
					// Keep reading for the collector.
				}
			}
			if err != nil {
				if err != io.EOF {
					logger.FromContext(bgCtx).Error("upstream stream error", "error", err)
				}
				return
			}
		}
	}()

	c.Stream(func(w io.Writer) bool {
		chunk, ok := <-clientCh
		if !ok {
			return false
		}
		_, _ = w.Write(chunk)
		return true
	})
	close(clientGone)
}

// encodeAndUpdate stores the completed exchange and rolls the session
// forward. The session advances even when the memory service is down so
// feedback detection keeps a correct view of the conversation.
func (s *Server) encodeAndUpdate(
	ctx context.Context,
	fc *perception.FullContext,
	memoryIDs []string,
	text string,
	tools []string,
	brainAvailable bool,
) {
	if brainAvailable {
		if _, err := encoding.EncodeInteraction(ctx, s.brain, fc, text, tools); err != nil {
			logger.FromContext(ctx).Warn("failed to encode interaction", "user_id", fc.UserID, "error", err)
		}
	}
	s.sessions.Update(fc.UserID, session.Update{
		LastResponse:    text,
		LastMemoryIDs:   memoryIDs,
		LastToolUses:    tools,
		LastUserMessage: fc.LastUserMessage(),
	})
}
