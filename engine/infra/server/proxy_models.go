package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// modelsHandler is a plain passthrough for model discovery. Same header
// policy as the messages route, no augmentation.
func (s *Server) modelsHandler(c *gin.Context) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet,
		s.config.Upstream.URL+"/v1/models", nil)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to build upstream request: " + err.Error()})
		return
	}
	copyForwardHeaders(req.Header, c.Request.Header)
	s.applyFallbackAuth(req.Header, c.Request.Header)

	resp, err := s.upstream.Do(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream API error: " + err.Error()})
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to read upstream response: " + err.Error()})
		return
	}
	c.Data(resp.StatusCode, "application/json", body)
}
