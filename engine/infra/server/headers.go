package server

import (
	"net/http"
	"strings"
)

// hopByHopHeaders never cross the proxy. Content-Length is recomputed by the
// transport since the body may have changed.
var hopByHopHeaders = map[string]struct{}{
	"host":                {},
	"content-length":      {},
	"transfer-encoding":   {},
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailer":             {},
	"upgrade":             {},
}

func copyForwardHeaders(dst http.Header, src http.Header) {
	for name, values := range src {
		if _, skip := hopByHopHeaders[strings.ToLower(name)]; skip {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

// applyFallbackAuth adds the configured API key when the caller sent no
// credentials of its own.
func (s *Server) applyFallbackAuth(dst http.Header, src http.Header) {
	if src.Get("Authorization") != "" || src.Get("x-api-key") != "" {
		return
	}
	if key := s.config.Upstream.APIKey.Value(); key != "" {
		dst.Set("x-api-key", key)
	}
}
