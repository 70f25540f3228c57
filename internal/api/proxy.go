package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// uiProxy builds the pass-through relay for unmodeled paths. It points at
// whatever web surface should stand in for the embedded bundle: the
// source's own frontend, or a UI dev server with hot reload. The API keeps
// answering on /api/v1 either way.
func (s *Server) uiProxy(rawURL string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing reverse proxy URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("reverse proxy URL must be absolute: %s", rawURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Warn("UI reverse proxy error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeRelay, "relay target unreachable")
	}
	return proxy, nil
}
