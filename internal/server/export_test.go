package server

import "net/http"

// HTTPServer exposes the underlying http.Server for testing.
func (s *Server) HTTPServer() *http.Server {
	return s.http
}
