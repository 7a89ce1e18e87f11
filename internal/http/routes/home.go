package routes

import "net/http"

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home", map[string]any{"Title": "AI Trends"})
}
