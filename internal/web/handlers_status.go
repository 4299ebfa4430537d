package web

import (
	"encoding/json"
	"net/http"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAPIError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, map[string]apiError{"error": {Code: code, Message: message}})
}

// handleStatus serves GET /api/status?path=<project path>.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "path is required")
		return
	}

	writeJSON(w, http.StatusOK, s.resolver.StatusFor(path))
}

// handleStatuses serves GET /api/statuses[?path=a&path=b]. Without explicit
// paths it answers for the server's configured worktree paths.
func (s *Server) handleStatuses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	paths := r.URL.Query()["path"]
	if len(paths) == 0 {
		paths = s.cfg.Paths
	}

	writeJSON(w, http.StatusOK, s.resolver.StatusForAll(paths))
}
