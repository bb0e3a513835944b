package handlers

import "net/http"

// Health handles GET /health. It does not touch storage.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
