package handlers

import "net/http"

type createNameRequest struct {
	Name string `json:"name"`
}

// ListNames handles GET /api/names.
func (h *Handler) ListNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.names.List(r.Context())
	if err != nil {
		h.storageFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// CreateName handles POST /api/names. The response is the stored entry,
// whether it was just created or already existed.
func (h *Handler) CreateName(w http.ResponseWriter, r *http.Request) {
	var req createNameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entry, _, err := h.names.Create(r.Context(), req.Name)
	if err != nil {
		h.storageFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
