package handler

import (
	"net/http"

	"github.com/cookieshop/backend/internal/domain/settings"
)

// getSettings returns the settings document, creating defaults on first read.
func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// updateSettings merges a partial document over the stored settings and
// upserts the result.
func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var in settings.Settings
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, err.Error())
		return
	}

	current, err := h.settings.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	current.Merge(in)
	if err := h.settings.Upsert(r.Context(), current); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}
