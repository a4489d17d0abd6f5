package handlers

import (
	"net/http"

	"photovault/internal/catalog"
	"photovault/internal/logging"
)

// ListAssets returns catalog rows, optionally filtered by the q search
// parameter. No matches is an empty array, not an error.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	params := catalog.QueryParams{Text: r.URL.Query().Get("q")}

	assets, err := h.pipeline.Query(r.Context(), h.config.VaultDir, params)
	if err != nil {
		logging.Error("Asset query failed: %v", err)
		writeJSONError(w, "query failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, assets)
}

// GetStats returns catalog-wide totals
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.pipeline.Stats(r.Context(), h.config.VaultDir)
	if err != nil {
		logging.Error("Stats query failed: %v", err)
		writeJSONError(w, "stats failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}
