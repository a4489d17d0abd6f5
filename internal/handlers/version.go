package handlers

import (
	"net/http"

	"photovault/internal/startup"
)

// Version returns build information
func (h *Handlers) Version(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, startup.GetBuildInfo())
}
