package handlers

import (
	"net/http"
	"runtime"
	"time"

	"photovault/internal/startup"
	"photovault/internal/vault"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	VaultCreated string `json:"vaultCreated,omitempty"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	Assets int64 `json:"assets"`
}

// HealthCheck reports service status. The vault manifest being unreadable
// degrades the status but keeps the endpoint at 200; the process can
// still initialize a vault on the next import.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if m, err := vault.ReadManifest(h.config.VaultDir); err == nil {
		response.VaultCreated = time.UnixMilli(m.CreatedAt).UTC().Format(time.RFC3339)

		if stats, err := h.pipeline.Stats(r.Context(), h.config.VaultDir); err == nil {
			response.Assets = stats.Assets
		} else {
			response.Status = statusDegraded
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}
