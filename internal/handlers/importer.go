package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"photovault/internal/logging"
	"photovault/internal/mediatypes"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing;
// larger bodies spill to temp files.
const maxUploadMemory = 32 << 20

// ImportResponse reports the result of an import run.
type ImportResponse struct {
	Converted int    `json:"converted"`
	Preset    string `json:"preset"`
}

// TriggerImport runs a batch import of the configured import directory.
// A second request while one is running gets 409 instead of waiting.
func (h *Handlers) TriggerImport(w http.ResponseWriter, r *http.Request) {
	preset, err := parsePresetParam(r.FormValue("preset"), h.config.DefaultPreset)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.importMu.TryLock() {
		writeJSONError(w, "an import is already running", http.StatusConflict)
		return
	}
	defer h.importMu.Unlock()

	converted, err := h.pipeline.ImportBatch(r.Context(), h.config.VaultDir, h.config.ImportDir, preset)
	if err != nil {
		logging.Error("Import failed: %v", err)
		writeJSONError(w, "import failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ImportResponse{Converted: converted, Preset: string(preset)})
}

// Upload accepts multipart file uploads, stages them, and imports the
// staged batch. Staged files are removed after the run regardless of
// per-file outcomes; originals live on in the vault's backups tree.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.config.UploadsEnabled {
		writeJSONError(w, "uploads are disabled", http.StatusServiceUnavailable)
		return
	}

	// Query parameter only: reading form values here would parse the
	// multipart body with default limits before ParseMultipartForm runs.
	preset, err := parsePresetParam(r.URL.Query().Get("preset"), h.config.DefaultPreset)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSONError(w, "invalid multipart request", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Warn("failed to clean multipart temp files: %v", err)
		}
	}()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSONError(w, "no files provided", http.StatusBadRequest)
		return
	}

	stageDir, err := os.MkdirTemp(h.config.StagingDir, "upload-")
	if err != nil {
		logging.Error("Failed to create staging dir: %v", err)
		writeJSONError(w, "staging failed", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := os.RemoveAll(stageDir); err != nil {
			logging.Warn("failed to remove staging dir %s: %v", stageDir, err)
		}
	}()

	staged := 0
	for _, fh := range files {
		name := sanitizeUploadName(fh.Filename)
		if name == "" {
			logging.Warn("Rejecting upload with unusable filename %q", fh.Filename)
			continue
		}
		if err := stageFile(fh, filepath.Join(stageDir, name)); err != nil {
			logging.Warn("Failed to stage %s: %v", name, err)
			continue
		}
		staged++
	}
	if staged == 0 {
		writeJSONError(w, "no usable files in upload", http.StatusBadRequest)
		return
	}

	if !h.importMu.TryLock() {
		writeJSONError(w, "an import is already running", http.StatusConflict)
		return
	}
	defer h.importMu.Unlock()

	converted, err := h.pipeline.ImportBatch(r.Context(), h.config.VaultDir, stageDir, preset)
	if err != nil {
		logging.Error("Upload import failed: %v", err)
		writeJSONError(w, "import failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ImportResponse{Converted: converted, Preset: string(preset)})
}

func parsePresetParam(raw string, fallback mediatypes.Preset) (mediatypes.Preset, error) {
	if raw == "" {
		return fallback, nil
	}
	preset, err := mediatypes.ParsePreset(raw)
	if err != nil {
		return "", fmt.Errorf("invalid preset %q", raw)
	}
	return preset, nil
}

// sanitizeUploadName strips any client-supplied directory components and
// rejects names that would vanish during enumeration.
func sanitizeUploadName(name string) string {
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	if strings.HasPrefix(name, ".") {
		return ""
	}
	return name
}

func stageFile(fh *multipart.FileHeader, dest string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
