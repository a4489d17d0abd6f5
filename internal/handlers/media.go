package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"photovault/internal/content"
	"photovault/internal/logging"
	"photovault/internal/mediatypes"
)

// Thumbnail serves the thumbnail for an asset. Ids are strict hex, so no
// request can name a path outside the thumbs directory.
func (h *Handlers) Thumbnail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !content.ValidID(id) {
		writeJSONError(w, "invalid asset id", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.config.VaultDir, "thumbs", id+mediatypes.ThumbnailExt)
	if _, err := os.Stat(path); err != nil {
		writeJSONError(w, "thumbnail not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(mediatypes.ThumbnailExt))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

// Media serves the vault artifact for an asset. The catalog's vault_path
// is re-checked against the vault root before serving.
func (h *Handlers) Media(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !content.ValidID(id) {
		writeJSONError(w, "invalid asset id", http.StatusBadRequest)
		return
	}

	asset, err := h.pipeline.GetAsset(r.Context(), h.config.VaultDir, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, "asset not found", http.StatusNotFound)
			return
		}
		logging.Error("Asset lookup failed for %s: %v", id, err)
		writeJSONError(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	if !pathWithin(h.config.VaultDir, asset.VaultPath) {
		logging.Error("Catalog row %s points outside the vault: %s", id, asset.VaultPath)
		writeJSONError(w, "asset not found", http.StatusNotFound)
		return
	}

	if _, err := os.Stat(asset.VaultPath); err != nil {
		writeJSONError(w, "artifact missing", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(filepath.Ext(asset.VaultPath)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, asset.VaultPath)
}

// pathWithin reports whether path resolves inside root.
func pathWithin(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
