package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"photovault/internal/logging"
)

const (
	// DatabaseFile is the name of the catalog store inside the vault root.
	DatabaseFile = "vault.db"
	// ManifestFile is the vault creation marker under the meta directory.
	ManifestFile = "manifest.json"
	// LockFile is the advisory import lock under the meta directory.
	LockFile = "import.lock"
)

// Layout holds the resolved directories of an initialized vault.
type Layout struct {
	Root       string
	ImagesDir  string
	VideosDir  string
	ThumbsDir  string
	BackupsDir string
	MetaDir    string
}

// Manifest is the vault creation marker written once to meta/manifest.json.
type Manifest struct {
	CreatedAt int64 `json:"createdAt"` // epoch milliseconds
}

// DatabasePath returns the catalog file path for a vault root.
func DatabasePath(root string) string {
	return filepath.Join(root, DatabaseFile)
}

// EnsureLayout idempotently creates the fixed vault subtree under root and
// writes the manifest marker if absent. Safe to call on every pipeline
// invocation; it never deletes or overwrites an existing manifest.
func EnsureLayout(root string) (*Layout, error) {
	l := &Layout{
		Root:       root,
		ImagesDir:  filepath.Join(root, "images"),
		VideosDir:  filepath.Join(root, "videos"),
		ThumbsDir:  filepath.Join(root, "thumbs"),
		BackupsDir: filepath.Join(root, "backups"),
		MetaDir:    filepath.Join(root, "meta"),
	}

	for _, dir := range []string{l.ImagesDir, l.VideosDir, l.ThumbsDir, l.BackupsDir, l.MetaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create vault directory %s: %w", dir, err)
		}
	}

	manifestPath := filepath.Join(l.MetaDir, ManifestFile)
	if _, err := os.Stat(manifestPath); err == nil {
		return l, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat vault manifest: %w", err)
	}

	data, err := json.Marshal(Manifest{CreatedAt: time.Now().UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode vault manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write vault manifest: %w", err)
	}

	logging.Info("Initialized vault layout at %s", root)
	return l, nil
}

// ReadManifest loads the vault creation marker.
func ReadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, "meta", ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read vault manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode vault manifest: %w", err)
	}
	return &m, nil
}

// BucketPath returns (creating if needed) the two-level year/month directory
// under baseDir for a timestamp: year is the last two digits of the calendar
// year and month is zero-padded, both in local time.
func BucketPath(baseDir string, ts time.Time) (string, error) {
	local := ts.Local()
	dir := filepath.Join(baseDir,
		fmt.Sprintf("%02d", local.Year()%100),
		fmt.Sprintf("%02d", int(local.Month())),
	)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create bucket directory %s: %w", dir, err)
	}
	return dir, nil
}
