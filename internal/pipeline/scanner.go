package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"photovault/internal/mediatypes"

	"github.com/bmatcuk/doublestar/v4"
)

// candidate is one eligible file discovered under the source directory.
type candidate struct {
	path      string // absolute path
	mediaType mediatypes.MediaType
}

// enumerate recursively globs the source directory for import candidates.
// Hidden files and directories (any dot-prefixed path segment) are
// excluded; files with unrecognized extensions are skipped silently and
// never count toward the batch.
func enumerate(sourceDir string) ([]candidate, error) {
	matches, err := doublestar.Glob(os.DirFS(sourceDir), "**/*", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", sourceDir, err)
	}

	candidates := make([]candidate, 0, len(matches))
	for _, rel := range matches {
		if hasHiddenComponent(rel) {
			continue
		}
		mt := mediatypes.Classify(strings.ToLower(filepath.Ext(rel)))
		if mt == mediatypes.MediaTypeIgnored {
			continue
		}
		candidates = append(candidates, candidate{
			path:      filepath.Join(sourceDir, filepath.FromSlash(rel)),
			mediaType: mt,
		})
	}
	return candidates, nil
}

// hasHiddenComponent reports whether any segment of a slash-separated
// relative path starts with a dot.
func hasHiddenComponent(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
