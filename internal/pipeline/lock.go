package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"photovault/internal/logging"
	"photovault/internal/vault"
)

// acquireImportLock takes the per-vault advisory import lock. The catalog
// has no cross-process locking of its own, so at most one import may run
// per vault at a time. A lock left behind by a crashed process must be
// removed manually; the error message names the file.
func acquireImportLock(metaDir string) (release func(), err error) {
	lockPath := filepath.Join(metaDir, vault.LockFile)

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("another import is in progress for this vault (or remove stale lock %s)", lockPath)
		}
		return nil, fmt.Errorf("failed to acquire import lock: %w", err)
	}

	fmt.Fprintf(f, "%d\n", os.Getpid())
	if err := f.Close(); err != nil {
		logging.Warn("failed to close lock file: %v", err)
	}

	return func() {
		if err := os.Remove(lockPath); err != nil {
			logging.Warn("failed to release import lock %s: %v", lockPath, err)
		}
	}, nil
}
