package rollback

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/urlport/urlport/internal/backup"
	"github.com/urlport/urlport/internal/model"
)

// ErrNotInManifest is returned by a selective rollback when a
// requested path has no manifest entry: the file was never part of
// the run being rolled back, so restoring it is impossible.
var ErrNotInManifest = errors.New("requested file is not in the manifest")

// Manager restores files from backup manifests. The caller must hold
// the run lock (backup.AcquireLock) so a rollback never overlaps an
// in-progress apply or another rollback on the same files.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager creates a rollback Manager for the given project root.
func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{root: root, logger: logger}
}

// Full restores every file listed in the manifest. Entries whose
// archive data is missing or checksum-mismatched are skipped and
// reported; the remaining files are still restored, so one corrupt
// entry never holds the rest of the tree hostage.
func (m *Manager) Full(manifest *model.BackupManifest) (*model.RollbackResult, error) {
	result := &model.RollbackResult{}
	for i := range manifest.Entries {
		m.restoreEntry(manifest, &manifest.Entries[i], result)
	}
	m.finish(result)
	return result, nil
}

// Selective restores only the named files (paths relative to root),
// leaving every other file untouched regardless of its current state.
// Requested paths absent from the manifest are reported failed with
// ErrNotInManifest; manifest entries not requested are listed as
// skipped.
func (m *Manager) Selective(manifest *model.BackupManifest, paths []string) (*model.RollbackResult, error) {
	requested := make(map[string]bool, len(paths))
	for _, p := range paths {
		requested[filepath.ToSlash(p)] = true
	}

	result := &model.RollbackResult{}
	for i := range manifest.Entries {
		entry := &manifest.Entries[i]
		if !requested[entry.Path] {
			result.Skipped = append(result.Skipped, entry.Path)
			continue
		}
		delete(requested, entry.Path)
		m.restoreEntry(manifest, entry, result)
	}

	// Anything left was requested but never backed up.
	for p := range requested {
		result.Failed = append(result.Failed, model.FileFailure{
			Path:   p,
			Phase:  "rollback",
			Reason: ErrNotInManifest.Error(),
		})
	}
	m.finish(result)
	return result, nil
}

// restoreEntry extracts, verifies, and writes one entry. Failures go
// into the result; they never propagate as errors because per-file
// isolation is the contract.
func (m *Manager) restoreEntry(manifest *model.BackupManifest, entry *model.BackupEntry, result *model.RollbackResult) {
	data, err := backup.ExtractEntry(manifest, entry)
	if err != nil {
		result.Failed = append(result.Failed, model.FileFailure{
			Path:   entry.Path,
			Phase:  "rollback",
			Reason: err.Error(),
		})
		return
	}

	abs := filepath.Join(m.root, entry.Path)
	if err := restoreAtomic(abs, data); err != nil {
		result.Failed = append(result.Failed, model.FileFailure{
			Path:   entry.Path,
			Phase:  "rollback",
			Reason: err.Error(),
		})
		return
	}

	// Confirm the restored bytes round-trip to the manifest checksum.
	sum, _, err := backup.FileChecksum(abs)
	if err != nil || sum != entry.Checksum {
		result.Failed = append(result.Failed, model.FileFailure{
			Path:   entry.Path,
			Phase:  "rollback",
			Reason: "restored file failed checksum re-verification",
		})
		return
	}

	result.Restored = append(result.Restored, entry.Path)
}

// finish sorts the result lists into canonical order and logs a
// summary.
func (m *Manager) finish(result *model.RollbackResult) {
	sort.Strings(result.Restored)
	sort.Strings(result.Skipped)
	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].Path < result.Failed[j].Path
	})
	m.logger.Info("rollback finished",
		"restored", len(result.Restored),
		"failed", len(result.Failed),
		"skipped", len(result.Skipped),
	)
}

// restoreAtomic writes data over path via temp-file-then-rename,
// creating parent directories if the file was deleted after the
// migration. Permission bits of an existing file are preserved;
// recreated files get 0644.
func restoreAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".urlport-restore-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename over original: %w", err)
	}
	return nil
}
