package model

import (
	"encoding/json"
	"os"
	"sort"
	"time"
)

// BackupEntry records one backed-up file: its path relative to the
// scanned root, the SHA-256 checksum of its pre-migration bytes, its
// size, and the name of the entry inside the backup archive.
type BackupEntry struct {
	Path string `json:"path"`

	// Checksum is the lowercase hex SHA-256 of the file's bytes at
	// backup time. Rollback refuses to restore an archive entry whose
	// extracted bytes do not hash to this value.
	Checksum string `json:"checksum"`

	// Size is the file size in bytes at backup time.
	Size int64 `json:"size"`

	// ArchiveRef is the entry name inside the backup archive.
	ArchiveRef string `json:"archive_reference"`
}

// BackupManifest maps every file touched by a migration run to its
// archived, checksummed snapshot. A manifest is created once per run,
// is immutable after creation, and is never auto-deleted: any past
// run can be rolled back from its manifest.
type BackupManifest struct {
	// RunID uniquely identifies the migration run (UUID).
	RunID string `json:"run_id"`

	// CreatedAt is the manifest creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// Root is the absolute path of the scanned project directory.
	Root string `json:"root"`

	// Archive is the absolute path of the backup archive (zip).
	Archive string `json:"archive"`

	// Entries lists every backed-up file, sorted by path.
	Entries []BackupEntry `json:"entries"`
}

// Entry returns the entry for the given relative path, or nil if the
// manifest does not cover that file.
func (m *BackupManifest) Entry(path string) *BackupEntry {
	for i := range m.Entries {
		if m.Entries[i].Path == path {
			return &m.Entries[i]
		}
	}
	return nil
}

// Covers reports whether every path in the given list has a manifest
// entry. The apply engine refuses to write any file the manifest does
// not cover.
func (m *BackupManifest) Covers(paths []string) bool {
	for _, p := range paths {
		if m.Entry(p) == nil {
			return false
		}
	}
	return true
}

// Save writes the manifest as indented JSON. Entries are sorted by
// path first so that manifests for identical change sets are
// byte-identical aside from run id and timestamp.
func (m *BackupManifest) Save(path string) error {
	sort.Slice(m.Entries, func(i, j int) bool {
		return m.Entries[i].Path < m.Entries[j].Path
	})
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}

// LoadManifest reads a manifest previously written by Save.
func LoadManifest(path string) (*BackupManifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided manifest path is intentional
	if err != nil {
		return nil, err
	}
	var m BackupManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
