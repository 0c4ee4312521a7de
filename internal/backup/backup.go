package backup

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/urlport/urlport/internal/model"
)

// Manager creates backups for migration runs. Each run gets a fresh
// archive and manifest named after its run id; prior manifests are
// never overwritten or deleted, so any past run stays restorable.
type Manager struct {
	root      string
	backupDir string
	logger    *slog.Logger
}

// NewManager creates a Manager snapshotting files under root into
// backupDir.
func NewManager(root, backupDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{root: root, backupDir: backupDir, logger: logger}
}

// ArchivePath returns the archive location for a run id.
func (m *Manager) ArchivePath(runID string) string {
	return filepath.Join(m.backupDir, fmt.Sprintf("backup_%s.zip", runID))
}

// ManifestPath returns the manifest location for a run id.
func (m *Manager) ManifestPath(runID string) string {
	return filepath.Join(m.backupDir, fmt.Sprintf("manifest_%s.json", runID))
}

// Create snapshots the given files (paths relative to root) into a
// new archive, writes the manifest, then re-reads both and verifies
// every checksum before reporting success. A failed self-check
// returns ErrBackupIntegrity and the run must abort before any apply.
func (m *Manager) Create(runID string, files []string) (*model.BackupManifest, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if err := os.MkdirAll(m.backupDir, 0750); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	archivePath := m.ArchivePath(runID)
	manifest := &model.BackupManifest{
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		Root:      m.root,
		Archive:   archivePath,
	}

	if err := m.writeArchive(archivePath, files, manifest); err != nil {
		return nil, err
	}

	manifestPath := m.ManifestPath(runID)
	if err := manifest.Save(manifestPath); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	// Self-check: re-read the manifest and the archive from disk and
	// verify every entry's checksum. Trusting in-memory state here
	// would let a short write or disk fault pass silently.
	reread, err := model.LoadManifest(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("re-read manifest: %w", err)
	}
	if err := Verify(reread); err != nil {
		return nil, err
	}

	m.logger.Info("backup created and verified",
		"run_id", runID,
		"files", len(files),
		"archive", archivePath,
	)
	return reread, nil
}

// writeArchive streams each file into the zip and records its
// checksum and size in the manifest.
func (m *Manager) writeArchive(archivePath string, files []string, manifest *model.BackupManifest) error {
	out, err := os.OpenFile(archivePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) //nolint:gosec // path is derived from a fresh run id
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(out)

	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(m.root, rel)) //nolint:gosec // file set comes from planned changes under root
		if err != nil {
			zw.Close()
			out.Close()
			return fmt.Errorf("read %s for backup: %w", rel, err)
		}

		sum := sha256.Sum256(data)
		w, err := zw.Create(rel)
		if err == nil {
			_, err = w.Write(data)
		}
		if err != nil {
			zw.Close()
			out.Close()
			return fmt.Errorf("archive %s: %w", rel, err)
		}

		manifest.Entries = append(manifest.Entries, model.BackupEntry{
			Path:       rel,
			Checksum:   hex.EncodeToString(sum[:]),
			Size:       int64(len(data)),
			ArchiveRef: rel,
		})
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize archive: %w", err)
	}
	return out.Close()
}

// Verify opens the manifest's archive and checks that every entry's
// bytes hash to the recorded checksum. It is used by the post-create
// self-check and again by rollback before restoring.
func Verify(manifest *model.BackupManifest) error {
	zr, err := zip.OpenReader(manifest.Archive)
	if err != nil {
		return fmt.Errorf("%w: open archive: %v", ErrBackupIntegrity, err)
	}
	defer zr.Close()

	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		byName[f.Name] = f
	}

	for _, entry := range manifest.Entries {
		f, ok := byName[entry.ArchiveRef]
		if !ok {
			return fmt.Errorf("%w: entry %s missing from archive", ErrBackupIntegrity, entry.Path)
		}
		sum, size, err := checksumArchiveFile(f)
		if err != nil {
			return fmt.Errorf("%w: read entry %s: %v", ErrBackupIntegrity, entry.Path, err)
		}
		if sum != entry.Checksum || size != entry.Size {
			return fmt.Errorf("%w: entry %s checksum mismatch", ErrBackupIntegrity, entry.Path)
		}
	}
	return nil
}

// ExtractEntry reads one archive entry's bytes and verifies them
// against the manifest entry before returning. Rollback uses this so
// corrupt data never reaches the tree.
func ExtractEntry(manifest *model.BackupManifest, entry *model.BackupEntry) ([]byte, error) {
	zr, err := zip.OpenReader(manifest.Archive)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != entry.ArchiveRef {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != entry.Checksum {
			return nil, fmt.Errorf("entry %s checksum mismatch", entry.Path)
		}
		return data, nil
	}
	return nil, fmt.Errorf("entry %s missing from archive", entry.Path)
}

// FileChecksum returns the SHA-256 hex digest and size of a file on
// disk. Shared by the apply post-condition and round-trip tests.
func FileChecksum(path string) (string, int64, error) {
	f, err := os.Open(path) //nolint:gosec // callers pass paths under the project root
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// checksumArchiveFile hashes one zip entry without loading it whole.
func checksumArchiveFile(f *zip.File) (string, int64, error) {
	rc, err := f.Open()
	if err != nil {
		return "", 0, err
	}
	defer rc.Close()

	h := sha256.New()
	n, err := io.Copy(h, rc)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
