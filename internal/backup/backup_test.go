package backup

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// newTree writes a small project tree and returns its root.
func newTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(abs), 0750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// TestManagerCreate verifies archive creation, manifest content, and
// the post-create self-check.
func TestManagerCreate(t *testing.T) {
	t.Parallel()

	root := newTree(t, map[string]string{
		"index.php":   "<?php echo 'https://example.com'; ?>",
		"sub/inc.php": "<?php // include ?>",
	})
	backupDir := t.TempDir()
	m := NewManager(root, backupDir, nil)

	manifest, err := m.Create("run-1", []string{"index.php", "sub/inc.php"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if manifest.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", manifest.RunID)
	}
	if len(manifest.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(manifest.Entries))
	}
	for _, e := range manifest.Entries {
		if e.Checksum == "" {
			t.Errorf("entry %s has empty checksum", e.Path)
		}
		if e.Size <= 0 {
			t.Errorf("entry %s has size %d", e.Path, e.Size)
		}
	}
	if _, err := os.Stat(m.ArchivePath("run-1")); err != nil {
		t.Errorf("archive missing: %v", err)
	}
	if _, err := os.Stat(m.ManifestPath("run-1")); err != nil {
		t.Errorf("manifest missing: %v", err)
	}

	// The returned manifest must be the re-read, verified one.
	if err := Verify(manifest); err != nil {
		t.Errorf("Verify on returned manifest failed: %v", err)
	}
}

// TestManagerCreateEmpty verifies the no-files guard.
func TestManagerCreateEmpty(t *testing.T) {
	t.Parallel()

	m := NewManager(t.TempDir(), t.TempDir(), nil)
	if _, err := m.Create("run-1", nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("expected ErrNoFiles, got %v", err)
	}
}

// TestManagerCreateMissingSource verifies that a missing source file
// fails the backup.
func TestManagerCreateMissingSource(t *testing.T) {
	t.Parallel()

	m := NewManager(t.TempDir(), t.TempDir(), nil)
	if _, err := m.Create("run-1", []string{"ghost.php"}); err == nil {
		t.Error("expected error for missing source file")
	}
}

// TestVerifyCorruptArchive verifies that tampering is detected.
func TestVerifyCorruptArchive(t *testing.T) {
	t.Parallel()

	root := newTree(t, map[string]string{"index.php": "original content"})
	backupDir := t.TempDir()
	m := NewManager(root, backupDir, nil)

	manifest, err := m.Create("run-1", []string{"index.php"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Rewrite the archive with different bytes under the same entry
	// name.
	archive := m.ArchivePath("run-1")
	if err := os.Remove(archive); err != nil {
		t.Fatal(err)
	}
	out, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(out)
	w, err := zw.Create("index.php")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("tampered content!")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	if err := Verify(manifest); !errors.Is(err, ErrBackupIntegrity) {
		t.Errorf("expected ErrBackupIntegrity, got %v", err)
	}
	if _, err := ExtractEntry(manifest, &manifest.Entries[0]); err == nil {
		t.Error("expected ExtractEntry to reject corrupt data")
	}
}

// TestExtractEntry verifies round-tripping bytes through the archive.
func TestExtractEntry(t *testing.T) {
	t.Parallel()

	content := "<?php echo 'hello'; ?>"
	root := newTree(t, map[string]string{"index.php": content})
	m := NewManager(root, t.TempDir(), nil)

	manifest, err := m.Create("run-1", []string{"index.php"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	data, err := ExtractEntry(manifest, &manifest.Entries[0])
	if err != nil {
		t.Fatalf("ExtractEntry failed: %v", err)
	}
	if string(data) != content {
		t.Errorf("extracted %q, want %q", data, content)
	}
}

// TestFileChecksum verifies the digest helper.
func TestFileChecksum(t *testing.T) {
	t.Parallel()

	root := newTree(t, map[string]string{"a.txt": "abc"})

	sum, size, err := FileChecksum(filepath.Join(root, "a.txt"))
	if err != nil {
		t.Fatalf("FileChecksum failed: %v", err)
	}
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if sum != want {
		t.Errorf("sum = %q, want %q", sum, want)
	}
	if size != 3 {
		t.Errorf("size = %d, want 3", size)
	}
}

// TestArchiveNotOverwritten verifies that an existing archive for the
// same run id is never clobbered.
func TestArchiveNotOverwritten(t *testing.T) {
	t.Parallel()

	root := newTree(t, map[string]string{"index.php": "x"})
	backupDir := t.TempDir()
	m := NewManager(root, backupDir, nil)

	if _, err := m.Create("run-1", []string{"index.php"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := m.Create("run-1", []string{"index.php"}); err == nil {
		t.Error("expected second Create with the same run id to fail")
	}
}
