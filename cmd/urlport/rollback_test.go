package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urlport/urlport/internal/backup"
)

// TestNewRollbackCmd tests the rollback command creation.
func TestNewRollbackCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRollbackCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "rollback [project-dir]" {
			t.Errorf("expected use 'rollback [project-dir]', got %q", cmd.Use)
		}
	})

	for _, name := range []string{"run-id", "manifest", "files", "backup-dir"} {
		name := name
		t.Run("has "+name+" flag", func(t *testing.T) {
			t.Parallel()
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		})
	}
}

// TestRunRollbackCmd restores a file from an explicit manifest.
func TestRunRollbackCmd(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	backupDir := t.TempDir()
	original := `<?php $a = 'https://example.com/a'; ?>`
	path := filepath.Join(root, "index.php")
	if err := os.WriteFile(path, []byte(original), 0600); err != nil {
		t.Fatal(err)
	}

	mgr := backup.NewManager(root, backupDir, nil)
	if _, err := mgr.Create("run-cli", []string{"index.php"}); err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	// Simulate a migration gone wrong.
	if err := os.WriteFile(path, []byte("broken"), 0600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	cmd := NewRollbackCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{root,
		"--manifest", mgr.ManifestPath("run-cli"),
		"--backup-dir", backupDir,
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != original {
		t.Errorf("file not restored:\n got %q\nwant %q", got, original)
	}
	if !strings.Contains(buf.String(), "index.php") {
		t.Errorf("expected restored file in output, got %q", buf.String())
	}
}

// TestRunRollbackCmdMissingManifest verifies the error path for a
// manifest that does not exist.
func TestRunRollbackCmdMissingManifest(t *testing.T) {
	t.Parallel()

	cmd := NewRollbackCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{t.TempDir(),
		"--manifest", filepath.Join(t.TempDir(), "missing.json"),
	})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for missing manifest")
	}
}
