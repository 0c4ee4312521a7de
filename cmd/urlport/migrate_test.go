package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewMigrateCmd tests the migrate command creation.
func TestNewMigrateCmd(t *testing.T) {
	t.Parallel()

	cmd := NewMigrateCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "migrate [project-dir]" {
			t.Errorf("expected use 'migrate [project-dir]', got %q", cmd.Use)
		}
	})

	t.Run("has dry-run flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("dry-run")
		if flag == nil {
			t.Fatal("expected dry-run flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has yes flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("yes")
		if flag == nil {
			t.Fatal("expected yes flag")
		}
		if flag.Shorthand != "y" {
			t.Errorf("expected shorthand 'y', got %q", flag.Shorthand)
		}
	})

	t.Run("has backup-dir flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("backup-dir") == nil {
			t.Error("expected backup-dir flag")
		}
	})

	t.Run("shares analysis flags with scan", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"domain", "whitelist", "types", "deep", "format", "workers", "config", "json", "output"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

// TestRunMigrateCmdDryRun verifies that a dry run reports planned
// changes without touching any file.
func TestRunMigrateCmdDryRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	content := `<?php $a = 'https://example.com/a'; ?>`
	if err := os.WriteFile(filepath.Join(root, "index.php"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	cmd := NewMigrateCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{root, "-d", "example.com", "--dry-run", "--backup-dir", t.TempDir()})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("migrate --dry-run failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Planned 1 change(s) in 1 file(s)") {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "Dry run: nothing written.") {
		t.Errorf("expected dry-run notice in output: %q", out)
	}

	got, err := os.ReadFile(filepath.Join(root, "index.php"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Error("dry run modified a source file")
	}
}

// TestRunMigrateCmdDeclined verifies that answering "n" at the prompt
// aborts before anything is written.
func TestRunMigrateCmdDeclined(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	content := `<?php $a = 'https://example.com/a'; ?>`
	if err := os.WriteFile(filepath.Join(root, "index.php"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	backupDir := t.TempDir()
	var buf bytes.Buffer
	cmd := NewMigrateCmd()
	cmd.SetOut(&buf)
	cmd.SetIn(strings.NewReader("n\n"))
	cmd.SetArgs([]string{root, "-d", "example.com", "--backup-dir", backupDir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	if !strings.Contains(buf.String(), "Aborted.") {
		t.Errorf("expected abort notice, got %q", buf.String())
	}

	got, err := os.ReadFile(filepath.Join(root, "index.php"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Error("declined migration modified a source file")
	}

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("declined migration created backups: %v", entries)
	}
}

// TestRunMigrateCmdNothingToDo verifies the clean-tree path.
func TestRunMigrateCmdNothingToDo(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.php"), []byte(`<?php echo 'hi'; ?>`), 0600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	cmd := NewMigrateCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{root, "-d", "example.com", "--backup-dir", t.TempDir()})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Nothing to migrate.") {
		t.Errorf("expected nothing-to-migrate notice, got %q", buf.String())
	}
}
