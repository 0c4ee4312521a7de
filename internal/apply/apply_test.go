package apply

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/urlport/urlport/internal/model"
)

// newTree writes a project tree and returns its root.
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

// coveringManifest builds a manifest entry per file so the coverage
// precondition passes. Checksums are not needed for apply itself.
func coveringManifest(files ...string) *model.BackupManifest {
	m := &model.BackupManifest{RunID: "run-test"}
	for _, f := range files {
		m.Entries = append(m.Entries, model.BackupEntry{Path: f})
	}
	return m
}

// change builds a record replacing old with new at the given offset.
func change(path string, start int, old, repl string) model.ChangeRecord {
	return model.ChangeRecord{
		Path:        path,
		Start:       start,
		End:         start + len(old),
		Original:    old,
		Replacement: repl,
		Source:      model.Candidate{Path: path, Start: start, End: start + len(old), Line: 1},
	}
}

// TestApplySingleChange verifies the basic splice and the report
// entry it produces.
func TestApplySingleChange(t *testing.T) {
	t.Parallel()

	content := `<?php $url = 'https://example.com/about.php'; ?>`
	root := newTree(t, map[string]string{"index.php": content})
	e := New(root, nil)

	old := "https://example.com/about.php"
	start := 14
	records := []model.ChangeRecord{
		change("index.php", start, old, "BASE_URL . '/about.php'"),
	}

	result, err := e.Apply(context.Background(), records, coveringManifest("index.php"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(result.Applied) != 1 {
		t.Fatalf("expected 1 applied change, got %d", len(result.Applied))
	}
	if len(result.FailedFiles) != 0 {
		t.Fatalf("unexpected failures: %+v", result.FailedFiles)
	}

	written, err := os.ReadFile(filepath.Join(root, "index.php"))
	if err != nil {
		t.Fatal(err)
	}
	want := `<?php $url = 'BASE_URL . '/about.php''; ?>`
	if string(written) != want {
		t.Errorf("written content = %q, want %q", written, want)
	}
}

// TestApplyMultipleChangesOneFile verifies that length-changing
// replacements do not invalidate later offsets.
func TestApplyMultipleChangesOneFile(t *testing.T) {
	t.Parallel()

	content := "a='https://example.com/x';b='https://example.com/longer/path';"
	root := newTree(t, map[string]string{"f.php": content})
	e := New(root, nil)

	records := []model.ChangeRecord{
		change("f.php", 3, "https://example.com/x", "U('/x')"),
		change("f.php", 29, "https://example.com/longer/path", "U('/longer/path')"),
	}

	result, err := e.Apply(context.Background(), records, coveringManifest("f.php"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(result.Applied) != 2 {
		t.Fatalf("expected 2 applied changes, got %d", len(result.Applied))
	}

	written, err := os.ReadFile(filepath.Join(root, "f.php"))
	if err != nil {
		t.Fatal(err)
	}
	want := "a='U('/x')';b='U('/longer/path')';"
	if string(written) != want {
		t.Errorf("written content = %q, want %q", written, want)
	}
}

// TestApplyPreconditions walks the whole-call failure modes.
func TestApplyPreconditions(t *testing.T) {
	t.Parallel()

	t.Run("nil manifest", func(t *testing.T) {
		t.Parallel()

		e := New(t.TempDir(), nil)
		_, err := e.Apply(context.Background(), nil, nil)
		if !errors.Is(err, ErrNoManifest) {
			t.Errorf("expected ErrNoManifest, got %v", err)
		}
	})

	t.Run("overlapping records", func(t *testing.T) {
		t.Parallel()

		root := newTree(t, map[string]string{"f.php": "0123456789"})
		e := New(root, nil)
		records := []model.ChangeRecord{
			change("f.php", 0, "01234", "x"),
			change("f.php", 4, "456", "y"),
		}

		_, err := e.Apply(context.Background(), records, coveringManifest("f.php"))
		if !errors.Is(err, ErrOverlappingChanges) {
			t.Errorf("expected ErrOverlappingChanges, got %v", err)
		}
	})

	t.Run("manifest coverage gap", func(t *testing.T) {
		t.Parallel()

		root := newTree(t, map[string]string{"f.php": "0123456789"})
		e := New(root, nil)
		records := []model.ChangeRecord{change("f.php", 0, "01", "x")}

		_, err := e.Apply(context.Background(), records, coveringManifest("other.php"))
		if !errors.Is(err, ErrManifestCoverage) {
			t.Errorf("expected ErrManifestCoverage, got %v", err)
		}
	})
}

// TestApplyContentDrift verifies per-file failure isolation when a
// file changed between planning and apply.
func TestApplyContentDrift(t *testing.T) {
	t.Parallel()

	root := newTree(t, map[string]string{
		"drifted.php": "CHANGED content since planning",
		"good.php":    "x='https://example.com/ok';",
	})
	e := New(root, nil)

	records := []model.ChangeRecord{
		change("drifted.php", 0, "original text", "replacement"),
		change("good.php", 3, "https://example.com/ok", "U('/ok')"),
	}

	result, err := e.Apply(context.Background(), records, coveringManifest("drifted.php", "good.php"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if len(result.FailedFiles) != 1 || result.FailedFiles[0].Path != "drifted.php" {
		t.Fatalf("expected drifted.php to fail, got %+v", result.FailedFiles)
	}
	if len(result.Applied) != 1 || result.Applied[0].Path != "good.php" {
		t.Fatalf("expected good.php to be applied, got %+v", result.Applied)
	}

	// The drifted file must be untouched.
	data, err := os.ReadFile(filepath.Join(root, "drifted.php"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "CHANGED content since planning" {
		t.Errorf("drifted file was modified: %q", data)
	}
}

// TestApplyCancellation verifies that cancellation stops before the
// next file and reports the unreached tail.
func TestApplyCancellation(t *testing.T) {
	t.Parallel()

	root := newTree(t, map[string]string{
		"a.php": "x='https://example.com/a';",
		"b.php": "x='https://example.com/b';",
	})
	e := New(root, nil)

	records := []model.ChangeRecord{
		change("a.php", 3, "https://example.com/a", "U('/a')"),
		change("b.php", 3, "https://example.com/b", "U('/b')"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before the first file

	result, err := e.Apply(ctx, records, coveringManifest("a.php", "b.php"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(result.Applied) != 0 {
		t.Errorf("expected no applied changes, got %d", len(result.Applied))
	}
	if len(result.Unreached) != 2 {
		t.Fatalf("expected 2 unreached files, got %v", result.Unreached)
	}

	// Neither file may have been modified.
	for _, f := range []string{"a.php", "b.php"} {
		data, err := os.ReadFile(filepath.Join(root, f))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "x='https://example.com/"+f[:1]+"';" {
			t.Errorf("%s was modified: %q", f, data)
		}
	}
}

// TestApplyPreservesPermissions verifies the atomic write keeps the
// original mode bits.
func TestApplyPreservesPermissions(t *testing.T) {
	t.Parallel()

	root := newTree(t, map[string]string{"f.php": "x='https://example.com/a';"})
	abs := filepath.Join(root, "f.php")
	if err := os.Chmod(abs, 0640); err != nil {
		t.Fatal(err)
	}
	e := New(root, nil)

	records := []model.ChangeRecord{change("f.php", 3, "https://example.com/a", "U('/a')")}
	if _, err := e.Apply(context.Background(), records, coveringManifest("f.php")); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}
}

// TestVerifySpans covers the post-condition check in isolation:
// every replacement must occupy its drift-adjusted span in the bytes
// read back from disk.
func TestVerifySpans(t *testing.T) {
	t.Parallel()

	// "xx AAAA yy BBBB zz" with AAAA -> LONGER1 (+3 bytes) and
	// BBBB -> C (-3 bytes).
	records := []model.ChangeRecord{
		change("f.php", 3, "AAAA", "LONGER1"),
		change("f.php", 11, "BBBB", "C"),
	}

	t.Run("all spans match", func(t *testing.T) {
		t.Parallel()

		applied, err := verifySpans("f.php", []byte("xx LONGER1 yy C zz"), records)
		if err != nil {
			t.Fatalf("verifySpans failed: %v", err)
		}
		if len(applied) != 2 {
			t.Fatalf("applied = %+v, want 2 entries", applied)
		}
		if applied[0].Start != 3 || applied[0].Replacement != "LONGER1" {
			t.Errorf("applied[0] = %+v", applied[0])
		}
		if applied[1].Start != 11 || applied[1].Replacement != "C" {
			t.Errorf("applied[1] = %+v", applied[1])
		}
	})

	t.Run("mismatched bytes", func(t *testing.T) {
		t.Parallel()

		_, err := verifySpans("f.php", []byte("xx LONGERX yy C zz"), records)
		if !errors.Is(err, ErrPostCondition) {
			t.Fatalf("err = %v, want ErrPostCondition", err)
		}
	})

	t.Run("later span mismatched", func(t *testing.T) {
		t.Parallel()

		_, err := verifySpans("f.php", []byte("xx LONGER1 yy X zz"), records)
		if !errors.Is(err, ErrPostCondition) {
			t.Fatalf("err = %v, want ErrPostCondition", err)
		}
	})

	t.Run("truncated content", func(t *testing.T) {
		t.Parallel()

		_, err := verifySpans("f.php", []byte("xx LON"), records)
		if !errors.Is(err, ErrPostCondition) {
			t.Fatalf("err = %v, want ErrPostCondition", err)
		}
	})
}
