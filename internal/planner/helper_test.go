package planner

import (
	"os"
	"path/filepath"
	"testing"
)

// writeBootstrap writes a bootstrap file under root.
func writeBootstrap(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

// TestDetectHelper verifies pattern recognition and priority.
func TestDetectHelper(t *testing.T) {
	t.Parallel()

	t.Run("detects BASE_URL constant", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeBootstrap(t, root, "config.php",
			"<?php\ndefine('BASE_URL', 'https://example.com');\n")

		det := DetectHelper(root, []string{"config.php"})
		if det == nil {
			t.Fatal("expected a detection")
		}
		if got := det.Template.Resolve("/a"); got != "BASE_URL . '/a'" {
			t.Errorf("Resolve = %q", got)
		}
		if det.File != "config.php" {
			t.Errorf("File = %q, want config.php", det.File)
		}
		if det.Example != "define('BASE_URL', 'https://example.com');" {
			t.Errorf("Example = %q", det.Example)
		}
	})

	t.Run("detects helper function", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeBootstrap(t, root, "config.php",
			"<?php\nfunction safe_url($p) { return BASE_URL . $p; }\n")

		det := DetectHelper(root, []string{"config.php"})
		if det == nil {
			t.Fatal("expected a detection")
		}
		if got := det.Template.Resolve("/a"); got != "safe_url('/a')" {
			t.Errorf("Resolve = %q", got)
		}
	})

	t.Run("constant outranks helper function in the same file", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeBootstrap(t, root, "config.php",
			"<?php\nfunction safe_url($p) { return BASE_URL . $p; }\ndefine('BASE_URL', 'https://example.com');\n")

		det := DetectHelper(root, []string{"config.php"})
		if det == nil {
			t.Fatal("expected a detection")
		}
		if got := det.Template.Resolve("/a"); got != "BASE_URL . '/a'" {
			t.Errorf("expected the constant to win, Resolve = %q", got)
		}
	})

	t.Run("higher priority in a later file wins", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeBootstrap(t, root, "header.php",
			"<?php\nfunction asset_url($p) { return $p; }\n")
		writeBootstrap(t, root, "config.php",
			"<?php\n$base_url = 'https://example.com';\n")

		det := DetectHelper(root, []string{"header.php", "config.php"})
		if det == nil {
			t.Fatal("expected a detection")
		}
		if got := det.Template.Resolve("/a"); got != "BASE_URL . '/a'" {
			t.Errorf("expected $base_url declaration to win, Resolve = %q", got)
		}
		if det.File != "config.php" {
			t.Errorf("File = %q, want config.php", det.File)
		}
	})

	t.Run("missing bootstrap files yield nil", func(t *testing.T) {
		t.Parallel()

		if det := DetectHelper(t.TempDir(), []string{"config.php", "header.php"}); det != nil {
			t.Errorf("expected nil detection, got %+v", det)
		}
	})
}

// TestDetectDomains verifies domain extraction from base-URL
// declarations.
func TestDetectDomains(t *testing.T) {
	t.Parallel()

	t.Run("extracts and deduplicates", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeBootstrap(t, root, "config.php",
			"<?php\ndefine('BASE_URL', 'https://example.com/');\ndefine('SITE_URL', 'https://Example.com');\n")
		writeBootstrap(t, root, "header.php",
			"<?php\n$base_url = 'http://shop.example.com';\n")

		domains := DetectDomains(root, []string{"config.php", "header.php"})
		want := []string{"example.com", "shop.example.com"}

		if len(domains) != len(want) {
			t.Fatalf("domains = %v, want %v", domains, want)
		}
		for i := range want {
			if domains[i] != want[i] {
				t.Errorf("domains[%d] = %q, want %q", i, domains[i], want[i])
			}
		}
	})

	t.Run("no declarations", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeBootstrap(t, root, "config.php", "<?php // nothing here\n")

		if domains := DetectDomains(root, []string{"config.php"}); len(domains) != 0 {
			t.Errorf("expected no domains, got %v", domains)
		}
	})
}
