package config

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Default configuration values. These mirror the historical defaults
// of the migration workflow and can all be overridden per project.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "urlport"

	// DefaultWorkers is the number of files analyzed concurrently.
	// Scanning is CPU-light and I/O-bound, so a moderate fixed pool
	// beats spawning one goroutine per file on large trees.
	DefaultWorkers = 8

	// DefaultFormat is the replacement format used when none is
	// configured. "auto" asks the helper-pattern detector to pick a
	// template from the project's bootstrap files, falling back to
	// plain base-URL concatenation.
	DefaultFormat = "auto"

	// FormatBaseURL, FormatCustom, and FormatFunctionPrefix are the
	// recognized replacement_format values. Function formats are
	// written "function:<name>", e.g. "function:safe_url".
	FormatBaseURL        = "base_url"
	FormatCustom         = "custom"
	FormatFunctionPrefix = "function:"

	// PathPlaceholder is the token a custom format must contain;
	// it is substituted with the URL's path, query, and fragment.
	PathPlaceholder = "{path}"
)

// DefaultFileTypes are the extensions scanned when the project
// configuration does not set enabled_file_types.
var DefaultFileTypes = []string{".php", ".html", ".js", ".css", ".sql"}

// DefaultIgnorePatterns are glob patterns (doublestar syntax) for
// paths excluded from scanning. Dot-directories are excluded by the
// walker independently of these patterns.
var DefaultIgnorePatterns = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/*.min.js",
	"**/*.min.css",
}

// DefaultBootstrapFiles are the designated files the helper-pattern
// detector inspects, relative to the project root. Only files that
// exist are read.
var DefaultBootstrapFiles = []string{
	"config.php",
	"includes/config.php",
	"header.php",
	"includes/header.php",
}

// Config holds all options for one migration run. It is assembled by
// the caller (CLI flags merged with the project configuration file),
// validated once, and then passed unchanged through every phase.
//
// Design decision: We use a single flat struct populated before any
// phase runs, passed by value semantics conceptually: no phase may
// mutate it. Determinism of the verification pass depends on this.
type Config struct {
	// Root is the project directory to scan and migrate.
	Root string

	// InternalDomains are domains whose URLs get rewritten.
	// A host matches if it equals a domain or is a subdomain of it.
	InternalDomains []string

	// LegacyDomains are additional old domains treated as internal.
	LegacyDomains []string

	// ExternalWhitelist holds domains or exact URLs that must be
	// preserved verbatim regardless of every other rule.
	ExternalWhitelist []string

	// FileTypes are the file extensions (with leading dot) eligible
	// for scanning.
	FileTypes []string

	// IgnorePatterns are doublestar globs excluded from the walk.
	IgnorePatterns []string

	// BootstrapFiles are the files inspected for helper patterns and
	// domain auto-detection, relative to Root.
	BootstrapFiles []string

	// ReplacementFormat selects the replacement template:
	// "auto", "base_url", "function:<name>", or "custom".
	ReplacementFormat string

	// CustomFormat is the template string used when ReplacementFormat
	// is "custom". It must contain the {path} placeholder.
	CustomFormat string

	// DeepScan enables rewriting of unquoted URL occurrences.
	// When false only quoted and attribute occurrences are planned.
	DeepScan bool

	// Workers is the concurrency limit for per-file analysis.
	Workers int

	// BackupDir is where archives and manifests are written.
	// Empty means the XDG data directory.
	BackupDir string

	// DBDir is the directory of the run-history database.
	// Empty means the XDG data directory.
	DBDir string

	// ConfigFilePath is the project configuration file in use, kept
	// so a successful migration can write bookkeeping fields back.
	ConfigFilePath string

	// ReportFile, JSONReport, and MarkdownReport select report
	// destination and format, mirroring the CLI flags.
	ReportFile     string
	JSONReport     bool
	MarkdownReport bool

	// Quiet suppresses progress output on stdout.
	Quiet bool

	// Verbose enables slog.LevelDebug logging.
	Verbose bool
}

// NewConfig creates a Config with default values. Callers override
// fields from CLI flags and the project configuration file, then call
// Validate before any phase runs.
func NewConfig() *Config {
	return &Config{
		FileTypes:         append([]string(nil), DefaultFileTypes...),
		IgnorePatterns:    append([]string(nil), DefaultIgnorePatterns...),
		BootstrapFiles:    append([]string(nil), DefaultBootstrapFiles...),
		ReplacementFormat: DefaultFormat,
		Workers:           DefaultWorkers,
	}
}

// XDGDataDir returns the XDG data directory for urlport, the default
// location for backup archives and the run-history database.
// On Linux: ~/.local/share/urlport
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// AllInternalDomains returns the internal and legacy domain lists
// combined, normalized to lowercase without scheme or trailing slash.
func (c *Config) AllInternalDomains() []string {
	out := make([]string, 0, len(c.InternalDomains)+len(c.LegacyDomains))
	for _, d := range c.InternalDomains {
		out = append(out, NormalizeDomain(d))
	}
	for _, d := range c.LegacyDomains {
		out = append(out, NormalizeDomain(d))
	}
	return out
}

// NormalizeDomain strips scheme, port, and trailing slashes from a
// domain string and lowercases it, so comparisons are case-insensitive
// and scheme-agnostic.
func NormalizeDomain(domain string) string {
	d := strings.TrimSpace(strings.ToLower(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimRight(d, "/")
	if host, _, ok := strings.Cut(d, ":"); ok {
		d = host
	}
	return d
}

// Validate checks the configuration and returns the first problem
// found. It is called once after flag and file merging, before any
// scanning begins, so later phases can treat the Config as trusted.
func (c *Config) Validate() error {
	if c.Root == "" {
		return ErrNoRoot
	}
	if len(c.AllInternalDomains()) == 0 {
		return ErrNoInternalDomains
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	switch {
	case c.ReplacementFormat == DefaultFormat,
		c.ReplacementFormat == FormatBaseURL,
		c.ReplacementFormat == "site_url":
	case strings.HasPrefix(c.ReplacementFormat, FormatFunctionPrefix):
		if c.ReplacementFormat == FormatFunctionPrefix {
			return ErrInvalidFormat
		}
	case c.ReplacementFormat == FormatCustom:
		if !strings.Contains(c.CustomFormat, PathPlaceholder) {
			return ErrCustomFormatPlaceholder
		}
	default:
		return ErrInvalidFormat
	}
	for _, ext := range c.FileTypes {
		if !strings.HasPrefix(ext, ".") {
			return ErrInvalidFileType
		}
	}
	return nil
}
