package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default project configuration file name,
// searched in the project directory and then the user's home directory.
const DefaultConfigFile = ".urlport.yaml"

// ErrConfigNotFound is returned when the configuration file does not
// exist. Callers should handle this based on whether the path was
// explicitly specified by the user.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the persisted project configuration. It carries the
// migration rules plus bookkeeping about the most recent run so that
// "rollback the last migration" works without extra arguments.
type File struct {
	// InternalDomains are domains whose URLs get rewritten.
	InternalDomains []string `yaml:"internal_domains"`

	// LegacyDomains are additional old domains to convert.
	LegacyDomains []string `yaml:"legacy_domains,omitempty"`

	// ReplacementFormat is "auto", "base_url", "site_url",
	// "function:<name>", or "custom".
	ReplacementFormat string `yaml:"replacement_format,omitempty"`

	// CustomFormat is the template used with replacement_format:
	// custom. It must contain {path}.
	CustomFormat string `yaml:"custom_format,omitempty"`

	// EnabledFileTypes are the extensions eligible for scanning.
	EnabledFileTypes []string `yaml:"enabled_file_types,omitempty"`

	// ExternalWhitelist lists domains or exact URLs never rewritten.
	ExternalWhitelist []string `yaml:"external_whitelist,omitempty"`

	// DeepScanMode enables rewriting of unquoted occurrences.
	DeepScanMode bool `yaml:"deep_scan_mode,omitempty"`

	// IgnorePatterns are doublestar globs excluded from scanning.
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`

	// BootstrapFiles are inspected for helper patterns, relative to
	// the project root.
	BootstrapFiles []string `yaml:"bootstrap_files,omitempty"`

	// LastMigrationDate and LastMigrationBackup are bookkeeping
	// fields written back after each successful migration.
	LastMigrationDate   string `yaml:"last_migration_date,omitempty"`
	LastMigrationBackup string `yaml:"last_migration_backup,omitempty"`
}

// LoadFile loads a project configuration from a YAML file.
// If the file does not exist it returns ErrConfigNotFound.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Save writes the project configuration back to path. Used after a
// successful migration to persist the bookkeeping fields.
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Apply merges the file's settings into cfg. Empty file fields leave
// the corresponding Config defaults untouched.
func (f *File) Apply(cfg *Config) {
	if len(f.InternalDomains) > 0 {
		cfg.InternalDomains = f.InternalDomains
	}
	if len(f.LegacyDomains) > 0 {
		cfg.LegacyDomains = f.LegacyDomains
	}
	if f.ReplacementFormat != "" {
		cfg.ReplacementFormat = f.ReplacementFormat
	}
	if f.CustomFormat != "" {
		cfg.CustomFormat = f.CustomFormat
	}
	if len(f.EnabledFileTypes) > 0 {
		cfg.FileTypes = f.EnabledFileTypes
	}
	if len(f.ExternalWhitelist) > 0 {
		cfg.ExternalWhitelist = f.ExternalWhitelist
	}
	if f.DeepScanMode {
		cfg.DeepScan = true
	}
	if len(f.IgnorePatterns) > 0 {
		cfg.IgnorePatterns = f.IgnorePatterns
	}
	if len(f.BootstrapFiles) > 0 {
		cfg.BootstrapFiles = f.BootstrapFiles
	}
}

// FindConfigFile searches for the project configuration file:
//  1. If configPath is specified, use it directly.
//  2. Look for .urlport.yaml in the project directory.
//  3. Look for .urlport.yaml in the user's home directory.
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath, root string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if root != "" {
		rootConfig := filepath.Join(root, DefaultConfigFile)
		if _, err := os.Stat(rootConfig); err == nil {
			return rootConfig
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
