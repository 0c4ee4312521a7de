// Package config provides configuration structures and utilities for
// urlport. It defines the migration options (domains, whitelist,
// replacement templates, file types) and the persisted project
// configuration file.
package config
