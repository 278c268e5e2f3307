// Package config provides configuration structures and utilities for
// seocheck: defaults, validation, and the per-site YAML configuration file.
package config
