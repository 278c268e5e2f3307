package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".seocheck"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads site configurations from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
//
// Site keys may be written as host names or as site URLs
// ("https://Example.com/blog/"); they are stored under NormalizeHost of
// the key. Two keys naming the same host are rejected with
// ErrDuplicateSite, and a negative workers value with ErrInvalidWorkers.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Defaults.Workers < 0 {
		return nil, fmt.Errorf("defaults: %w", ErrInvalidWorkers)
	}

	sites, err := normalizeSites(cf.Sites)
	if err != nil {
		return nil, err
	}
	cf.Sites = sites

	return &cf, nil
}

// NormalizeHost reduces a site key or page host to the form used for
// lookups: lower case, without scheme, port, path or trailing dot.
// It returns "" when raw names no host.
func NormalizeHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "//" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}

func normalizeSites(in map[string]SiteConfig) (map[string]SiteConfig, error) {
	out := make(map[string]SiteConfig, len(in))
	for key, site := range in {
		host := NormalizeHost(key)
		if host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSiteKey, key)
		}
		if _, dup := out[host]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSite, host)
		}
		if site.Workers < 0 {
			return nil, fmt.Errorf("site %s: %w", host, ErrInvalidWorkers)
		}
		out[host] = site
	}
	return out, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .seocheck in the current directory
// 3. Look for .seocheck in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
