package config

// SiteConfig holds the settings for one site, keyed by host name in the
// configuration file.
type SiteConfig struct {
	// Keyword is the default focus keyword for documents of this site.
	Keyword string `yaml:"keyword,omitempty"`

	// Backend is the REST base URL for this site's overrides.
	Backend string `yaml:"backend,omitempty"`

	// Workers overrides the link verifier concurrency for this site.
	// If zero, the global value is used.
	Workers int `yaml:"workers,omitempty"`

	// LinkExcludes are URL path patterns the link verifier skips.
	// Site patterns are added to the default patterns, not substituted.
	LinkExcludes []string `yaml:"linkExcludes,omitempty"`
}

// File represents the structure of the .seocheck configuration file.
type File struct {
	// Sites maps host names (e.g. "example.com") to site settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to every site unless the site overrides it.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host, merged with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.LinkExcludes = append([]string(nil), cf.Defaults.LinkExcludes...)

	siteConfig, ok := cf.Sites[NormalizeHost(host)]
	if !ok {
		return result
	}

	if siteConfig.Keyword != "" {
		result.Keyword = siteConfig.Keyword
	}
	if siteConfig.Backend != "" {
		result.Backend = siteConfig.Backend
	}
	if siteConfig.Workers != 0 {
		result.Workers = siteConfig.Workers
	}
	result.LinkExcludes = append(result.LinkExcludes, siteConfig.LinkExcludes...)

	return result
}
