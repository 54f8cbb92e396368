package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// SiteConfig holds overrides for a single host. Sites behind consent
// dialogs or heavy client-side rendering need per-host tuning that the
// global flags cannot express.
type SiteConfig struct {
	// ConsentSelector is a CSS selector for a cookie/consent button
	// clicked (best effort) before the audit runs. Empty means no
	// dismissal attempt.
	ConsentSelector string `yaml:"consentSelector,omitempty"`

	// SettleDelay overrides how long to wait after navigation before
	// auditing. Zero means use the default.
	SettleDelay time.Duration `yaml:"settleDelay,omitempty"`

	// AuditScript overrides the audit bundle path for this host.
	AuditScript string `yaml:"auditScript,omitempty"`
}

// UnmarshalYAML decodes a SiteConfig, accepting Go duration strings
// (for example "5s") for settleDelay.
func (sc *SiteConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		ConsentSelector string `yaml:"consentSelector"`
		SettleDelay     string `yaml:"settleDelay"`
		AuditScript     string `yaml:"auditScript"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	sc.ConsentSelector = raw.ConsentSelector
	sc.AuditScript = raw.AuditScript

	if raw.SettleDelay != "" {
		d, err := time.ParseDuration(raw.SettleDelay)
		if err != nil {
			return fmt.Errorf("invalid settleDelay %q: %w", raw.SettleDelay, err)
		}
		sc.SettleDelay = d
	}
	return nil
}

// File represents the structure of the .a11yscan configuration file.
type File struct {
	// Sites maps hostnames to their overrides. Keys are bare hosts
	// (for example "www.example.org").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults is applied to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a host, merging the
// site-specific entry over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if site, ok := cf.Sites[host]; ok {
		if site.ConsentSelector != "" {
			result.ConsentSelector = site.ConsentSelector
		}
		if site.SettleDelay != 0 {
			result.SettleDelay = site.SettleDelay
		}
		if site.AuditScript != "" {
			result.AuditScript = site.AuditScript
		}
	}

	return result
}
