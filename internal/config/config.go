// Package config loads the settings for a ddnsync run.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// DefaultPath is read from the working directory when no other path is given.
const DefaultPath = "config.json"

// Config is the on-disk configuration.
//
// The historical layout was JSON:
//
//	{
//	  "zone": "example.com",
//	  "record": "host.example.com",
//	  "u": "https://api.cloudflare.com/client/v4",
//	  "headers": {"X-Auth-Key": "...", "X-Auth-Email": "..."}
//	}
//
// JSON is valid YAML, so both formats are read by the same parser.
type Config struct {
	Zone      string            `yaml:"zone"`
	Record    string            `yaml:"record"`
	BaseURL   string            `yaml:"u"`
	Headers   map[string]string `yaml:"headers"`
	Token     string            `yaml:"token"`
	TokenFile string            `yaml:"token_file"`
	TTL       int               `yaml:"ttl"`
	Sources   []string          `yaml:"sources"`
	WebURL    string            `yaml:"web_url"`
	Interface string            `yaml:"interface"`
	IP        string            `yaml:"ip"`
	CacheDir  string            `yaml:"cache_dir"`
	Cache     *bool             `yaml:"cache"`
}

// Source names accepted in Config.Sources.
const (
	SourceDig       = "dig"
	SourceDNS       = "dns"
	SourceWeb       = "web"
	SourceInterface = "interface"
)

// Load reads the configuration from the path in the DDNSYNC_CONFIG environment variable,
// defaulting to DefaultPath.
func Load() (*Config, error) {
	path := os.Getenv("DDNSYNC_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	return LoadFromPath(path)
}

// LoadFromPath reads, defaults and validates the configuration at path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Expand ${ENV_VAR} references so secrets can stay out of the file.
	cfg.Token = os.ExpandEnv(cfg.Token)
	cfg.TokenFile = os.ExpandEnv(cfg.TokenFile)
	cfg.CacheDir = os.ExpandEnv(cfg.CacheDir)
	for k, v := range cfg.Headers {
		cfg.Headers[k] = os.ExpandEnv(v)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.TTL == 0 {
		c.TTL = 120
	}
	if len(c.Sources) == 0 {
		c.Sources = []string{SourceDig, SourceWeb}
	}
	if c.TokenFile == "" {
		c.TokenFile = filepath.Join(os.Getenv("HOME"), ".cloudflare")
	}
}

// CacheEnabled reports whether the last synced address should be cached. It defaults to true.
func (c *Config) CacheEnabled() bool {
	return c.Cache == nil || *c.Cache
}

// HasCredentials reports whether the file itself carries API credentials:
// a token, an Authorization header, or both X-Auth-Key and X-Auth-Email headers.
// Other headers don't count.
func (c *Config) HasCredentials() bool {
	if c.Token != "" {
		return true
	}
	var key, email bool
	for k, v := range c.Headers {
		if v == "" {
			continue
		}
		switch http.CanonicalHeaderKey(k) {
		case "Authorization":
			return true
		case "X-Auth-Key":
			key = true
		case "X-Auth-Email":
			email = true
		}
	}
	return key && email
}

// Validate checks the fields that have no sensible default.
func (c *Config) Validate() error {
	if c.Record == "" {
		return errors.New("missing required field 'record'")
	}
	if !strings.Contains(c.Record, ".") {
		return errors.New("record must have at least one dot")
	}
	if c.TTL < 1 {
		return fmt.Errorf("invalid ttl %d", c.TTL)
	}
	for _, s := range c.Sources {
		switch s {
		case SourceDig, SourceDNS, SourceWeb:
		case SourceInterface:
			if c.Interface == "" {
				return errors.New("source 'interface' requires field 'interface'")
			}
		default:
			return fmt.Errorf("unknown source %q", s)
		}
	}
	return nil
}
