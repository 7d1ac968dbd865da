// Package config handles citewatch configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDirName is the directory name under the home directory.
	ConfigDirName = ".citewatch"
	// ConfigFileName is the config file name.
	ConfigFileName = "config.yml"
	// DBFileName is the SQLite database file name.
	DBFileName = "citations.db"
)

// ErrNotInitialized is returned when no configuration file exists yet.
var ErrNotInitialized = errors.New("not initialized (run 'cw init' first)")

// PlatformConfig holds per-platform settings. Credentials are injected
// from the environment at load time, never written back to the file.
type PlatformConfig struct {
	Enabled  bool   `yaml:"enabled"`
	APIKey   string `yaml:"-"`
	AuthorID string `yaml:"author_id,omitempty"`
}

// UserConfig identifies the researcher whose publications are tracked.
type UserConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	ORCID string `yaml:"orcid"`
}

// TrackingConfig controls automatic fetching.
type TrackingConfig struct {
	AutoFetch          bool `yaml:"auto_fetch"`
	FetchIntervalHours int  `yaml:"fetch_interval_hours"`
}

// AlertsConfig controls citation alerts.
type AlertsConfig struct {
	Enabled              bool `yaml:"enabled"`
	MinCitationThreshold int  `yaml:"min_citation_threshold"`
}

// RecommendationsConfig toggles recommendation rule groups.
type RecommendationsConfig struct {
	Enabled                     bool `yaml:"enabled"`
	CheckTrendingTopics         bool `yaml:"check_trending_topics"`
	SuggestCollaborations       bool `yaml:"suggest_collaborations"`
	IdentifyLowVisibilityPapers bool `yaml:"identify_low_visibility_papers"`
}

// Config is the top-level configuration stored in ~/.citewatch/config.yml.
type Config struct {
	User            UserConfig                 `yaml:"user"`
	Platforms       map[string]*PlatformConfig `yaml:"platforms"`
	DatabasePath    string                     `yaml:"database_path"`
	Tracking        TrackingConfig             `yaml:"tracking"`
	Alerts          AlertsConfig               `yaml:"alerts"`
	Recommendations RecommendationsConfig      `yaml:"recommendations"`
}

// envCredentials collects platform credentials from the environment.
// A .env file in the config directory is loaded first if present.
type envCredentials struct {
	SemanticScholarAPIKey string `envconfig:"SEMANTIC_SCHOLAR_API_KEY"`
	ScopusAPIKey          string `envconfig:"SCOPUS_API_KEY"`
	WebOfScienceAPIKey    string `envconfig:"WEB_OF_SCIENCE_API_KEY"`
}

// DefaultPlatforms lists the known platforms and whether they are enabled
// by default. Platforms needing paid API access start disabled.
func DefaultPlatforms() map[string]*PlatformConfig {
	return map[string]*PlatformConfig{
		"orcid":            {Enabled: true},
		"arxiv":            {Enabled: true},
		"semantic_scholar": {Enabled: true},
		"google_scholar":   {Enabled: true},
		"web_of_science":   {Enabled: false},
		"scopus":           {Enabled: false},
	}
}

// Default returns a configuration with explicit defaults for every field.
func Default() *Config {
	return &Config{
		Platforms:    DefaultPlatforms(),
		DatabasePath: filepath.Join(Dir(), DBFileName),
		Tracking: TrackingConfig{
			AutoFetch:          true,
			FetchIntervalHours: 24,
		},
		Alerts: AlertsConfig{
			Enabled:              true,
			MinCitationThreshold: 1,
		},
		Recommendations: RecommendationsConfig{
			Enabled:                     true,
			CheckTrendingTopics:         true,
			SuggestCollaborations:       true,
			IdentifyLowVisibilityPapers: true,
		},
	}
}

// Dir returns the configuration directory. CITEWATCH_DIR overrides the
// default of ~/.citewatch (useful for tests).
func Dir() string {
	if dir := os.Getenv("CITEWATCH_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ConfigDirName
	}
	return filepath.Join(home, ConfigDirName)
}

// Path returns the path to the config file.
func Path() string {
	return filepath.Join(Dir(), ConfigFileName)
}

// Load reads the configuration file and injects platform credentials from
// the environment. Returns ErrNotInitialized if no config file exists.
func Load() (*Config, error) {
	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Platforms == nil {
		cfg.Platforms = DefaultPlatforms()
	}

	if err := cfg.injectCredentials(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// injectCredentials loads API keys from the environment into the platform
// entries. Keys live in the environment (or a .env file), not in YAML.
func (c *Config) injectCredentials() error {
	_ = godotenv.Load(filepath.Join(Dir(), ".env"))

	var creds envCredentials
	if err := envconfig.Process("", &creds); err != nil {
		return fmt.Errorf("reading credentials from environment: %w", err)
	}

	set := func(platform, key string) {
		if key == "" {
			return
		}
		if p, ok := c.Platforms[platform]; ok {
			p.APIKey = key
		}
	}
	set("semantic_scholar", creds.SemanticScholarAPIKey)
	set("scopus", creds.ScopusAPIKey)
	set("web_of_science", creds.WebOfScienceAPIKey)

	return nil
}

// Save writes the configuration to the config file, creating the
// directory if needed.
func (c *Config) Save() error {
	if err := os.MkdirAll(Dir(), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(Path(), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// EnabledPlatforms returns the names of enabled platforms, sorted.
func (c *Config) EnabledPlatforms() []string {
	var names []string
	for name, p := range c.Platforms {
		if p.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DisabledPlatforms returns the names of disabled platforms, sorted.
func (c *Config) DisabledPlatforms() []string {
	var names []string
	for name, p := range c.Platforms {
		if !p.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
