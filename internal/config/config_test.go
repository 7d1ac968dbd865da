package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if !cfg.Platforms["semantic_scholar"].Enabled {
		t.Error("semantic_scholar should be enabled by default")
	}
	if cfg.Platforms["scopus"].Enabled {
		t.Error("scopus should be disabled by default")
	}
	if !cfg.Alerts.Enabled {
		t.Error("alerts should be enabled by default")
	}
	if cfg.Alerts.MinCitationThreshold != 1 {
		t.Errorf("alert threshold = %d, want 1", cfg.Alerts.MinCitationThreshold)
	}
	if cfg.Tracking.FetchIntervalHours != 24 {
		t.Errorf("fetch interval = %d, want 24", cfg.Tracking.FetchIntervalHours)
	}
	if !cfg.Recommendations.Enabled {
		t.Error("recommendations should be enabled by default")
	}
}

func TestLoadNotInitialized(t *testing.T) {
	t.Setenv("CITEWATCH_DIR", t.TempDir())

	if _, err := Load(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("got %v, want ErrNotInitialized", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("CITEWATCH_DIR", t.TempDir())

	cfg := Default()
	cfg.User = UserConfig{Name: "Ada Lovelace", Email: "ada@example.org", ORCID: "0000-0001-2345-6789"}
	cfg.Platforms["scopus"].Enabled = true
	cfg.Alerts.MinCitationThreshold = 5

	if err := cfg.Save(); err != nil {
		t.Fatalf("saving: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("loading: %v", err)
	}

	if !reflect.DeepEqual(loaded.User, cfg.User) {
		t.Errorf("user = %+v, want %+v", loaded.User, cfg.User)
	}
	if !loaded.Platforms["scopus"].Enabled {
		t.Error("scopus enablement lost in round trip")
	}
	if loaded.Alerts.MinCitationThreshold != 5 {
		t.Errorf("alert threshold = %d, want 5", loaded.Alerts.MinCitationThreshold)
	}
}

func TestLoadInjectsCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("CITEWATCH_DIR", t.TempDir())
	t.Setenv("SEMANTIC_SCHOLAR_API_KEY", "s2-key-from-env")

	if err := Default().Save(); err != nil {
		t.Fatalf("saving: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if got := cfg.Platforms["semantic_scholar"].APIKey; got != "s2-key-from-env" {
		t.Errorf("semantic_scholar API key = %q, want injected value", got)
	}
}

func TestLoadInjectsCredentialsFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CITEWATCH_DIR", dir)
	// godotenv never overrides variables already present, so make sure the
	// key is absent from the process environment.
	t.Setenv("SCOPUS_API_KEY", "")
	os.Unsetenv("SCOPUS_API_KEY")

	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("SCOPUS_API_KEY=scopus-key-from-file\n"), 0600); err != nil {
		t.Fatalf("writing .env: %v", err)
	}

	if err := Default().Save(); err != nil {
		t.Fatalf("saving: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if got := cfg.Platforms["scopus"].APIKey; got != "scopus-key-from-file" {
		t.Errorf("scopus API key = %q, want value from .env", got)
	}
}

func TestAPIKeyNeverWrittenToFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CITEWATCH_DIR", dir)

	cfg := Default()
	cfg.Platforms["semantic_scholar"].APIKey = "secret-key"
	if err := cfg.Save(); err != nil {
		t.Fatalf("saving: %v", err)
	}

	data, err := os.ReadFile(Path())
	if err != nil {
		t.Fatalf("reading config file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty config file")
	}
	if strings.Contains(string(data), "secret-key") {
		t.Error("API key leaked into config file")
	}
}

func TestEnabledDisabledPlatformsSorted(t *testing.T) {
	cfg := Default()

	enabled := cfg.EnabledPlatforms()
	want := []string{"arxiv", "google_scholar", "orcid", "semantic_scholar"}
	if !reflect.DeepEqual(enabled, want) {
		t.Errorf("enabled platforms = %v, want %v", enabled, want)
	}

	disabled := cfg.DisabledPlatforms()
	wantDisabled := []string{"scopus", "web_of_science"}
	if !reflect.DeepEqual(disabled, wantDisabled) {
		t.Errorf("disabled platforms = %v, want %v", disabled, wantDisabled)
	}
}
