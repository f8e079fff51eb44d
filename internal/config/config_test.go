package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestLoad_CreatesDefaultConfigWithAgentID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "agent.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Agent.ID == "" {
		t.Error("expected a minted agent id")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to be written: %v", err)
	}

	// A second load must return the same identity, not mint a new one.
	cfg2, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg2.Agent.ID != cfg.Agent.ID {
		t.Errorf("agent id changed across loads: %q != %q", cfg2.Agent.ID, cfg.Agent.ID)
	}
}

func TestLoad_FileValuesAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	body := "server:\n  url: \"https://file.example.com\"\n  tenant_key: \"glk_file\"\ncollection:\n  interval: \"10s\"\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BLACKBOX_URL", "https://env.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.URL != "https://env.example.com" {
		t.Errorf("URL = %q, want env override", cfg.Server.URL)
	}
	if cfg.Server.TenantKey != "glk_file" {
		t.Errorf("TenantKey = %q, want file value", cfg.Server.TenantKey)
	}
	if cfg.Collection.Interval.Duration != 10*time.Second {
		t.Errorf("Interval = %v, want 10s", cfg.Collection.Interval.Duration)
	}
	if cfg.Collection.SealInterval.Duration != 60*time.Second {
		t.Errorf("SealInterval = %v, want 60s default", cfg.Collection.SealInterval.Duration)
	}
}

func TestValidate_ReportsProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.URL = ""
	cfg.Collection.Interval = Duration{500 * time.Millisecond}
	cfg.Collection.SealInterval = Duration{time.Second}

	problems := cfg.Validate()
	if len(problems) != 4 {
		t.Errorf("got %d problems, want 4: %v", len(problems), problems)
	}
}

func TestValidate_CleanConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.TenantKey = "glk_key"
	if problems := cfg.Validate(); len(problems) != 0 {
		t.Errorf("unexpected problems: %v", problems)
	}
}

func TestPIDFilePath_UsesLogDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Dir = filepath.Join("some", "dir")
	want := filepath.Join("some", "dir", "blackbox-agent.pid")
	if got := cfg.PIDFilePath(); got != want {
		t.Errorf("PIDFilePath() = %q, want %q", got, want)
	}
}

func TestDuration_RejectsGarbage(t *testing.T) {
	var cfg Config
	err := yaml.Unmarshal([]byte("collection:\n  interval: \"soon\"\n"), &cfg)
	if err == nil {
		t.Error("expected error for invalid duration")
	}
}
