package envconf_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mkravchenko/cardvault/pkg/envconf"
)

type nested struct {
	Token string `env:"T_TOKEN"`
}

type testConfig struct {
	Name     string        `env:"T_NAME"`
	Port     uint16        `env:"T_PORT"`
	Timeout  time.Duration `env:"T_TIMEOUT"`
	Level    slog.Level    `env:"T_LEVEL"`
	Optional string        `env:"T_OPTIONAL" envDefault:"fallback"`
	Inner    nested
}

func TestLoad(t *testing.T) {
	t.Setenv("T_NAME", "cardvault")
	t.Setenv("T_PORT", "8080")
	t.Setenv("T_TIMEOUT", "15s")
	t.Setenv("T_LEVEL", "WARN")
	t.Setenv("T_TOKEN", "secret")

	cfg := new(testConfig)

	err := envconf.Load(cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Name != "cardvault" {
		t.Errorf("Name = %q, want %q", cfg.Name, "cardvault")
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout)
	}
	if cfg.Level != slog.LevelWarn {
		t.Errorf("Level = %v, want WARN", cfg.Level)
	}
	if cfg.Optional != "fallback" {
		t.Errorf("Optional = %q, want default %q", cfg.Optional, "fallback")
	}
	if cfg.Inner.Token != "secret" {
		t.Errorf("Inner.Token = %q, want %q", cfg.Inner.Token, "secret")
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("T_NAME", "x")
	t.Setenv("T_PORT", "1")
	t.Setenv("T_TIMEOUT", "1s")
	t.Setenv("T_LEVEL", "INFO")
	t.Setenv("T_TOKEN", "x")
	t.Setenv("T_OPTIONAL", "explicit")

	cfg := new(testConfig)

	err := envconf.Load(cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Optional != "explicit" {
		t.Errorf("Optional = %q, want %q", cfg.Optional, "explicit")
	}
}

func TestLoadMissingRequired(t *testing.T) {
	cfg := new(testConfig)

	err := envconf.Load(cfg)
	if !errors.Is(err, envconf.ErrMissingRequired) {
		t.Fatalf("Load error = %v, want ErrMissingRequired", err)
	}
}

func TestLoadRejectsNonPointer(t *testing.T) {
	err := envconf.Load(testConfig{})
	if err == nil {
		t.Fatal("Load accepted a non-pointer destination")
	}
}
