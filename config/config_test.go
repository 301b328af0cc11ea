package config

import (
	"flag"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.MaxConnections != DefaultMaxConnections {
		t.Errorf("MaxConnections = %d, want %d", cfg.MaxConnections, DefaultMaxConnections)
	}
	if cfg.Tframe != DefaultTframe {
		t.Errorf("Tframe = %v, want %v", cfg.Tframe, DefaultTframe)
	}
	if cfg.Tack != DefaultTack {
		t.Errorf("Tack = %v, want %v", cfg.Tack, DefaultTack)
	}
	if cfg.Base64LineLen != DefaultBase64LineLen {
		t.Errorf("Base64LineLen = %d, want %d", cfg.Base64LineLen, DefaultBase64LineLen)
	}
	if cfg.MaxConnectionsCeiling != DefaultMaxConnectionsCeiling {
		t.Errorf("MaxConnectionsCeiling = %d, want %d", cfg.MaxConnectionsCeiling, DefaultMaxConnectionsCeiling)
	}
}

func TestLoadFlagOverride(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, []string{"--port", "4000", "--tframe", "5s"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 4000 {
		t.Errorf("Port = %d, want 4000", cfg.Port)
	}
	if cfg.Tframe != 5*time.Second {
		t.Errorf("Tframe = %v, want 5s", cfg.Tframe)
	}
}

func TestLoadRejectsOutOfRangeMaxConnections(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if _, err := Load(fs, []string{"--max-connections", "0"}); err == nil {
		t.Fatal("expected error for max-connections=0")
	}
	fs2 := flag.NewFlagSet("test2", flag.ContinueOnError)
	if _, err := Load(fs2, []string{"--max-connections", "9999"}); err == nil {
		t.Fatal("expected error for max-connections above the ceiling")
	}
}
