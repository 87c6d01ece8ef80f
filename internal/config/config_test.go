package config

import (
	"testing"
	"time"

	"goperm/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "PORT", "PERM_SEED", "PERM_NREPS", "PERM_WORKERS", "DATA_FILE", "DATA_SHEET", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Run.Nreps != 1000 || cfg.Run.Seed != 0 || cfg.Run.Workers != 0 {
		t.Errorf("Unexpected run defaults: %+v", cfg.Run)
	}
	if cfg.Data.Sheet != "Sheet1" {
		t.Errorf("Expected default sheet, got %q", cfg.Data.Sheet)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Unexpected shutdown timeout: %v", cfg.Server.ShutdownTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PERM_SEED", "42")
	t.Setenv("PERM_NREPS", "250")
	t.Setenv("PERM_WORKERS", "8")
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_FILE", "admissions.xlsx")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Run.Seed != 42 || cfg.Run.Nreps != 250 || cfg.Run.Workers != 8 {
		t.Errorf("Overrides not applied: %+v", cfg.Run)
	}
	if cfg.Server.Port != "9090" || cfg.Data.File != "admissions.xlsx" {
		t.Errorf("Overrides not applied: port=%q file=%q", cfg.Server.Port, cfg.Data.File)
	}
}

func TestLoad_InvalidNreps(t *testing.T) {
	t.Setenv("PERM_NREPS", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected validation failure for PERM_NREPS=0")
	}
	if errors.GetCode(err) != errors.CodeConfigInvalid {
		t.Errorf("Expected CONFIG_INVALID code, got %s", errors.GetCode(err))
	}
}
