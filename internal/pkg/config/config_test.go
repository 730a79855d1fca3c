package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/routepulse/routepulse/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("routepulse-test")
	if err != nil {
		t.Fatalf("load with defaults: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.NATS.URL == "" {
		t.Error("expected default NATS URL")
	}
	if cfg.Valkey.Addr == "" {
		t.Error("expected default valkey addr")
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry should default to disabled")
	}
	if cfg.Telemetry.ServiceName != "routepulse-test" {
		t.Errorf("expected service name passthrough, got %q", cfg.Telemetry.ServiceName)
	}
	if cfg.Simulation.MaxPlausibleSpeedMps != 340 {
		t.Errorf("expected default max speed 340, got %f", cfg.Simulation.MaxPlausibleSpeedMps)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ROUTEPULSE_SERVER_PORT", "9999")
	t.Setenv("ROUTEPULSE_SIMULATION_MAX_PLAUSIBLE_SPEED_MPS", "100")

	cfg, err := config.Load("routepulse-test")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected env override port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Simulation.MaxPlausibleSpeedMps != 100 {
		t.Errorf("expected env override max speed 100, got %f", cfg.Simulation.MaxPlausibleSpeedMps)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := &config.Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors for zero config")
	}
	msg := err.Error()
	for _, want := range []string{"server.port", "geocoding.endpoint", "nats.url"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in validation error, got:\n%s", want, msg)
		}
	}
}

func TestThresholds(t *testing.T) {
	cfg, err := config.Load("routepulse-test")
	if err != nil {
		t.Fatal(err)
	}
	maxSpeed, minMovement, gap := cfg.Thresholds()
	if maxSpeed != 340 || minMovement != 1 {
		t.Errorf("unexpected thresholds: %f, %f", maxSpeed, minMovement)
	}
	if gap != 0*time.Second {
		t.Errorf("expected zero stationary gap, got %v", gap)
	}
}
