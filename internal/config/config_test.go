package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"COMMS_URL", "SERVICE_NAME",
		"GATEWAY_SUBJECT", "GATEWAY_EVENT_SUBJECT",
		"GATEWAY_REQUEST_TIMEOUT", "GATEWAY_MODULE_MANIFEST",
		"DB_PATH", "USE_DOCSTORE", "DATABASE_URL",
		"RUN_MIGRATIONS", "MIGRATION_PATH",
		"INTEGRATOR_USE_NOOPUR", "NOOPUR_BASE_URL", "NOOPUR_API_KEY",
		"NOOPUR_TIMEOUT", "USE_REMOTE_MEMORY",
		"GATEWAY_HTTP_ADDR", "HTTP_PORT", "HEALTH_CHECK_TIMEOUT", "LOG_LEVEL",
	}
	for _, env := range envVars {
		os.Unsetenv(env)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}

	if cfg.COMMSURL != "nats://127.0.0.1:4222" {
		t.Errorf("config:config_test - COMMSURL = %q, want %q", cfg.COMMSURL, "nats://127.0.0.1:4222")
	}
	if cfg.COMMSName != "bridge-gateway" {
		t.Errorf("config:config_test - COMMSName = %q, want %q", cfg.COMMSName, "bridge-gateway")
	}
	if cfg.GatewaySubject != "" {
		t.Errorf("config:config_test - GatewaySubject = %q, want empty", cfg.GatewaySubject)
	}
	if cfg.RequestTimeout != 25*time.Second {
		t.Errorf("config:config_test - RequestTimeout = %v, want 25s", cfg.RequestTimeout)
	}
	if cfg.DBPath != "data/context.db" {
		t.Errorf("config:config_test - DBPath = %q, want %q", cfg.DBPath, "data/context.db")
	}
	if cfg.UseDocStore {
		t.Error("config:config_test - expected UseDocStore=false by default")
	}
	if cfg.MigrationPath != "migrations" {
		t.Errorf("config:config_test - MigrationPath = %q, want %q", cfg.MigrationPath, "migrations")
	}
	if cfg.UseNoopur {
		t.Error("config:config_test - expected UseNoopur=false by default")
	}
	if cfg.NoopurBaseURL != "http://localhost:5001" {
		t.Errorf("config:config_test - NoopurBaseURL = %q, unexpected default", cfg.NoopurBaseURL)
	}
	if cfg.NoopurTimeout != 30*time.Second {
		t.Errorf("config:config_test - NoopurTimeout = %v, want 30s", cfg.NoopurTimeout)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("config:config_test - HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.HealthCheckTimeout != 5*time.Second {
		t.Errorf("config:config_test - HealthCheckTimeout = %v, want 5s", cfg.HealthCheckTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("config:config_test - LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMMS_URL", "nats://broker:4222")
	t.Setenv("GATEWAY_SUBJECT", "core.custom.v1")
	t.Setenv("USE_DOCSTORE", "true")
	t.Setenv("DATABASE_URL", "postgres://gw:gw@db:5432/gw")
	t.Setenv("GATEWAY_REQUEST_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}
	if cfg.COMMSURL != "nats://broker:4222" {
		t.Errorf("config:config_test - COMMSURL = %q", cfg.COMMSURL)
	}
	if cfg.GatewaySubject != "core.custom.v1" {
		t.Errorf("config:config_test - GatewaySubject = %q", cfg.GatewaySubject)
	}
	if !cfg.UseDocStore {
		t.Error("config:config_test - expected UseDocStore=true")
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("config:config_test - RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
}

func TestValidateForServe(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		t.Errorf("config:config_test - defaults should validate: %v", err)
	}

	cfg.UseDocStore = true
	cfg.DatabaseURL = ""
	if err := cfg.ValidateForServe(); err == nil {
		t.Error("config:config_test - expected error when USE_DOCSTORE set without DATABASE_URL")
	}

	cfg.UseDocStore = false
	cfg.RequestTimeout = 0
	if err := cfg.ValidateForServe(); err == nil {
		t.Error("config:config_test - expected error for non-positive request timeout")
	}
}

func TestValidateForDB(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}
	if err := cfg.ValidateForDB(); err == nil {
		t.Error("config:config_test - expected error without DATABASE_URL")
	}

	cfg.DatabaseURL = "postgres://gw:gw@db:5432/gw"
	if err := cfg.ValidateForDB(); err != nil {
		t.Errorf("config:config_test - unexpected error: %v", err)
	}
}
