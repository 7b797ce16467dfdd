// Package config provides server configuration loaded from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds bridge-gateway configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"bridge-gateway"`

	// Gateway subject override (empty = default core.gateway.v1)
	GatewaySubject string `envconfig:"GATEWAY_SUBJECT"`
	EventSubject   string `envconfig:"GATEWAY_EVENT_SUBJECT"`

	// Timeouts
	RequestTimeout time.Duration `envconfig:"GATEWAY_REQUEST_TIMEOUT" default:"25s"`

	// Module discovery
	ModuleManifest string `envconfig:"GATEWAY_MODULE_MANIFEST"`

	// Local embedded store
	DBPath string `envconfig:"DB_PATH" default:"data/context.db"`

	// Document store (Postgres). When enabled and unreachable, the gateway
	// falls back to the local embedded store.
	UseDocStore   bool   `envconfig:"USE_DOCSTORE" default:"false"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// Remote Noopur integration
	UseNoopur     bool          `envconfig:"INTEGRATOR_USE_NOOPUR" default:"false"`
	NoopurBaseURL string        `envconfig:"NOOPUR_BASE_URL" default:"http://localhost:5001"`
	NoopurAPIKey  string        `envconfig:"NOOPUR_API_KEY"`
	NoopurTimeout time.Duration `envconfig:"NOOPUR_TIMEOUT" default:"30s"`
	// UseRemoteMemory selects the Noopur-backed memory adapter when the
	// document store is not in play.
	UseRemoteMemory bool `envconfig:"USE_REMOTE_MEMORY" default:"false"`

	// HTTP health endpoint (GATEWAY_HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr           string        `envconfig:"GATEWAY_HTTP_ADDR"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the gateway server.
func (c *Config) ValidateForServe() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - GATEWAY_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if c.UseDocStore && c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required when USE_DOCSTORE is set", logPrefix)
	}
	if c.UseNoopur && c.NoopurBaseURL == "" {
		return fmt.Errorf("%s - NOOPUR_BASE_URL is required when INTEGRATOR_USE_NOOPUR is set", logPrefix)
	}
	return nil
}

// ValidateForDB checks required config when running document-store commands
// (migrate, clear).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
