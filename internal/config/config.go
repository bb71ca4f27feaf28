package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	defaultAPIURL         = "http://127.0.0.1:8001"
	defaultRequestTimeout = 30 * time.Second
)

// Config holds all configuration for council-chat. Environment variables are
// read first; command-line flags override them.
type Config struct {
	APIURL         string        `envconfig:"COUNCIL_API_URL" default:"http://127.0.0.1:8001"`
	RequestTimeout time.Duration `envconfig:"COUNCIL_REQUEST_TIMEOUT" default:"30s"`
	LogFormat      string        `envconfig:"COUNCIL_LOG_FORMAT" default:"text"`
	LogLevel       string        `envconfig:"COUNCIL_LOG_LEVEL" default:"info"`
	LogFile        string        `envconfig:"COUNCIL_LOG_FILE" default:"council-chat.log"`
	AltScreen      bool          `envconfig:"COUNCIL_ALT_SCREEN" default:"true"`
	Stub           StubConfig
}

// StubConfig configures the built-in fake backend.
type StubConfig struct {
	Addr       string        `envconfig:"COUNCIL_STUB_ADDR" default:"127.0.0.1:8001"`
	StageDelay time.Duration `envconfig:"COUNCIL_STUB_STAGE_DELAY" default:"400ms"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.Validate()
	return &cfg, nil
}

// Validate normalises values that flags or the environment may have left in
// an unusable state.
func (c *Config) Validate() {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat != "json" {
		c.LogFormat = "text"
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Stub.StageDelay < 0 {
		c.Stub.StageDelay = 0
	}
	if strings.TrimSpace(c.Stub.Addr) == "" {
		c.Stub.Addr = "127.0.0.1:8001"
	}
}
