// Package config holds the process configuration: trading identity,
// session date, initial cash, data locations and gateway connection
// settings. Files are YAML or JSON; a .env file and environment
// variables override, using the same variable names the trading agent's
// service manager exports.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeSim  = "sim"
	ModeLive = "live"
)

// Config is read once at startup and passed explicitly; nothing here is
// global.
type Config struct {
	Identity    string  `json:"identity" yaml:"identity"`
	TradeDate   string  `json:"trade_date" yaml:"trade_date"`
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`
	DataDir     string  `json:"data_dir" yaml:"data_dir"`
	PriceFile   string  `json:"price_file" yaml:"price_file"`
	JournalPath string  `json:"journal_path,omitempty" yaml:"journal_path,omitempty"`
	Mode        string  `json:"mode" yaml:"mode"`

	Gateway GatewayConfig `json:"gateway" yaml:"gateway"`
}

// GatewayConfig is the broker connection block. Host/port/client id
// follow the IB gateway convention; Timeout bounds the wait for a fill.
type GatewayConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	ClientID int    `json:"client_id" yaml:"client_id"`
	Timeout  string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

func (g GatewayConfig) ParseTimeout() (time.Duration, error) {
	if g.Timeout == "" {
		return 2 * time.Second, nil
	}
	return time.ParseDuration(g.Timeout)
}

// Default returns a configuration with sensible defaults for the
// simulation mode.
func Default() *Config {
	return &Config{
		Identity:    "agent-001",
		TradeDate:   time.Now().UTC().Format("2006-01-02"),
		InitialCash: 10000,
		DataDir:     "./data",
		PriceFile:   "./prices.csv",
		JournalPath: "./papertrade.sqlite",
		Mode:        ModeSim,
		Gateway: GatewayConfig{
			Host:     "127.0.0.1",
			Port:     7497,
			ClientID: 1,
			Timeout:  "2s",
		},
	}
}

// LoadFromFile loads configuration from a file (YAML first, JSON
// fallback) and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML (or JSON for .json
// paths).
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyEnv loads a .env file when present and applies environment
// overrides. Variable names match the original agent tooling: SIGNATURE,
// TODAY_DATE, USE_IB_PAPER, IB_HOST, IB_PORT, IB_CLIENT_ID.
func (c *Config) ApplyEnv() error {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	if v := os.Getenv("SIGNATURE"); v != "" {
		c.Identity = v
	}
	if v := os.Getenv("TODAY_DATE"); v != "" {
		c.TradeDate = v
	}
	if v := os.Getenv("USE_IB_PAPER"); v != "" {
		if strings.EqualFold(v, "true") {
			c.Mode = ModeLive
		} else {
			c.Mode = ModeSim
		}
	}
	if v := os.Getenv("IB_HOST"); v != "" {
		c.Gateway.Host = v
	}
	if v := os.Getenv("IB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IB_PORT: %w", err)
		}
		c.Gateway.Port = port
	}
	if v := os.Getenv("IB_CLIENT_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IB_CLIENT_ID: %w", err)
		}
		c.Gateway.ClientID = id
	}
	return nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Identity == "" {
		return fmt.Errorf("identity is required")
	}
	if strings.ContainsAny(c.Identity, "/\\") {
		return fmt.Errorf("identity %q must not contain path separators", c.Identity)
	}
	if c.TradeDate == "" {
		return fmt.Errorf("trade_date is required")
	}
	if _, err := time.Parse("2006-01-02", c.TradeDate); err != nil {
		return fmt.Errorf("trade_date %q: want YYYY-MM-DD", c.TradeDate)
	}
	if c.InitialCash <= 0 {
		return fmt.Errorf("initial_cash must be positive")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Mode != ModeSim && c.Mode != ModeLive {
		return fmt.Errorf("mode must be %q or %q", ModeSim, ModeLive)
	}
	if c.Gateway.Host == "" {
		return fmt.Errorf("gateway.host is required")
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port %d out of range", c.Gateway.Port)
	}
	if _, err := c.Gateway.ParseTimeout(); err != nil {
		return fmt.Errorf("gateway.timeout: %w", err)
	}
	return nil
}
