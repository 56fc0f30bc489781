package config

import (
	"strings"
	"time"
)

// Config holds runtime settings for the chat CLI.
//
// Fields:
//   - BackURL: base URL of the REST backend, without a trailing slash.
//   - RequestTimeout: upper bound for a single HTTP exchange, refresh included.
//   - DatabasePath: SQLite file holding the durable access token.
//   - MaxUploadSize: largest document accepted by the upload command, in bytes.
//   - HistoryConcurrency: how many chats the history command loads in parallel.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	BackURL            string
	RequestTimeout     time.Duration
	DatabasePath       string
	MaxUploadSize      int64
	HistoryConcurrency int
	LogLevel           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackURL = "http://127.0.0.1:8000"
	c.RequestTimeout = 30 * time.Second
	c.DatabasePath = "chat.db"
	c.MaxUploadSize = 10 << 20
	c.HistoryConcurrency = 4
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the dotenv file and environment, JSON (if present) and command-line flags
// (if present). Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	cfg.BackURL = strings.TrimRight(cfg.BackURL, "/")
	return cfg
}
