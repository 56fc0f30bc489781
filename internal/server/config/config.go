// Package config handles configuration for the development backend,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the development backend.
//
// Fields:
//   - EndpointAddr: bind address for the REST endpoint.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Empty means random per run.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - SeedUser: optional "username:password" account created at startup.
type Config struct {
	EndpointAddr                 string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	SeedUser                     string
}

// LoadDefaults populates Config with development defaults. The short token
// lifetimes make the client's refresh path easy to watch.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = "127.0.0.1:8000"
	c.SecretKey = ""
	c.AccessTokenValidityDuration = 1 * time.Minute
	c.RefreshTokenValidityDuration = 3 * time.Minute
	c.SeedUser = ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
