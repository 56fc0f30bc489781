package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Grupo-Cloud/frontend/internal/flagx"
	"github.com/Grupo-Cloud/frontend/internal/timex"
)

// JsonConfig is a DTO used exclusively for config file unmarshalling, JSON
// or TOML. Zero values mean "not set" and leave the earlier value in place.
type JsonConfig struct {
	BackURL            string         `json:"back_url" toml:"back_url"`
	RequestTimeout     timex.Duration `json:"request_timeout" toml:"request_timeout"`
	DatabasePath       string         `json:"database_path" toml:"database_path"`
	MaxUploadSize      int64          `json:"max_upload_size" toml:"max_upload_size"`
	HistoryConcurrency int            `json:"history_concurrency" toml:"history_concurrency"`
	LogLevel           string         `json:"log_level" toml:"log_level"`
}

func readConfigFile(path string) (JsonConfig, error) {
	var jc JsonConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.DecodeFile(path, &jc)
		return jc, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return jc, err
	}
	err = json.Unmarshal(data, &jc)
	return jc, err
}

// parseJson overlays Config with values loaded from the file named by -c or
// -config; a .toml extension selects TOML, anything else is read as JSON.
// Without either flag it does nothing. Read or unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	jc, err := readConfigFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if jc.BackURL != "" {
		cfg.BackURL = jc.BackURL
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.MaxUploadSize > 0 {
		cfg.MaxUploadSize = jc.MaxUploadSize
	}
	if jc.HistoryConcurrency > 0 {
		cfg.HistoryConcurrency = jc.HistoryConcurrency
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
