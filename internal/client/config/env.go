package config

import (
	"errors"
	"os"

	"github.com/Grupo-Cloud/frontend/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv overlays Config with values from a dotenv file and the process
// environment. A variable set in the environment beats the same key in the
// file. An explicitly requested file (-env) that cannot be read panics; a
// missing ./.env is ignored.
func parseEnv(cfg *Config) {
	file := map[string]string{}

	path := flagx.EnvFileFlags()
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	values, err := godotenv.Read(path)
	switch {
	case err == nil:
		file = values
	case explicit || !errors.Is(err, os.ErrNotExist):
		panic(err)
	}

	lookup := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := os.LookupEnv(k); ok && v != "" {
				return v, true
			}
		}
		for _, k := range keys {
			if v, ok := file[k]; ok && v != "" {
				return v, true
			}
		}
		return "", false
	}

	if v, ok := lookup("BACK_URL", "VITE_BACK_URL"); ok {
		cfg.BackURL = v
	}
	if v, ok := lookup("CHAT_DB_PATH"); ok {
		cfg.DatabasePath = v
	}
	if v, ok := lookup("CHAT_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
}
