// Package config loads runtime configuration for the chat CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A dotenv file (-env path, else ./.env when present) and the process
//     environment, the latter winning (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Environment variables
//
//	BACK_URL        base URL of the backend (VITE_BACK_URL is accepted too)
//	CHAT_DB_PATH    SQLite file for the durable access token
//	CHAT_LOG_LEVEL  debug | info | warn | error
//
// Supported flags
//
//	-a string   base URL of the backend
//	-t int      request timeout (seconds)
//	-d string   database path
//	-l string   log level
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so it can be either a
// string like "30s" or integer nanoseconds:
//
//	{
//	  "back_url": "https://api.example.com",
//	  "request_timeout": "30s",
//	  "database_path": "chat.db",
//	  "max_upload_size": 10485760,
//	  "history_concurrency": 4,
//	  "log_level": "info"
//	}
package config
