package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	// APIBaseURL is the origin of the taskflow REST backend.
	APIBaseURL string
	// StateDir holds durable client state (credential + cached profile).
	StateDir       string
	RequestTimeout time.Duration
}

// ConfigFromEnv reads client config from environment variables,
// falling back to local defaults.
func ConfigFromEnv() Config {
	base := os.Getenv("TASKFLOW_API_URL")
	if base == "" {
		// default local backend
		base = "http://localhost:5000"
	}
	dir := os.Getenv("TASKFLOW_STATE_DIR")
	if dir == "" {
		if cfgDir, err := os.UserConfigDir(); err == nil {
			dir = filepath.Join(cfgDir, "taskflow")
		} else {
			dir = ".taskflow"
		}
	}
	timeout := 15 * time.Second
	if v := os.Getenv("TASKFLOW_REQUEST_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}
	return Config{APIBaseURL: base, StateDir: dir, RequestTimeout: timeout}
}

// StateFile is the path of the durable session file under StateDir.
func (c Config) StateFile() string {
	return filepath.Join(c.StateDir, "session.json")
}
