// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvDataDir  = "LIBRARY_DATA_DIR"
	EnvLedger   = "LIBRARY_LEDGER"
	EnvLogLevel = "LIBRARY_LOG_LEVEL"
)

type Config struct {
	DataDir  string
	Ledger   string
	LogLevel slog.Level
}

// Load reads .env from the working directory if present, then the process
// environment. Variables already set in the environment win over .env.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	level, err := ParseLevel(getenv(EnvLogLevel, "warn"))
	if err != nil {
		return Config{}, err
	}
	return Config{
		DataDir:  getenv(EnvDataDir, "."),
		Ledger:   getenv(EnvLedger, "file"),
		LogLevel: level,
	}, nil
}

// ParseLevel accepts debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
