package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// ECOLOOP_DATA_DIR env var, or ~/.ecoloop as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("ECOLOOP_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.ecoloop"
}

// openStore opens the marketplace store using the configured driver,
// defaulting to embedded SQLite under the data directory.
func openStore() (*store.Store, error) {
	driver := viper.GetString("store.driver")
	if driver == "" {
		driver = "sqlite"
	}
	dsn := viper.GetString("store.dsn")
	if driver == "sqlite" && dsn == "" {
		dsn = resolveDataDir()
	}
	return store.Open(driver, dsn)
}

// jwtSecret returns the configured token secret, with a development
// fallback so local setups work out of the box.
func jwtSecret() string {
	secret := viper.GetString("auth.jwt_secret")
	if secret == "" {
		secret = "ecoloop-dev-secret-change-me"
	}
	return secret
}

// newLogger builds a slog logger per the logging config.
func newLogger(dev bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(viper.GetString("logging.level")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(viper.GetString("logging.format")) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
