package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: EXTCHECK_[SECTION]_[KEY] (e.g., EXTCHECK_METRICS_ADDRESS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.ProjectRoot, "EXTCHECK_PROJECT_ROOT")

	// Paths
	setEnvString(&cfg.Paths.VendorDir, "EXTCHECK_PATHS_VENDOR_DIR")
	setEnvString(&cfg.Paths.InstalledJSON, "EXTCHECK_PATHS_INSTALLED_JSON")

	// Inspector
	setEnvString(&cfg.Inspector.FactorySuffix, "EXTCHECK_INSPECTOR_FACTORY_SUFFIX")
	setEnvString(&cfg.Inspector.DeprecationMarker, "EXTCHECK_INSPECTOR_DEPRECATION_MARKER")
	setEnvInt(&cfg.Inspector.Workers, "EXTCHECK_INSPECTOR_WORKERS")

	// Composer
	setEnvBool(&cfg.Composer.UseCLI, "EXTCHECK_COMPOSER_USE_CLI")
	setEnvString(&cfg.Composer.Binary, "EXTCHECK_COMPOSER_BINARY")

	// Caches
	setEnvInt(&cfg.Cache.SourceEntries, "EXTCHECK_CACHE_SOURCE_ENTRIES")

	setEnvString(&cfg.Output.Format, "EXTCHECK_OUTPUT_FORMAT")
	setEnvString(&cfg.Metrics.Address, "EXTCHECK_METRICS_ADDRESS")
	setEnvString(&cfg.Metrics.OTLPEndpoint, "EXTCHECK_METRICS_OTLP_ENDPOINT")
	setEnvDuration(&cfg.Watch.Debounce, "EXTCHECK_WATCH_DEBOUNCE")

	// History
	setEnvBool(&cfg.History.Enabled, "EXTCHECK_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "EXTCHECK_HISTORY_PATH")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
