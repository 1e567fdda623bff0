package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names probed in the working directory when no explicit
// path is given.
var configFileNames = []string{"beffroi.yaml", "beffroi.yml"}

// envPrefix is the prefix for environment variable overrides, e.g.
// BEFFROI_SERVER_PORT=8080 maps to server.port.
const envPrefix = "BEFFROI_"

// Load builds the configuration. Precedence (highest to lowest):
// flags > environment variables > config file > defaults.
// flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"server.host":     DefaultHost,
		"server.port":     DefaultPort,
		"session.max_age": DefaultSessionMaxAge,
		"database.driver": DriverSQLite,
		"database.path":   DefaultDatabasePath,
		"smtp.port":       DefaultSMTPPort,
		"uploads.dir":     DefaultUploadsDir,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := findConfigFile(cfgFile)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// BEFFROI_SESSION_SECRET -> session.secret. Only the first underscore
	// separates the section from the key; later underscores are literal
	// (BEFFROI_SERVER_BASE_URL -> server.base_url).
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(key, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// --db-path maps to database.path, --port to server.port, etc.
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Source = path

	return &cfg, nil
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"host":        "server.host",
	"port":        "server.port",
	"base-url":    "server.base_url",
	"dev":         "server.dev",
	"db-driver":   "database.driver",
	"db-path":     "database.path",
	"db-dsn":      "database.dsn",
	"uploads-dir": "uploads.dir",
	"verbose":     "verbose",
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
