package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/fleetflow-client/internal/app"
)

// envPrefix is stripped from environment variables during config loading (e.g., FLEETFLOW_API__BASE_URL → api.base_url)
const envPrefix = "FLEETFLOW_"

// defaultConfigFile is looked up under the user config directory when --config is not given.
const defaultConfigFile = "fleetflow/config.toml"

// loadConfig loads application configuration from various sources with precedence:
// config file → environment variables → CLI flags → defaults
func loadConfig(configPath string, cmd *cli.Command, environFunc func() []string) (*app.Config, error) {
	k := koanf.New(".")

	// 1. Config file: explicit path must exist, the default location is optional
	if configPath == "" {
		configPath = discoverConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// 2. Environment variables
	if err := k.Load(envProvider(environFunc), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	// 3. CLI flags
	if cmd != nil {
		flagValues := extractAndTransformFlags(cmd)
		if err := k.Load(confmap.Provider(flagValues, "."), nil); err != nil {
			return nil, fmt.Errorf("loading CLI flags: %w", err)
		}
	}

	config := &app.Config{}
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// envProvider maps FLEETFLOW_ variables onto config keys; "__" separates nesting levels.
// FLEETFLOW_CONFIG names the config file and is not a config key.
func envProvider(environFunc func() []string) *env.Env {
	return env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			stripped := strings.TrimPrefix(key, envPrefix)
			if stripped == "CONFIG" {
				return "", nil
			}
			nested := strings.ToLower(strings.ReplaceAll(stripped, "__", "."))
			return nested, value
		},
		EnvironFunc: environFunc,
	})
}

func discoverConfigFile() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(configDir, defaultConfigFile)
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}

// extractAndTransformFlags transforms CLI flag names to match config structure.
// Includes parent flags. Examples: --api--base-url → api.base_url, --log-level → log_level
func extractAndTransformFlags(cmd *cli.Command) map[string]any {
	values := make(map[string]any)

	// FlagNames() includes flags from parent commands (via lineage)
	for _, name := range cmd.FlagNames() {
		if name == "config" || !cmd.IsSet(name) {
			continue
		}

		if value := cmd.Value(name); value != nil {
			key := strings.ReplaceAll(name, "--", ".")
			key = strings.ReplaceAll(key, "-", "_")
			values[key] = value
		}
	}

	return values
}
