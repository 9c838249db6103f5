package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. ATOMS_FORMAT.
const EnvPrefix = "ATOMS"

// Formats accepted by the describe command.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Config is the resolved atomsctl configuration.
type Config struct {
	Name    string `mapstructure:"name"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// Load merges defaults, ATOMS_* environment variables and flags, in that
// order of precedence from lowest to highest. Flags are looked up by name
// with dashes mapped to underscores.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("name", "")
	v.SetDefault("format", FormatTable)
	v.SetDefault("no_color", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for _, key := range []string{"name", "format", "no_color"} {
			flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	switch cfg.Format {
	case FormatTable, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported format %q (want %s or %s)", cfg.Format, FormatTable, FormatJSON)
	}
}
