// Package config loads engine settings from defaults, an optional file,
// SHAPECAST_* environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"shapecast/internal/broadphase"
	"shapecast/internal/logging"
	"shapecast/internal/narrowphase"
)

// EnvPrefix prefixes environment overrides: SHAPECAST_QUERY_MAXHITS=8.
const EnvPrefix = "SHAPECAST"

// QuerySettings are the query.* keys.
type QuerySettings struct {
	// MaxHits is the per-world default hit cap; requests may override it.
	MaxHits int `mapstructure:"maxHits"`
}

// MetricsSettings are the metrics.* keys.
type MetricsSettings struct {
	Enabled bool `mapstructure:"enabled"`
}

// Settings is the full engine configuration.
type Settings struct {
	Log         logging.Settings   `mapstructure:"log"`
	Query       QuerySettings      `mapstructure:"query"`
	NarrowPhase narrowphase.Config `mapstructure:"narrowphase"`
	BroadPhase  broadphase.Config  `mapstructure:"broadphase"`
	Metrics     MetricsSettings    `mapstructure:"metrics"`
}

// SetDefaults registers a default for every key.
func SetDefaults(v *viper.Viper) {
	np := narrowphase.DefaultConfig()
	bp := broadphase.DefaultConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatAuto)

	v.SetDefault("query.maxHits", 16)

	v.SetDefault("narrowphase.maxIterations", np.MaxIterations)
	v.SetDefault("narrowphase.epsilon", np.Epsilon)

	v.SetDefault("broadphase.cellSize", bp.CellSize)
	v.SetDefault("broadphase.maxCorridorCells", bp.MaxCorridorCells)
	v.SetDefault("broadphase.gpuThreshold", bp.GPUThreshold)
	v.SetDefault("broadphase.maxObjects", bp.MaxObjects)
	v.SetDefault("broadphase.gpu", bp.GPU)

	v.SetDefault("metrics.enabled", false)
}

// RegisterFlags adds a flag per key to fs. Flag names are the config keys.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (json, yaml or toml)")
	fs.String("log.level", "info", "log level: trace, debug, info, warn, error")
	fs.String("log.format", logging.FormatAuto, "log format: auto, console, json")
	fs.Int("query.maxHits", 16, "default maximum hits per query")
	fs.Int("narrowphase.maxIterations", narrowphase.DefaultConfig().MaxIterations, "conservative advancement iteration cap")
	fs.Float32("narrowphase.epsilon", narrowphase.DefaultConfig().Epsilon, "contact distance")
	fs.Float32("broadphase.cellSize", broadphase.DefaultCellSize, "grid cell size")
	fs.Bool("broadphase.gpu", false, "enable GPU corridor culling")
	fs.Bool("metrics.enabled", false, "record OpenTelemetry metrics")
}

// Load resolves settings. path may be empty; fs may be nil. Only flags the
// user actually set override file and environment values.
func Load(path string, fs *pflag.FlagSet) (Settings, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if path == "" {
			if f := fs.Lookup("config"); f != nil {
				path = f.Value.String()
			}
		}
		var bindErr error
		fs.Visit(func(f *pflag.Flag) {
			if f.Name == "config" || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(f.Name, f)
		})
		if bindErr != nil {
			return Settings{}, fmt.Errorf("binding flags: %w", bindErr)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding config: %w", err)
	}
	if s.Query.MaxHits < 0 {
		return Settings{}, fmt.Errorf("query.maxHits must not be negative, got %d", s.Query.MaxHits)
	}
	return s, nil
}
