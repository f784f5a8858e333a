// Package config loads tool configuration from file and environment and
// initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/geohash-cli/internal/enrich"
	"github.com/sells-group/geohash-cli/pkg/geohash"
)

// maxBase32Precision is the deepest base-32 geohash level the codec emits.
const maxBase32Precision = 12

// maxBinaryPrecision caps binary geohashes at one bit per float64 mantissa
// step per axis, which is already far past useful resolution.
const maxBinaryPrecision = 64

// Config holds the full application configuration.
type Config struct {
	Enrich EnrichConfig `yaml:"enrich" mapstructure:"enrich"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// EnrichConfig configures the record transformation and batch routing.
type EnrichConfig struct {
	Mode            string `yaml:"mode" mapstructure:"mode"`
	RoutingStrategy string `yaml:"routing_strategy" mapstructure:"routing_strategy"`
	GeohashFormat   string `yaml:"geohash_format" mapstructure:"geohash_format"`
	Precision       int    `yaml:"precision" mapstructure:"precision"`
	LatitudePath    string `yaml:"latitude_path" mapstructure:"latitude_path"`
	LongitudePath   string `yaml:"longitude_path" mapstructure:"longitude_path"`
	GeohashPath     string `yaml:"geohash_path" mapstructure:"geohash_path"`
}

// StoreConfig configures run-history persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite, postgres, off
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite database file
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the enrichment HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the built-in configuration, also used by `init` to write a
// starter config file.
func Default() *Config {
	return &Config{
		Enrich: EnrichConfig{
			Mode:            string(enrich.ModeEncode),
			RoutingStrategy: string(enrich.StrategySkipUnenriched),
			GeohashFormat:   string(geohash.Base32),
			Precision:       maxBase32Precision,
			LatitudePath:    "/latitude",
			LongitudePath:   "/longitude",
			GeohashPath:     "/geohash",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "geohash.db",
		},
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOHASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	def := Default()
	v.SetDefault("enrich.mode", def.Enrich.Mode)
	v.SetDefault("enrich.routing_strategy", def.Enrich.RoutingStrategy)
	v.SetDefault("enrich.geohash_format", def.Enrich.GeohashFormat)
	v.SetDefault("enrich.precision", def.Enrich.Precision)
	v.SetDefault("enrich.latitude_path", def.Enrich.LatitudePath)
	v.SetDefault("enrich.longitude_path", def.Enrich.LongitudePath)
	v.SetDefault("enrich.geohash_path", def.Enrich.GeohashPath)
	v.SetDefault("store.driver", def.Store.Driver)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the enrichment configuration against the values the core
// accepts.
func (c *Config) Validate() error {
	e := c.Enrich
	switch enrich.Mode(e.Mode) {
	case enrich.ModeEncode, enrich.ModeDecode:
	default:
		return eris.Errorf("config: invalid mode %q", e.Mode)
	}

	switch enrich.Strategy(e.RoutingStrategy) {
	case enrich.StrategySkipUnenriched, enrich.StrategySplit, enrich.StrategyRequireAllEnriched:
	default:
		return eris.Errorf("config: invalid routing_strategy %q", e.RoutingStrategy)
	}

	switch geohash.Format(e.GeohashFormat) {
	case geohash.Base32:
		if e.Precision < 1 || e.Precision > maxBase32Precision {
			return eris.Errorf("config: base32 precision must be 1..%d, got %d", maxBase32Precision, e.Precision)
		}
	case geohash.Binary:
		if e.Precision < 1 || e.Precision > maxBinaryPrecision {
			return eris.Errorf("config: binary precision must be 1..%d, got %d", maxBinaryPrecision, e.Precision)
		}
	default:
		return eris.Errorf("config: invalid geohash_format %q", e.GeohashFormat)
	}

	for _, p := range []string{e.LatitudePath, e.LongitudePath, e.GeohashPath} {
		if !strings.HasPrefix(p, "/") {
			return eris.Errorf("config: record path %q must start with /", p)
		}
	}

	switch c.Store.Driver {
	case "sqlite", "off":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required for the postgres driver")
		}
	default:
		return eris.Errorf("config: invalid store.driver %q", c.Store.Driver)
	}

	return nil
}

// Transformer builds the record transformer described by the enrichment
// configuration. Call Validate first.
func (e EnrichConfig) Transformer() *enrich.Transformer {
	return &enrich.Transformer{
		Mode:        enrich.Mode(e.Mode),
		Format:      geohash.Format(e.GeohashFormat),
		Precision:   e.Precision,
		LatPath:     e.LatitudePath,
		LonPath:     e.LongitudePath,
		GeohashPath: e.GeohashPath,
	}
}

// Router builds the batch router described by the enrichment configuration.
func (e EnrichConfig) Router() *enrich.Router {
	return &enrich.Router{
		Transformer: e.Transformer(),
		Strategy:    enrich.Strategy(e.RoutingStrategy),
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
