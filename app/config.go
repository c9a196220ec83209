package app

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/paw-chain/settlement/x/shared/nonce"
)

const (
	// EnvPrefix prefixes every environment variable read by the engine
	EnvPrefix = "SETTLED"

	defaultMetricsAddr = ":36660"
	defaultHealthAddr  = ":36661"
)

// Config keys. Nested keys map to SETTLED_<SECTION>_<KEY> environment variables.
const (
	FlagHome                 = "home"
	FlagDBBackend            = "db-backend"
	FlagAuthority            = "authority"
	FlagPruneBatch           = "prune-batch"
	FlagInvariantCheckPeriod = "inv-check-period"
	FlagLogLevel             = "log-level"
	FlagLogFormat            = "log-format"
	FlagMetricsAddr          = "metrics-addr"
	FlagHealthAddr           = "health-addr"

	KeyTelemetryEnabled    = "telemetry.enabled"
	KeyTelemetryEndpoint   = "telemetry.otlp-endpoint"
	KeyTelemetrySampleRate = "telemetry.sample-rate"
)

// Config is the operator configuration of an engine instance.
type Config struct {
	Home                 string          `mapstructure:"home" yaml:"home"`
	DBBackend            string          `mapstructure:"db-backend" yaml:"db-backend"`
	Authority            string          `mapstructure:"authority" yaml:"authority"`
	PruneBatch           int             `mapstructure:"prune-batch" yaml:"prune-batch"`
	InvariantCheckPeriod uint            `mapstructure:"inv-check-period" yaml:"inv-check-period"`
	LogLevel             string          `mapstructure:"log-level" yaml:"log-level"`
	LogFormat            string          `mapstructure:"log-format" yaml:"log-format"`
	MetricsAddr          string          `mapstructure:"metrics-addr" yaml:"metrics-addr"`
	HealthAddr           string          `mapstructure:"health-addr" yaml:"health-addr"`
	Telemetry            TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// DefaultConfig returns an in-memory engine configuration.
func DefaultConfig() Config {
	return Config{
		Home:                 DefaultNodeHome,
		DBBackend:            string(dbm.MemDBBackend),
		PruneBatch:           nonce.DefaultPruneBatch,
		InvariantCheckPeriod: 1,
		LogLevel:             zerolog.InfoLevel.String(),
		LogFormat:            "plain",
		MetricsAddr:          defaultMetricsAddr,
		HealthAddr:           defaultHealthAddr,
		Telemetry:            DefaultTelemetryConfig(),
	}
}

// DataDir is where persistent backends keep their files.
func (c Config) DataDir() string {
	return filepath.Join(c.Home, "data")
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch dbm.BackendType(c.DBBackend) {
	case dbm.MemDBBackend, dbm.GoLevelDBBackend:
	default:
		return fmt.Errorf("unsupported db backend %q, want %s or %s", c.DBBackend, dbm.MemDBBackend, dbm.GoLevelDBBackend)
	}
	if dbm.BackendType(c.DBBackend) != dbm.MemDBBackend && c.Home == "" {
		return fmt.Errorf("home directory is required for the %s backend", c.DBBackend)
	}
	if c.PruneBatch <= 0 {
		return fmt.Errorf("prune batch must be positive, got %d", c.PruneBatch)
	}
	switch c.LogFormat {
	case "plain", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	return c.Telemetry.Validate()
}

// NewViper returns a viper instance with the engine defaults and the
// SETTLED_ environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault(FlagHome, def.Home)
	v.SetDefault(FlagDBBackend, def.DBBackend)
	v.SetDefault(FlagAuthority, def.Authority)
	v.SetDefault(FlagPruneBatch, def.PruneBatch)
	v.SetDefault(FlagInvariantCheckPeriod, def.InvariantCheckPeriod)
	v.SetDefault(FlagLogLevel, def.LogLevel)
	v.SetDefault(FlagLogFormat, def.LogFormat)
	v.SetDefault(FlagMetricsAddr, def.MetricsAddr)
	v.SetDefault(FlagHealthAddr, def.HealthAddr)
	v.SetDefault(KeyTelemetryEnabled, def.Telemetry.Enabled)
	v.SetDefault(KeyTelemetryEndpoint, def.Telemetry.OTLPEndpoint)
	v.SetDefault(KeyTelemetrySampleRate, def.Telemetry.SampleRate)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ReadConfigFile merges a YAML or TOML config file into v. The format is
// taken from the file extension.
func ReadConfigFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// ConfigFromViper builds a Config from v. Values from the environment arrive
// as strings and are coerced with cast.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	pruneBatch, err := cast.ToIntE(v.Get(FlagPruneBatch))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", FlagPruneBatch, err)
	}
	period, err := cast.ToUintE(v.Get(FlagInvariantCheckPeriod))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", FlagInvariantCheckPeriod, err)
	}
	telemetryEnabled, err := cast.ToBoolE(v.Get(KeyTelemetryEnabled))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyTelemetryEnabled, err)
	}
	sampleRate, err := cast.ToFloat64E(v.Get(KeyTelemetrySampleRate))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyTelemetrySampleRate, err)
	}

	cfg := Config{
		Home:                 cast.ToString(v.Get(FlagHome)),
		DBBackend:            cast.ToString(v.Get(FlagDBBackend)),
		Authority:            cast.ToString(v.Get(FlagAuthority)),
		PruneBatch:           pruneBatch,
		InvariantCheckPeriod: period,
		LogLevel:             cast.ToString(v.Get(FlagLogLevel)),
		LogFormat:            cast.ToString(v.Get(FlagLogFormat)),
		MetricsAddr:          cast.ToString(v.Get(FlagMetricsAddr)),
		HealthAddr:           cast.ToString(v.Get(FlagHealthAddr)),
		Telemetry: TelemetryConfig{
			Enabled:      telemetryEnabled,
			OTLPEndpoint: cast.ToString(v.Get(KeyTelemetryEndpoint)),
			SampleRate:   sampleRate,
		},
	}
	return cfg, cfg.Validate()
}

// NewLogger builds the engine logger. The level is either a plain zerolog
// level or a module filter such as "x/settlement:debug,*:info".
func NewLogger(cfg Config, out io.Writer) (log.Logger, error) {
	var opts []log.Option
	if cfg.LogFormat == "json" {
		opts = append(opts, log.OutputJSONOption())
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		filter, ferr := log.ParseLogLevel(cfg.LogLevel)
		if ferr != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, ferr)
		}
		opts = append(opts, log.FilterOption(filter))
	} else {
		opts = append(opts, log.LevelOption(level))
	}
	return log.NewLogger(out, opts...), nil
}
