package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Registry   RegistryConfig   `yaml:"registry" mapstructure:"registry"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnalysisConfig tunes the verification pipeline.
type AnalysisConfig struct {
	IdentityTolerance float64 `yaml:"identity_tolerance" mapstructure:"identity_tolerance"`
	VerifyThreshold   float64 `yaml:"verify_threshold" mapstructure:"verify_threshold"`
	MaxAlternatives   int     `yaml:"max_alternatives" mapstructure:"max_alternatives"`
	FallbackCap       int     `yaml:"fallback_cap" mapstructure:"fallback_cap"`
	DefaultMarket     string  `yaml:"default_market" mapstructure:"default_market"`
	ExtendedRatios    bool    `yaml:"extended_ratios" mapstructure:"extended_ratios"`
	UseHierarchyStore bool    `yaml:"use_hierarchy_store" mapstructure:"use_hierarchy_store"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentFilings int `yaml:"max_concurrent_filings" mapstructure:"max_concurrent_filings"`
}

// RegistryConfig points at component definitions. An empty Dir uses the
// embedded set.
type RegistryConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port       int     `yaml:"port" mapstructure:"port"`
	AnalyzeRPS float64 `yaml:"analyze_rps" mapstructure:"analyze_rps"`
	// FilingRoot confines POST /analyze to directories under it. Empty
	// accepts any path or storage URL.
	FilingRoot string `yaml:"filing_root" mapstructure:"filing_root"`
}

// MonitoringConfig configures run quality checks in serve mode.
type MonitoringConfig struct {
	Enabled                  bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL               string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs        int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours      int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold     float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	IdentityFailureThreshold float64 `yaml:"identity_failure_threshold" mapstructure:"identity_failure_threshold"`
	MinRatioCoverage         float64 `yaml:"min_ratio_coverage" mapstructure:"min_ratio_coverage"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RATIOCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "ratiocheck.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("analysis.identity_tolerance", 0.005)
	v.SetDefault("analysis.verify_threshold", 55)
	v.SetDefault("analysis.max_alternatives", 5)
	v.SetDefault("analysis.fallback_cap", 10)
	v.SetDefault("analysis.default_market", "sec")
	v.SetDefault("analysis.extended_ratios", true)
	v.SetDefault("analysis.use_hierarchy_store", true)
	v.SetDefault("batch.max_concurrent_filings", 4)
	v.SetDefault("registry.dir", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.analyze_rps", 2)
	v.SetDefault("server.filing_root", "")
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.2)
	v.SetDefault("monitoring.identity_failure_threshold", 0.25)
	v.SetDefault("monitoring.min_ratio_coverage", 0.5)

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

var markets = map[string]bool{"sec": true, "esef": true, "uk_gaap": true}

// Validate checks that the configuration can serve the given mode:
// "analyze", "batch", "serve" or "migrate".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}
	if c.Store.MinConns > c.Store.MaxConns && c.Store.MaxConns > 0 {
		errs = append(errs, "store.min_conns must not exceed store.max_conns")
	}

	a := c.Analysis
	if a.IdentityTolerance <= 0 || a.IdentityTolerance >= 1 {
		errs = append(errs, "analysis.identity_tolerance must be in (0, 1)")
	}
	if a.VerifyThreshold < 0 || a.VerifyThreshold > 100 {
		errs = append(errs, "analysis.verify_threshold must be between 0 and 100")
	}
	if a.MaxAlternatives < 0 || a.FallbackCap < 0 {
		errs = append(errs, "analysis.max_alternatives and analysis.fallback_cap must be >= 0")
	}
	if a.DefaultMarket != "" && !markets[a.DefaultMarket] {
		errs = append(errs, fmt.Sprintf("analysis.default_market %q is not one of sec, esef, uk_gaap", a.DefaultMarket))
	}

	switch mode {
	case "analyze", "migrate":
	case "batch":
		if c.Batch.MaxConcurrentFilings < 1 || c.Batch.MaxConcurrentFilings > 64 {
			errs = append(errs, "batch.max_concurrent_filings must be between 1 and 64")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.AnalyzeRPS <= 0 {
			errs = append(errs, "server.analyze_rps must be > 0")
		}
		if m := c.Monitoring; m.Enabled {
			if m.LookbackWindowHours <= 0 {
				errs = append(errs, "monitoring.lookback_window_hours must be > 0")
			}
			if m.FailureRateThreshold < 0 || m.FailureRateThreshold > 1 {
				errs = append(errs, "monitoring.failure_rate_threshold must be in [0, 1]")
			}
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
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
