package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Scope    ScopeConfig    `yaml:"scope" mapstructure:"scope"`
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Outlier  OutlierConfig  `yaml:"outlier" mapstructure:"outlier"`
	Derived  DerivedConfig  `yaml:"derived" mapstructure:"derived"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Geo      GeoConfig      `yaml:"geo" mapstructure:"geo"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ScopeConfig selects the warehouse slice a run assesses.
type ScopeConfig struct {
	CountryCode string `yaml:"country_code" mapstructure:"country_code"`
	UnitLevel   int    `yaml:"unit_level" mapstructure:"unit_level"`
	// DateMin/DateMax are inclusive "YYYY-MM" bounds; empty means the full
	// observed range.
	DateMin string `yaml:"date_min" mapstructure:"date_min"`
	DateMax string `yaml:"date_max" mapstructure:"date_max"`
}

// SourceConfig configures where raw observations come from.
type SourceConfig struct {
	// Driver selects the adapter: postgres, csv, http, or ftp.
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// Path is the local CSV extract for the csv driver.
	Path string `yaml:"path" mapstructure:"path"`
	// URL is the API base URL (http driver) or dump URL (ftp driver).
	URL         string  `yaml:"url" mapstructure:"url"`
	Token       string  `yaml:"token" mapstructure:"token"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	TempDir     string  `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// OutlierConfig tunes the outlier detector.
type OutlierConfig struct {
	Method        string  `yaml:"method" mapstructure:"method"`
	ZThreshold    float64 `yaml:"z_threshold" mapstructure:"z_threshold"`
	IQRMultiplier float64 `yaml:"iqr_multiplier" mapstructure:"iqr_multiplier"`
	MinGroupSize  int     `yaml:"min_group_size" mapstructure:"min_group_size"`
	GroupByUnit   bool    `yaml:"group_by_unit" mapstructure:"group_by_unit"`
}

// DerivedConfig tunes the derived-indicator calculator.
type DerivedConfig struct {
	// RegistryPath points at a YAML derived-indicator registry; empty uses
	// the built-in definitions.
	RegistryPath    string `yaml:"registry_path" mapstructure:"registry_path"`
	SmoothingWindow int    `yaml:"smoothing_window" mapstructure:"smoothing_window"`
}

// RegistryConfig configures the indicator-mapping registry.
type RegistryConfig struct {
	// MappingPath is the indicator mapping CSV.
	MappingPath string `yaml:"mapping_path" mapstructure:"mapping_path"`
	// NotionToken/NotionDB select the Notion-backed registry instead of CSV.
	NotionToken string `yaml:"notion_token" mapstructure:"notion_token"`
	NotionDB    string `yaml:"notion_db" mapstructure:"notion_db"`
}

// GeoConfig configures the unit-master geographic lookup.
type GeoConfig struct {
	// ShapefilePath points at the unit boundary shapefile.
	ShapefilePath string `yaml:"shapefile_path" mapstructure:"shapefile_path"`
	// UnitIDField is the attribute carrying the unit identifier.
	UnitIDField string `yaml:"unit_id_field" mapstructure:"unit_id_field"`
	// UnitNameField is the attribute carrying the unit name.
	UnitNameField string `yaml:"unit_name_field" mapstructure:"unit_name_field"`
}

// ExportConfig configures run outputs.
type ExportConfig struct {
	WorkbookPath string `yaml:"workbook_path" mapstructure:"workbook_path"`
	GeoCSVPath   string `yaml:"geo_csv_path" mapstructure:"geo_csv_path"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the reporting API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("scope.country_code", "KEN")
	v.SetDefault("scope.unit_level", 4)
	v.SetDefault("source.driver", "postgres")
	v.SetDefault("source.timeout_secs", 60)
	v.SetDefault("source.rate_per_sec", 5)
	v.SetDefault("source.max_retries", 2)
	v.SetDefault("source.temp_dir", "/tmp/dq-cli")
	v.SetDefault("outlier.method", "zscore")
	v.SetDefault("outlier.z_threshold", 3)
	v.SetDefault("outlier.iqr_multiplier", 1.5)
	v.SetDefault("outlier.min_group_size", 3)
	v.SetDefault("outlier.group_by_unit", false)
	v.SetDefault("derived.smoothing_window", 0)
	v.SetDefault("geo.unit_id_field", "unit_code")
	v.SetDefault("geo.unit_name_field", "unit_name")
	v.SetDefault("export.workbook_path", "dq_review.xlsx")
	v.SetDefault("export.geo_csv_path", "dq_unit_with_outliers.csv")
	v.SetDefault("store.path", "dq_runs.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
