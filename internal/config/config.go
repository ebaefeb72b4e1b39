// Package config loads application configuration from file and environment.
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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	CPQ        CPQConfig        `yaml:"cpq" mapstructure:"cpq"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	FTP        FTPConfig        `yaml:"ftp" mapstructure:"ftp"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CPQConfig holds CPQ REST API settings. Token takes precedence over
// Username/Password when both are set.
type CPQConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Token       string  `yaml:"token" mapstructure:"token"`
	Username    string  `yaml:"username" mapstructure:"username"`
	Password    string  `yaml:"password" mapstructure:"password"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffMs   int     `yaml:"backoff_ms" mapstructure:"backoff_ms"`
}

// SalesforceConfig holds Salesforce JWT auth settings. Salesforce is only
// used for transaction ID discovery and is optional; leave ClientID empty
// to disable it.
type SalesforceConfig struct {
	ClientID  string  `yaml:"client_id" mapstructure:"client_id"`
	Username  string  `yaml:"username" mapstructure:"username"`
	KeyPath   string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL  string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ValidationConfig tunes comparison tolerances.
type ValidationConfig struct {
	NumericTolerance    float64 `yaml:"numeric_tolerance" mapstructure:"numeric_tolerance"`
	PercentageTolerance float64 `yaml:"percentage_tolerance" mapstructure:"percentage_tolerance"`
}

// ExtractConfig configures document field extraction.
type ExtractConfig struct {
	SpecPath      string `yaml:"spec_path" mapstructure:"spec_path"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// FTPConfig holds credentials for the document inbox FTP server.
type FTPConfig struct {
	Host        string `yaml:"host" mapstructure:"host"`
	User        string `yaml:"user" mapstructure:"user"`
	Password    string `yaml:"password" mapstructure:"password"`
	Dir         string `yaml:"dir" mapstructure:"dir"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// BatchConfig configures batch validation. The breaker settings stop a
// batch from hammering a dead API: after BreakerThreshold consecutive
// transient failures, remaining documents fail fast until the reset
// timeout expires.
type BatchConfig struct {
	MaxConcurrentDocuments int `yaml:"max_concurrent_documents" mapstructure:"max_concurrent_documents"`
	BreakerThreshold       int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs       int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ServerConfig configures the validation HTTP server.
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
	v.SetEnvPrefix("QUOTEAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "quote-audit.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_documents", 4)
	v.SetDefault("batch.breaker_threshold", 5)
	v.SetDefault("batch.breaker_reset_secs", 30)
	v.SetDefault("cpq.timeout_secs", 30)
	v.SetDefault("cpq.rate_limit", 5)
	v.SetDefault("cpq.max_retries", 3)
	v.SetDefault("cpq.backoff_ms", 500)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 5)
	v.SetDefault("validation.numeric_tolerance", 0.01)
	v.SetDefault("validation.percentage_tolerance", 0.01)
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("ftp.dir", "/")
	v.SetDefault("ftp.timeout_secs", 30)

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
