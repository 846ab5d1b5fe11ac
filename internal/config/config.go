// Package config loads application configuration from file and environment
// and initializes the global logger.
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
	Provider   ProviderConfig   `yaml:"provider" mapstructure:"provider"`
	OpenRouter OpenRouterConfig `yaml:"openrouter" mapstructure:"openrouter"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	FTP        FTPConfig        `yaml:"ftp" mapstructure:"ftp"`
	Schema     SchemaConfig     `yaml:"schema" mapstructure:"schema"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ProviderConfig selects the external analysis provider.
type ProviderConfig struct {
	// Name is "openrouter" or "anthropic". Analysis falls back to the rule
	// engine when the named provider has no credential configured.
	Name        string `yaml:"name" mapstructure:"name"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// OpenRouterConfig holds OpenRouter API settings.
type OpenRouterConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	Model          string  `yaml:"model" mapstructure:"model"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// SalesforceConfig holds Salesforce JWT auth settings and the opportunity
// query used for CRM ingestion.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
	SOQL     string `yaml:"soql" mapstructure:"soql"`
}

// FTPConfig configures remote drop-folder fetching.
type FTPConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SchemaConfig points at an optional YAML overlay for the field registry.
type SchemaConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// IngestConfig configures the file extractors.
type IngestConfig struct {
	MaxConcurrentFiles int     `yaml:"max_concurrent_files" mapstructure:"max_concurrent_files"`
	PdfToTextPath      string  `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MaxPDFAmounts      int     `yaml:"max_pdf_amounts" mapstructure:"max_pdf_amounts"`
	MinDealAmount      float64 `yaml:"min_deal_amount" mapstructure:"min_deal_amount"`
}

// StoreConfig configures the run-history backend. An empty driver disables
// run recording.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the analysis HTTP server.
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
	v.SetEnvPrefix("REVWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("provider.name", "openrouter")
	v.SetDefault("provider.timeout_secs", 30)
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "mistralai/mistral-7b-instruct")
	v.SetDefault("openrouter.requests_per_sec", 2)
	v.SetDefault("openrouter.max_retries", 3)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.soql", "SELECT Id, Name, Amount, StageName, CloseDate, Discount__c FROM Opportunity WHERE IsClosed = false")
	v.SetDefault("ftp.timeout_secs", 30)
	v.SetDefault("ingest.max_concurrent_files", 4)
	v.SetDefault("ingest.pdftotext_path", "pdftotext")
	v.SetDefault("ingest.max_pdf_amounts", 5)
	v.SetDefault("ingest.min_deal_amount", 1000)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "revwatch.db")
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
