package common

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joseph-ayodele/bookmap/constants"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. BOOKMAP_SERVER_BASE_URL.
const EnvPrefix = "BOOKMAP"

// Config holds all application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Poll   PollConfig   `mapstructure:"poll"`
	UI     UIConfig     `mapstructure:"ui"`
	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds job-service connection settings
type ServerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PollConfig holds status polling settings
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// UIConfig holds notification timing and upload limits
type UIConfig struct {
	ErrorDismiss   time.Duration `mapstructure:"error_dismiss"`
	SuccessDismiss time.Duration `mapstructure:"success_dismiss"`
	Fade           time.Duration `mapstructure:"fade"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// OutputConfig holds where and how downloads are written
type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	Format      string `mapstructure:"format"`
	PageWorkers int    `mapstructure:"page_workers"`
}

// LogConfig holds slog handler settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key so env overrides are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.base_url", "http://localhost:5000")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("poll.interval", time.Second)
	v.SetDefault("ui.error_dismiss", 5*time.Second)
	v.SetDefault("ui.success_dismiss", 3*time.Second)
	v.SetDefault("ui.fade", 300*time.Millisecond)
	v.SetDefault("ui.max_upload_bytes", constants.MaxUploadBytes)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.format", "")
	v.SetDefault("output.page_workers", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig loads configuration from defaults, BOOKMAP_* environment variables and,
// when configPath is set, a YAML file. Flags bound on v by the caller win over all three.
func LoadConfig(v *viper.Viper, configPath string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return NewAppError("CONFIG_ERROR", "server.base_url must be an absolute URL", ErrInvalidInput)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewAppError("CONFIG_ERROR", "server.base_url must use http or https", ErrInvalidInput)
	}
	if c.Poll.Interval <= 0 {
		return NewAppError("CONFIG_ERROR", "poll.interval must be positive", ErrInvalidInput)
	}
	if c.UI.MaxUploadBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "ui.max_upload_bytes must be positive", ErrInvalidInput)
	}
	if c.Output.Format != "" {
		if _, ok := constants.ParseExportFormat(c.Output.Format); !ok {
			return NewAppError("CONFIG_ERROR", "output.format must be json, csv or xlsx", ErrInvalidInput)
		}
	}
	if c.Output.PageWorkers <= 0 {
		return NewAppError("CONFIG_ERROR", "output.page_workers must be positive", ErrInvalidInput)
	}
	return nil
}
