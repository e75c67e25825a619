// Package app provides the application initialization and wiring.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/zerowrap"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/bnema/dockyard/internal/adapters/out/telemetry"
	"github.com/bnema/dockyard/internal/domain"
	"github.com/bnema/dockyard/internal/usecase/cron"
	"github.com/bnema/dockyard/pkg/bytesize"
)

// Config holds the application configuration.
type Config struct {
	Server struct {
		Addr           string   `mapstructure:"addr"`
		DataDir        string   `mapstructure:"data_dir"`
		TrustedProxies []string `mapstructure:"trusted_proxies"`
	} `mapstructure:"server"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		File   struct {
			Enabled    bool   `mapstructure:"enabled"`
			Path       string `mapstructure:"path"`
			MaxSize    int    `mapstructure:"max_size"`
			MaxBackups int    `mapstructure:"max_backups"`
			MaxAge     int    `mapstructure:"max_age"`
		} `mapstructure:"file"`
	} `mapstructure:"logging"`

	Webhook struct {
		Path        string `mapstructure:"path"`
		Token       string `mapstructure:"token"`
		MaxBodySize string `mapstructure:"max_body_size"`
		RateLimit   struct {
			Enabled bool          `mapstructure:"enabled"`
			RPS     float64       `mapstructure:"rps"`
			Burst   int           `mapstructure:"burst"`
			IdleTTL time.Duration `mapstructure:"idle_ttl"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"webhook"`

	Sync struct {
		Enabled    bool     `mapstructure:"enabled"`
		Schedule   string   `mapstructure:"schedule"`
		Prune      bool     `mapstructure:"prune"`
		Registries []string `mapstructure:"registries"`
	} `mapstructure:"sync"`

	Telemetry telemetry.Config `mapstructure:"telemetry"`

	// Registries holds catalogue credentials, one entry per hostname.
	Registries []RegistryCredentials `mapstructure:"registries"`

	// webhookBodyLimit is Webhook.MaxBodySize in bytes.
	webhookBodyLimit int64
}

// RegistryCredentials authenticate catalogue sync against one registry.
type RegistryCredentials struct {
	Hostname string `mapstructure:"hostname"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
	Insecure bool   `mapstructure:"insecure"`
}

// DefaultDataDir returns the default data directory path.
// Uses ~/.dockyard for user installations, /var/lib/dockyard as fallback.
func DefaultDataDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".dockyard")
	}
	return "/var/lib/dockyard"
}

// ConfigureViper sets up viper with the config file search paths.
// Config file: dockyard.yml
// Search paths (in order): /etc/dockyard, ~/.config/dockyard, current directory
func ConfigureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.SetConfigName("dockyard")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/dockyard")
	v.AddConfigPath("$HOME/.config/dockyard")
	v.AddConfigPath(".")
}

// loadConfig reads the config file, if any, on top of the defaults and
// enables DOCKYARD_* environment overrides.
func loadConfig(v *viper.Viper, configPath string) error {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.data_dir", DefaultDataDir())
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("database.path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size", 100)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age", 28)
	v.SetDefault("webhook.path", "/v2/webhooks/events")
	v.SetDefault("webhook.token", "")
	v.SetDefault("webhook.max_body_size", "1MB")
	v.SetDefault("webhook.rate_limit.enabled", true)
	v.SetDefault("webhook.rate_limit.rps", 20)
	v.SetDefault("webhook.rate_limit.burst", 50)
	v.SetDefault("webhook.rate_limit.idle_ttl", "10m")
	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.schedule", string(domain.ScheduleDaily))
	v.SetDefault("sync.prune", false)
	v.SetDefault("sync.registries", []string{})
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.traces", true)
	v.SetDefault("telemetry.metrics", true)
	v.SetDefault("telemetry.trace_sample_rate", 1.0)

	ConfigureViper(v, configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("DOCKYARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return nil
}

// initConfig loads and validates the configuration.
func initConfig(configPath string) (Config, error) {
	v := viper.New()
	if err := loadConfig(v, configPath); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(cfg.Server.DataDir, "dockyard.db")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	limit, err := bytesize.Parse(cfg.Webhook.MaxBodySize)
	if err != nil || limit == 0 {
		return Config{}, fmt.Errorf("%w: webhook.max_body_size %q", domain.ErrInvalidConfig, cfg.Webhook.MaxBodySize)
	}
	cfg.webhookBodyLimit = limit

	return cfg, nil
}

func (c Config) validate() error {
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", domain.ErrInvalidConfig, err)
	}
	if c.Sync.Enabled {
		if _, err := cron.ParsePreset(c.Sync.Schedule); err != nil {
			return fmt.Errorf("sync.schedule: %w", err)
		}
	}
	if !strings.HasPrefix(c.Webhook.Path, "/") {
		return fmt.Errorf("%w: webhook.path must start with /", domain.ErrInvalidConfig)
	}
	if c.Telemetry.TraceSampleRate < 0 || c.Telemetry.TraceSampleRate > 1 {
		return fmt.Errorf("%w: telemetry.trace_sample_rate must be within [0, 1]", domain.ErrInvalidConfig)
	}
	return nil
}

// initLogger initializes the zerowrap logger.
func initLogger(cfg Config) (zerowrap.Logger, func(), error) {
	logConfig := zerowrap.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}

	if !cfg.Logging.File.Enabled {
		return zerowrap.New(logConfig), func() {}, nil
	}

	logPath := cfg.Logging.File.Path
	if logPath == "" {
		logPath = filepath.Join(cfg.Server.DataDir, "logs", "dockyard.log")
	}

	log, cleanup, err := zerowrap.NewWithFile(logConfig, zerowrap.FileConfig{
		Enabled:    true,
		Path:       logPath,
		MaxSize:    cfg.Logging.File.MaxSize,
		MaxBackups: cfg.Logging.File.MaxBackups,
		MaxAge:     cfg.Logging.File.MaxAge,
		Compress:   true,
	})
	if err != nil {
		return zerowrap.Default(), nil, fmt.Errorf("failed to create logger with file: %w", err)
	}
	return log, cleanup, nil
}
