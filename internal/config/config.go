package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/signalpro/internal/core"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Refresh RefreshConfig `mapstructure:"refresh"`
	Chart   ChartConfig   `mapstructure:"chart"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Alerts  AlertsConfig  `mapstructure:"alerts"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
	// TemplatesDir overrides the embedded dashboard templates.
	TemplatesDir string `mapstructure:"templates_dir"`
}

// RefreshConfig controls the confidence drift loop.
type RefreshConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Floor     float64       `mapstructure:"floor"`
	Ceiling   float64       `mapstructure:"ceiling"`
	Amplitude float64       `mapstructure:"amplitude"`
	// ClampOnSeed pulls fixtures below Floor up at seed time instead of
	// leaving them for the first tick.
	ClampOnSeed bool  `mapstructure:"clamp_on_seed"`
	Seed        int64 `mapstructure:"seed"` // 0 = seeded from the clock
}

// ChartConfig controls the generated price series.
type ChartConfig struct {
	Asset     string  `mapstructure:"asset"`
	Points    int     `mapstructure:"points"`
	BasePrice float64 `mapstructure:"base_price"`
	Width     int     `mapstructure:"width"`  // PNG pixels
	Height    int     `mapstructure:"height"` // PNG pixels
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ArchiveConfig selects where exported snapshots are written.
type ArchiveConfig struct {
	Type     string   `mapstructure:"type"` // "localfs" or "s3"
	Path     string   `mapstructure:"path"` // For localfs
	S3       S3Config `mapstructure:"s3"`   // For S3
	Schedule string   `mapstructure:"schedule"`
	Retain   int      `mapstructure:"retain"` // newest reports kept, 0 = all
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// AlertsConfig holds the rules checked after every refresh tick and where
// fired alerts are delivered.
type AlertsConfig struct {
	Cooldown time.Duration     `mapstructure:"cooldown"`
	Rules    []AlertRuleConfig `mapstructure:"rules"`
	Webhook  WebhookConfig     `mapstructure:"webhook"`
	Telegram TelegramConfig    `mapstructure:"telegram"`
}

// AlertRuleConfig is one "metric op value" rule, e.g. "min_confidence < 62".
type AlertRuleConfig struct {
	Name     string        `mapstructure:"name"`
	Expr     string        `mapstructure:"expr"`
	For      time.Duration `mapstructure:"for"`
	Severity string        `mapstructure:"severity"`
	Message  string        `mapstructure:"message"`
}

type WebhookConfig struct {
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// Load reads configuration from file. Keys missing from the file keep
// their Defaults() values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("refresh.interval", d.Refresh.Interval)
	v.SetDefault("refresh.floor", d.Refresh.Floor)
	v.SetDefault("refresh.ceiling", d.Refresh.Ceiling)
	v.SetDefault("refresh.amplitude", d.Refresh.Amplitude)
	v.SetDefault("refresh.clamp_on_seed", d.Refresh.ClampOnSeed)
	v.SetDefault("chart.asset", d.Chart.Asset)
	v.SetDefault("chart.points", d.Chart.Points)
	v.SetDefault("chart.base_price", d.Chart.BasePrice)
	v.SetDefault("chart.width", d.Chart.Width)
	v.SetDefault("chart.height", d.Chart.Height)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("alerts.cooldown", d.Alerts.Cooldown)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Refresh: RefreshConfig{
			Interval:  3 * time.Second,
			Floor:     60,
			Ceiling:   100,
			Amplitude: 3,
		},
		Chart: ChartConfig{
			Asset:     "EURUSD",
			Points:    20,
			BasePrice: 1.095,
			Width:     800,
			Height:    400,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "./data/archive",
		},
		Alerts: AlertsConfig{
			Cooldown: 5 * time.Minute,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Refresh validation
	r := c.Refresh
	if r.Interval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("refresh interval must be positive, got %s", r.Interval))
	}
	if r.Floor < 0 || r.Ceiling > 100 || r.Floor >= r.Ceiling {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("refresh bounds must satisfy 0 <= floor < ceiling <= 100, got [%g, %g]", r.Floor, r.Ceiling))
	}
	if r.Amplitude < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("refresh amplitude cannot be negative, got %g", r.Amplitude))
	}

	if c.Chart.Points < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("chart needs at least 2 points, got %d", c.Chart.Points))
	}

	// Archive validation
	switch c.Archive.Type {
	case "localfs":
		if c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required when type is localfs"))
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when archive type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type %q", c.Archive.Type))
	}
	if c.Archive.Retain < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("archive retain cannot be negative, got %d", c.Archive.Retain))
	}
	if c.Archive.Schedule != "" {
		if _, err := cron.ParseStandard(c.Archive.Schedule); err != nil {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("archive schedule: %w", err))
		}
	}

	// Alert validation
	if c.Alerts.Cooldown < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("alert cooldown cannot be negative, got %s", c.Alerts.Cooldown))
	}
	seen := make(map[string]bool, len(c.Alerts.Rules))
	for i, rule := range c.Alerts.Rules {
		if rule.Name == "" || rule.Expr == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("alert rule %d needs a name and an expr", i))
		}
		if seen[rule.Name] {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("duplicate alert rule %q", rule.Name))
		}
		seen[rule.Name] = true
	}
	if c.Alerts.Telegram.BotToken != "" && c.Alerts.Telegram.ChatID == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("telegram chat_id required when bot_token is set"))
	}

	return nil
}
