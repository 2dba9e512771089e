package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "INCUBATOR"

type Config struct {
	Port string `mapstructure:"port"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // console | json
	} `mapstructure:"log"`

	DB struct {
		Driver string `mapstructure:"driver"` // sqlite | postgres
		Path   string `mapstructure:"path"`   // sqlite file
		DSN    string `mapstructure:"dsn"`    // postgres connection string
	} `mapstructure:"db"`

	Auth struct {
		SigningKey string        `mapstructure:"signing_key"`
		TokenTTL   time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`

	Redis struct {
		Addr     string `mapstructure:"addr"` // empty disables the dedup cache
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	MQTT struct {
		Broker   string `mapstructure:"broker"` // empty disables the change feed bridge
		ClientID string `mapstructure:"client_id"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		Topic    string `mapstructure:"topic"`
	} `mapstructure:"mqtt"`

	Kafka struct {
		Brokers []string `mapstructure:"brokers"` // empty disables publishing
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`

	Webhook struct {
		URL     string        `mapstructure:"url"` // empty disables the webhook
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"webhook"`

	Polling struct {
		Evaluate time.Duration `mapstructure:"evaluate"`
		Devices  time.Duration `mapstructure:"devices"`
		AlertLog time.Duration `mapstructure:"alert_log"`
		Online   time.Duration `mapstructure:"online"`
	} `mapstructure:"polling"`

	Alerts struct {
		Cooldown time.Duration `mapstructure:"cooldown"`
	} `mapstructure:"alerts"`

	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("mqtt.client_id", "incubator-monitor")
	v.SetDefault("mqtt.topic", "incubator/+/state")
	v.SetDefault("kafka.topic", "incubator.alerts")
	v.SetDefault("webhook.timeout", 5*time.Second)
	v.SetDefault("polling.evaluate", 15*time.Second)
	v.SetDefault("polling.devices", 15*time.Second)
	v.SetDefault("polling.alert_log", 20*time.Second)
	v.SetDefault("polling.online", 30*time.Second)
	v.SetDefault("alerts.cooldown", 10*time.Minute)
	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load reads configs/config.yml (or the file at path when set), then applies
// INCUBATOR_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "sqlite":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for driver postgres")
		}
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}
	if c.Alerts.Cooldown <= 0 {
		return fmt.Errorf("alerts.cooldown must be positive")
	}
	return nil
}
