// Package config loads service settings from an optional file and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DataSourceHTTP     = "http"
	DataSourcePostgres = "postgres"
)

type Config struct {
	Port       string
	AppEnv     string
	AppVersion string

	APIBaseURL string
	DataSource string
	DB         Database

	RedisHost     string
	RedisPassword string
	SessionTTL    time.Duration

	KafkaBroker string
	KafkaTopic  string

	ElasticsearchURL string
	AuditIndex       string

	SentryDSN string

	LogLevel  string
	LogFormat string
}

type Database struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, d.Port,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "dev")
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("data.source", DataSourceHTTP)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "wellness")
	v.SetDefault("db.port", "5432")
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("kafka.broker", "")
	v.SetDefault("kafka.topic", "client_form_events")
	v.SetDefault("elasticsearch.url", "")
	v.SetDefault("audit.index", "client_form_submissions")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads CONFIG_FILE when set, then lets environment variables such as
// REDIS_HOST or KAFKA_BROKER override individual keys.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("config_file", "CONFIG_FILE"); err != nil {
		return nil, err
	}
	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:       v.GetString("port"),
		AppEnv:     v.GetString("app.env"),
		AppVersion: v.GetString("app.version"),
		APIBaseURL: v.GetString("api.base_url"),
		DataSource: strings.ToLower(v.GetString("data.source")),
		DB: Database{
			Host:     v.GetString("db.host"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
			Port:     v.GetString("db.port"),
		},
		RedisHost:        v.GetString("redis.host"),
		RedisPassword:    v.GetString("redis.password"),
		SessionTTL:       v.GetDuration("session.ttl"),
		KafkaBroker:      v.GetString("kafka.broker"),
		KafkaTopic:       v.GetString("kafka.topic"),
		ElasticsearchURL: v.GetString("elasticsearch.url"),
		AuditIndex:       v.GetString("audit.index"),
		SentryDSN:        v.GetString("sentry.dsn"),
		LogLevel:         v.GetString("log.level"),
		LogFormat:        v.GetString("log.format"),
	}

	switch cfg.DataSource {
	case DataSourceHTTP, DataSourcePostgres:
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", cfg.SessionTTL)
	}
	return cfg, nil
}
