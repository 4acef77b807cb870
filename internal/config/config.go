package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api"`
	Gin      *GinConfig      `mapstructure:"gin"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Redis    *RedisConfig    `mapstructure:"redis"`
	NATS     *NATSConfig     `mapstructure:"nats"`
	Auth     *AuthConfig     `mapstructure:"auth"`
	OAuth    *OAuthConfig    `mapstructure:"oauth"`
	Telegram *TelegramConfig `mapstructure:"telegram"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	LogLevel           string   `mapstructure:"log_level"`
	Port               string   `mapstructure:"port"`
	BaseURL            string   `mapstructure:"base_url"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a keyword/value connection string for the postgres driver.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode,
	)
}

// RedisConfig is optional. An empty URL keeps identities in process memory.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// NATSConfig is optional. An empty URL delivers feed changes in process only.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type AuthConfig struct {
	TokenTTL         time.Duration `mapstructure:"token_ttl"`
	IdentityCacheTTL time.Duration `mapstructure:"identity_cache_ttl"`
	LeadEmails       []string      `mapstructure:"lead_emails"`
}

type OAuthConfig struct {
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleRedirectURL  string `mapstructure:"google_redirect_url"`
}

// Enabled reports whether Google sign-in has credentials.
func (c *OAuthConfig) Enabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.log_level", "info")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("nats.subject", "acg.events.changes")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.identity_cache_ttl", 10*time.Minute)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{
		"api.jwt_signing_key", "api.allowed_cors_domains",
		"postgres.user", "postgres.password", "postgres.db",
		"redis.url", "nats.url",
		"oauth.google_client_id", "oauth.google_client_secret", "oauth.google_redirect_url",
		"telegram.bot_token", "telegram.chat_id",
		"auth.lead_emails",
	} {
		_ = v.BindEnv(key)
	}

	return v
}

func Load(path string) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if conf.API == nil || conf.API.JWTSigningKey == "" {
		return nil, fmt.Errorf("api.jwt_signing_key is required")
	}
	conf.API.AllowedCORSDomains = splitList(conf.API.AllowedCORSDomains)
	if conf.Auth == nil {
		conf.Auth = &AuthConfig{}
	}
	conf.Auth.LeadEmails = splitList(conf.Auth.LeadEmails)
	if conf.Redis == nil {
		conf.Redis = &RedisConfig{}
	}
	if conf.NATS == nil {
		conf.NATS = &NATSConfig{}
	}
	if conf.OAuth == nil {
		conf.OAuth = &OAuthConfig{}
	}
	if conf.Telegram == nil {
		conf.Telegram = &TelegramConfig{}
	}

	return conf, nil
}

// splitList accepts both YAML lists and comma separated env values such as
// AUTH_LEAD_EMAILS="a@acg.example, b@acg.example".
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Watch re-reads the file on change and hands the fresh config to onChange.
// Decode failures are passed as errors and the previous config stays in effect.
func Watch(path string, onChange func(*AppConfig, error)) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		onChange(nil, fmt.Errorf("v.ReadInConfig -> %w", err))
		return
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		onChange(decode(v))
	})
	v.WatchConfig()
}
