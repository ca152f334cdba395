// Package config provides configuration for chatgate.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CHATGATE_HTTP_PORT.
const EnvPrefix = "CHATGATE"

// Config holds the gateway configuration.
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Run       RunConfig       `mapstructure:"run"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Access    AccessConfig    `mapstructure:"access"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Token     TokenConfig     `mapstructure:"token"`
	Scope     ScopeConfig     `mapstructure:"scope"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// ProviderConfig selects the assistant backend.
type ProviderConfig struct {
	Mode            string        `mapstructure:"mode" validate:"oneof=openai mock"`
	APIKey          string        `mapstructure:"api_key" validate:"required_if=Mode openai"`
	BaseURL         string        `mapstructure:"base_url"`
	ClassifierModel string        `mapstructure:"classifier_model"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// RunConfig controls the run poll loop.
type RunConfig struct {
	PollInterval           time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	Timeout                time.Duration `mapstructure:"timeout" validate:"gt=0"`
	AdditionalInstructions string        `mapstructure:"additional_instructions"`
}

type ChatConfig struct {
	MaxMessageChars int `mapstructure:"max_message_chars" validate:"gt=0"`
	HistoryWindow   int `mapstructure:"history_window" validate:"gt=0"`
	ResolvePageSize int `mapstructure:"resolve_page_size" validate:"gt=0"`
}

// AccessConfig is the optional allow-list. AdminToken guards thread creation.
type AccessConfig struct {
	AssistantID string `mapstructure:"assistant_id"`
	ThreadID    string `mapstructure:"thread_id"`
	AdminToken  string `mapstructure:"admin_token"`
}

type RateLimitConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown" validate:"gt=0"`
	Backend  string        `mapstructure:"backend" validate:"oneof=memory redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TokenConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type ScopeConfig struct {
	PolicyFile string `mapstructure:"policy_file"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("provider.mode", "openai")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.classifier_model", "gpt-4o-mini")
	v.SetDefault("provider.timeout", 30*time.Second)
	v.SetDefault("run.poll_interval", 800*time.Millisecond)
	v.SetDefault("run.timeout", 60*time.Second)
	v.SetDefault("run.additional_instructions", "")
	v.SetDefault("chat.max_message_chars", 4000)
	v.SetDefault("chat.history_window", 6)
	v.SetDefault("chat.resolve_page_size", 10)
	v.SetDefault("access.assistant_id", "")
	v.SetDefault("access.thread_id", "")
	v.SetDefault("access.admin_token", "")
	v.SetDefault("ratelimit.cooldown", 1500*time.Millisecond)
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("token.secret", "")
	v.SetDefault("token.ttl", 10*time.Minute)
	v.SetDefault("scope.policy_file", "")
	v.SetDefault("database.dsn", ":memory:")
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Conventional names used by existing deployments.
	if err := v.BindEnv("provider.api_key", EnvPrefix+"_PROVIDER_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("token.secret", EnvPrefix+"_TOKEN_SECRET", "JWT_SECRET"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Errorf("invalid config %s: failed %s", fe.Namespace(), fe.Tag()))
	}
	return errors.Join(msgs...)
}
