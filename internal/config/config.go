// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./gentax.yaml)
//  3. Default values
//
// The Gemini API key is the only required setting. It is read directly by
// the Genkit plugin at initialization time, so it is validated here but
// never stored in the Config struct.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates the required LLM API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidPort indicates the HTTP port is out of range.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidTemperature indicates the sampling temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max output tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidTopK indicates the default retrieval depth is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")
)

// Default values applied when neither the environment nor the config file
// overrides them.
const (
	DefaultModelName   = "gemini-2.5-flash"
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 512
	DefaultTopK        = 5

	DefaultSessionsFile = "sessions.json"
	DefaultKnowledgeDir = "knowledge_base"
	DefaultStaticDir    = "static"
)

// MaxTopK bounds the retrieval depth accepted from configuration and from
// chat requests.
const MaxTopK = 10

// Config stores application configuration.
type Config struct {
	// LLM configuration. The API key itself is read by Genkit from
	// GEMINI_API_KEY; only its presence is validated here.
	ModelName   string  `mapstructure:"model_name"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	// HTTP server bind address.
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Storage paths.
	SessionsFile string `mapstructure:"sessions_file"`
	KnowledgeDir string `mapstructure:"knowledge_dir"`
	StaticDir    string `mapstructure:"static_dir"`

	// Retrieval configuration.
	TopK int `mapstructure:"top_k"`
}

// Load loads configuration with priority: env > config file > defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("gentax")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"config_name", "gentax.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("max_tokens", DefaultMaxTokens)

	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)

	v.SetDefault("sessions_file", DefaultSessionsFile)
	v.SetDefault("knowledge_dir", DefaultKnowledgeDir)
	v.SetDefault("static_dir", DefaultStaticDir)

	v.SetDefault("top_k", DefaultTopK)
}

// bindEnvVariables binds environment overrides explicitly.
//
// NOTE: GEMINI_API_KEY is read directly by the Genkit GoogleAI plugin, not
// via Viper. CheckRequiredEnv validates its presence at startup.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("model_name", "GENTAX_MODEL")
	mustBind("temperature", "GENTAX_TEMPERATURE")
	mustBind("max_tokens", "GENTAX_MAX_TOKENS")
	mustBind("host", "HOST")
	mustBind("port", "PORT")
	mustBind("sessions_file", "GENTAX_SESSIONS_FILE")
	mustBind("knowledge_dir", "GENTAX_KNOWLEDGE_DIR")
	mustBind("static_dir", "GENTAX_STATIC_DIR")
	mustBind("top_k", "GENTAX_TOP_K")
}

// Validate performs fail-fast range checks on the loaded configuration.
func (c *Config) Validate() error {
	if c.ModelName == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d (must be 1-65535)", ErrInvalidPort, c.Port)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %.2f (must be 0-2)", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidMaxTokens, c.MaxTokens)
	}
	if c.TopK < 1 || c.TopK > MaxTopK {
		return fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidTopK, c.TopK, MaxTopK)
	}
	return nil
}

// CheckRequiredEnv verifies that GEMINI_API_KEY is set. The process must
// not start without it.
func CheckRequiredEnv() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable not set", ErrMissingAPIKey)
	}
	return nil
}

// Addr returns the host:port bind address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FullModelName returns the provider-qualified model name for Genkit,
// e.g. "googleai/gemini-2.5-flash". A name already containing "/" is
// returned as-is.
func (c *Config) FullModelName() string {
	for _, r := range c.ModelName {
		if r == '/' {
			return c.ModelName
		}
	}
	return "googleai/" + c.ModelName
}
