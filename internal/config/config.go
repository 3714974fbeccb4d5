package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigRelPath = ".wandermate/config.yaml"

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	MaxRetries  int     `yaml:"max_retries"`
}

type CacheConfig struct {
	Backend    string `yaml:"backend"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	RedisAddr  string `yaml:"redis_addr"`
	RedisDB    int    `yaml:"redis_db"`
}

// TTL returns the configured entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type AmadeusConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Currency  string `yaml:"currency"`
}

type EndpointConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type UpstreamConfig struct {
	TimeoutSeconds int            `yaml:"timeout_seconds"`
	Amadeus        AmadeusConfig  `yaml:"amadeus"`
	OpenCage       EndpointConfig `yaml:"opencage"`
	Places         EndpointConfig `yaml:"places"`
	Weather        EndpointConfig `yaml:"weather"`
}

// Timeout returns the HTTP client timeout for upstream calls.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	SecureCookie   bool     `yaml:"secure_cookie"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Cache    CacheConfig    `yaml:"cache"`
	Store    StoreConfig    `yaml:"store"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// Load loads YAML config, then applies env overrides.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		configPath = filepath.Join(home, defaultConfigRelPath)
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.SetDefaults()
	return cfg, nil
}

func (c *Config) SetDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "gemini"
	}
	if c.LLM.BaseURL == "" && c.LLM.Provider == "openai" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		if c.LLM.Provider == "openai" {
			c.LLM.Model = "gpt-4o-mini"
		} else {
			c.LLM.Model = "gemini-2.5-flash"
		}
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2048
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 604800
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = "127.0.0.1:6379"
	}
	if c.Store.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Store.Path = filepath.Join(home, ".wandermate", "wandermate.db")
		} else {
			c.Store.Path = "wandermate.db"
		}
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 30
	}
	if c.Upstream.Amadeus.BaseURL == "" {
		c.Upstream.Amadeus.BaseURL = "https://test.api.amadeus.com"
	}
	if c.Upstream.Amadeus.Currency == "" {
		c.Upstream.Amadeus.Currency = "INR"
	}
	if c.Upstream.OpenCage.BaseURL == "" {
		c.Upstream.OpenCage.BaseURL = "https://api.opencagedata.com/geocode/v1"
	}
	if c.Upstream.Places.BaseURL == "" {
		c.Upstream.Places.BaseURL = "https://maps.googleapis.com/maps/api/place"
	}
	if c.Upstream.Weather.BaseURL == "" {
		c.Upstream.Weather.BaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("cache.backend %q is not one of memory, sqlite, redis", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds <= 0 {
		return errors.New("cache.ttl_seconds must be positive")
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("llm.provider %q is not one of gemini, openai", c.LLM.Provider)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path cannot be empty")
	}
	return nil
}

// ValidateServe enforces requirements for commands that call the text model.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return errors.New("llm.api_key cannot be empty")
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

func applyEnvOverrides(c *Config) {
	// Conventional provider variables first so WANDERMATE_* wins.
	setString(&c.LLM.APIKey, "GEMINI_API_KEY")
	if c.LLM.Provider == "openai" {
		setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	}
	setString(&c.Upstream.OpenCage.APIKey, "OPENCAGE_API_KEY")
	setString(&c.Upstream.Amadeus.APIKey, "AMADEUS_API_KEY")
	setString(&c.Upstream.Amadeus.APISecret, "AMADEUS_API_SECRET")
	setString(&c.Upstream.Places.APIKey, "GOOGLE_PLACES_API_KEY")
	setString(&c.Upstream.Weather.APIKey, "OPENWEATHER_API_KEY")

	setString(&c.LLM.Provider, "WANDERMATE_LLM_PROVIDER")
	setString(&c.LLM.APIKey, "WANDERMATE_LLM_API_KEY")
	setString(&c.LLM.BaseURL, "WANDERMATE_LLM_BASE_URL")
	setString(&c.LLM.Model, "WANDERMATE_LLM_MODEL")
	setInt(&c.LLM.MaxTokens, "WANDERMATE_LLM_MAX_TOKENS")
	setFloat(&c.LLM.Temperature, "WANDERMATE_LLM_TEMPERATURE")
	setInt(&c.LLM.MaxRetries, "WANDERMATE_LLM_MAX_RETRIES")
	setString(&c.Cache.Backend, "WANDERMATE_CACHE_BACKEND")
	setInt(&c.Cache.TTLSeconds, "WANDERMATE_CACHE_TTL_SECONDS")
	setString(&c.Cache.RedisAddr, "WANDERMATE_REDIS_ADDR")
	setString(&c.Store.Path, "WANDERMATE_STORE_PATH")
	setString(&c.Server.Host, "WANDERMATE_SERVER_HOST")
	setInt(&c.Server.Port, "WANDERMATE_SERVER_PORT")
	setString(&c.Log.Level, "WANDERMATE_LOG_LEVEL")
	setString(&c.Log.Format, "WANDERMATE_LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = n
		}
	}
}
