package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:",squash"`
	Server     ServerConfig     `mapstructure:",squash"`
	ToolServer ToolServerConfig `mapstructure:",squash"`
	Security   SecurityConfig   `mapstructure:",squash"`
	Completion CompletionConfig `mapstructure:",squash"`
	Tools      ToolsConfig      `mapstructure:",squash"`
	GoogleAPI  GoogleAPIConfig  `mapstructure:",squash"`
	Redis      RedisConfig      `mapstructure:",squash"`
	RateLimit  RateLimitConfig  `mapstructure:",squash"`
}

type AppConfig struct {
	Env             string `mapstructure:"APP_ENV"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	DefaultTimeZone string `mapstructure:"DEFAULT_TIME_ZONE"`
}

type ServerConfig struct {
	Host string `mapstructure:"HOST"`
	Port int    `mapstructure:"PORT"`
}

type ToolServerConfig struct {
	Host string `mapstructure:"TOOL_SERVER_HOST"`
	Port int    `mapstructure:"TOOL_SERVER_PORT"`
}

type SecurityConfig struct {
	SigningKey      string        `mapstructure:"SIGNING_KEY"`
	ConfirmTokenTTL time.Duration `mapstructure:"CONFIRM_TOKEN_TTL"`
	TokenSingleUse  bool          `mapstructure:"TOKEN_SINGLE_USE"`
}

type CompletionConfig struct {
	Provider     string        `mapstructure:"COMPLETION_PROVIDER"`
	BaseURL      string        `mapstructure:"BASE_URL"`
	APIKey       string        `mapstructure:"API_KEY"`
	Model        string        `mapstructure:"MODEL_NAME"`
	GeminiAPIKey string        `mapstructure:"GEMINI_API_KEY"`
	Timeout      time.Duration `mapstructure:"COMPLETION_TIMEOUT"`
}

type ToolsConfig struct {
	URL     string        `mapstructure:"MCP_CAL_URL"`
	Key     string        `mapstructure:"TOOLS_KEY"`
	Timeout time.Duration `mapstructure:"TOOL_TIMEOUT"`
}

type GoogleAPIConfig struct {
	ClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	ClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	RedirectURI  string `mapstructure:"OAUTH_REDIRECT_URI"`
	RefreshToken string `mapstructure:"GOOGLE_REFRESH_TOKEN"`
	CalendarID   string `mapstructure:"GOOGLE_CALENDAR_ID"`
	APIBase      string `mapstructure:"GOOGLE_API_BASE"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"REDIS_ENABLED"`
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	Burst int     `mapstructure:"RATE_LIMIT_BURST"`
}

var (
	mu      sync.RWMutex
	current *Config
)

var defaults = map[string]any{
	"APP_ENV":              "development",
	"LOG_LEVEL":            "info",
	"DEFAULT_TIME_ZONE":    "America/Los_Angeles",
	"HOST":                 "0.0.0.0",
	"PORT":                 8080,
	"TOOL_SERVER_HOST":     "0.0.0.0",
	"TOOL_SERVER_PORT":     8081,
	"SIGNING_KEY":          "",
	"CONFIRM_TOKEN_TTL":    900 * time.Second,
	"TOKEN_SINGLE_USE":     false,
	"COMPLETION_PROVIDER":  "openai",
	"BASE_URL":             "https://api.openai.com/v1",
	"API_KEY":              "",
	"MODEL_NAME":           "gpt-4o-mini",
	"GEMINI_API_KEY":       "",
	"COMPLETION_TIMEOUT":   60 * time.Second,
	"MCP_CAL_URL":          "http://localhost:8081",
	"TOOLS_KEY":            "",
	"TOOL_TIMEOUT":         30 * time.Second,
	"GOOGLE_CLIENT_ID":     "",
	"GOOGLE_CLIENT_SECRET": "",
	"OAUTH_REDIRECT_URI":   "",
	"GOOGLE_REFRESH_TOKEN": "",
	"GOOGLE_CALENDAR_ID":   "primary",
	"GOOGLE_API_BASE":      "https://www.googleapis.com/calendar/v3",
	"REDIS_ENABLED":        false,
	"REDIS_ADDR":           "localhost:6379",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"RATE_LIMIT_RPS":       5.0,
	"RATE_LIMIT_BURST":     20,
}

// Load reads envFile (when given) or an optional .env, then the process
// environment. Variables already present in the environment win.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Tools.URL = strings.TrimRight(cfg.Tools.URL, "/")
	cfg.Completion.BaseURL = strings.TrimRight(cfg.Completion.BaseURL, "/")

	Set(cfg)
	return cfg, nil
}

func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	current = cfg
}

// GetSafe returns the last loaded config and whether one was loaded.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return current, current != nil
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) ToolServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ToolServer.Host, c.ToolServer.Port)
}
