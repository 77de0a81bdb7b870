package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the quiz agent system
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Tools   ToolsConfig   `mapstructure:"tools"`
}

// GeneralConfig contains identity and run-level settings
type GeneralConfig struct {
	Email         string        `mapstructure:"email"`
	Secret        string        `mapstructure:"secret"`
	LogLevel      string        `mapstructure:"log_level"`
	MaxIterations int           `mapstructure:"max_iterations"`
	RunTimeout    time.Duration `mapstructure:"run_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains the LLM provider configuration
type LLMConfig struct {
	Provider    string          `mapstructure:"provider"` // openai, anthropic
	APIKey      string          `mapstructure:"api_key"`
	BaseURL     string          `mapstructure:"base_url"`
	Model       string          `mapstructure:"model"`
	Temperature float64         `mapstructure:"temperature"`
	MaxTokens   int             `mapstructure:"max_tokens"`
	Timeout     time.Duration   `mapstructure:"timeout"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig sizes the token bucket shared by all runs
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ToolsConfig bounds the external tools available to the agent
type ToolsConfig struct {
	RenderTimeout   time.Duration `mapstructure:"render_timeout"`
	RenderMaxChars  int           `mapstructure:"render_max_chars"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	PDFMaxPages     int           `mapstructure:"pdf_max_pages"`
	PDFMaxChars     int           `mapstructure:"pdf_max_chars"`
	CSVMaxRows      int           `mapstructure:"csv_max_rows"`
	CodeTimeout     time.Duration `mapstructure:"code_timeout"`
	ResultMaxChars  int           `mapstructure:"result_max_chars"`
	PythonBin       string        `mapstructure:"python_bin"`
}

func (g GeneralConfig) Validate() error {
	if strings.TrimSpace(g.Email) == "" {
		return fmt.Errorf("general.email required (or EMAIL env)")
	}
	if strings.TrimSpace(g.Secret) == "" {
		return fmt.Errorf("general.secret required (or SECRET env)")
	}
	return nil
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.APIKey) == "" {
		return fmt.Errorf("llm.api_key required (or OPENAI_API_KEY env)")
	}
	if l.RateLimit.Requests <= 0 || l.RateLimit.Window <= 0 {
		return fmt.Errorf("llm.rate_limit.requests and llm.rate_limit.window must be positive")
	}
	return nil
}

// LoadConfig loads config from file, .env and environment variables
func LoadConfig(path string) (*Config, error) {
	// .env keeps parity with local dev setups; absence is not an error
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.max_iterations", 200)
	viper.SetDefault("general.run_timeout", 30*time.Minute)
	viper.SetDefault("server.address", ":7860")
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.timeout", 120*time.Second)
	viper.SetDefault("llm.rate_limit.requests", 9)
	viper.SetDefault("llm.rate_limit.window", 60*time.Second)
	viper.SetDefault("tools.render_timeout", 60*time.Second)
	viper.SetDefault("tools.render_max_chars", 20000)
	viper.SetDefault("tools.download_timeout", 60*time.Second)
	viper.SetDefault("tools.pdf_max_pages", 6)
	viper.SetDefault("tools.pdf_max_chars", 4000)
	viper.SetDefault("tools.csv_max_rows", 20)
	viper.SetDefault("tools.code_timeout", 120*time.Second)
	viper.SetDefault("tools.result_max_chars", 16000)
	viper.SetDefault("tools.python_bin", "python3")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("QUIZAGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// flat env names kept for parity with the submission protocol
	_ = viper.BindEnv("general.email", "QUIZAGENT_GENERAL_EMAIL", "EMAIL")
	_ = viper.BindEnv("general.secret", "QUIZAGENT_GENERAL_SECRET", "SECRET")
	_ = viper.BindEnv("llm.api_key", "QUIZAGENT_LLM_API_KEY", "OPENAI_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		// config file is optional; defaults plus env must be enough
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.General.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
