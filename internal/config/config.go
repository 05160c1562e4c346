package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DefaultLLM string                `toml:"default_llm"`
	LLMs       map[string]*LLMConfig `toml:"llm"`
	Gateway    GatewayConfig         `toml:"gateway"`
	A2UI       A2UIConfig            `toml:"a2ui"`
	AGUI       AGUIConfig            `toml:"agui"`
	DB         DBConfig              `toml:"db"`
	Trace      TraceConfig           `toml:"trace"`
}

type LLMConfig struct {
	Provider  string `toml:"provider"` // "anthropic" or "openai"
	Model     string `toml:"model"`
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	MaxTokens int    `toml:"max_tokens"`
}

type GatewayConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`

	// RequestsPerSecond caps how often the model is called. Zero disables the limit.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

type A2UIConfig struct {
	SystemPrompt string `toml:"system_prompt"` // empty uses the built-in A2UI prompt
	Validate     bool   `toml:"validate"`
}

type AGUIConfig struct {
	SystemPrompt string `toml:"system_prompt"`
	StepName     string `toml:"step_name"`
}

type DBConfig struct {
	Path string `toml:"path"`
}

type TraceConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		DefaultLLM: "anthropic",
		LLMs: map[string]*LLMConfig{
			"anthropic": {
				Provider:  "anthropic",
				Model:     "claude-sonnet-4-20250514",
				MaxTokens: 8192,
			},
		},
		Gateway: GatewayConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000"},
			Burst:          1,
		},
		A2UI: A2UIConfig{
			Validate: true,
		},
		AGUI: AGUIConfig{
			SystemPrompt: "You are a helpful assistant. Use the tools provided by the user interface when they help answer the request.",
			StepName:     "claude_inference",
		},
		DB: DBConfig{
			Path: defaultDBPath(),
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path uses the
// per-user config location; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = Path()
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LLM returns the default LLM section.
func (c *Config) LLM() (*LLMConfig, error) {
	llm, ok := c.LLMs[c.DefaultLLM]
	if !ok {
		return nil, fmt.Errorf("default LLM %q not found in config", c.DefaultLLM)
	}
	return llm, nil
}

// Write encodes cfg as TOML at path, creating parent directories.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// applyEnv fills credentials and the listen address from the environment.
// Keys in the file win over the environment.
func (c *Config) applyEnv() {
	for _, llm := range c.LLMs {
		if llm.APIKey != "" {
			continue
		}
		switch strings.ToLower(llm.Provider) {
		case "anthropic":
			llm.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			llm.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if addr := os.Getenv("UIBRIDGE_ADDR"); addr != "" {
		c.Gateway.Addr = addr
	}
}

// Path is the default config file location.
func Path() string {
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "uibridge", "config.toml")
}

func defaultDBPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".local", "share", "uibridge", "uibridge.db")
}
