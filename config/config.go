package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jcy998/SP-idear/generator"
)

const DefaultServerAddr = ":8080"

// Config 是 config.json 的内容。
type Config struct {
	LLM        *LLMConfig `json:"llm,omitempty"`
	ServerAddr string     `json:"server_addr,omitempty"`
}

// LLMConfig 保存模型接口配置（OpenAI 兼容）。
type LLMConfig struct {
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		LLM: &LLMConfig{
			Provider: "deepseek",
			Model:    generator.DefaultModel,
			BaseURL:  generator.DefaultBaseURL,
		},
		ServerAddr: DefaultServerAddr,
	}
}

// LoadConfig reads JSON config from disk. A missing file yields Default();
// fields absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.LLM == nil {
		cfg.LLM = Default().LLM
	}
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = DefaultServerAddr
	}
	return cfg, nil
}

// Save writes cfg as JSON with owner-only permissions, since it may hold an API key.
func Save(path string, cfg Config) error {
	if cfg.LLM != nil && strings.TrimSpace(cfg.LLM.APIKey) == "" && cfg.LLM.APIKeyEnv == "" {
		return generator.ErrConfigMissing
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// Endpoint resolves the API key (falling back to api_key_env) and converts
// the settings for the generator.
func (c *LLMConfig) Endpoint() generator.Endpoint {
	if c == nil {
		return generator.Endpoint{}
	}
	key := c.APIKey
	if key == "" && c.APIKeyEnv != "" {
		key = os.Getenv(c.APIKeyEnv)
	}
	return generator.Endpoint{
		Provider: c.Provider,
		APIKey:   key,
		BaseURL:  c.BaseURL,
		Model:    c.Model,
	}
}
