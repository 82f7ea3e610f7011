package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envConfigPath = "MINDROUTER_CONFIG"
	envProvider   = "MINDROUTER_PROVIDER"
	envModel      = "MINDROUTER_MODEL"

	DefaultProvider = "openai"
	DefaultModel    = "gpt-4o-mini"
	DefaultEchoRole = "assistant"
)

// Config is the root runtime configuration loaded from mindroute.json.
type Config struct {
	Model     ModelConfig     `json:"model"`
	Providers ProvidersConfig `json:"providers"`
	Personas  PersonasConfig  `json:"personas,omitempty"`
	Pipeline  PipelineConfig  `json:"pipeline,omitempty"`
	Logging   LoggingConfig   `json:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// ModelConfig selects the backend and model used for every pipeline call.
type ModelConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// ProvidersConfig stores per-provider connection settings.
type ProvidersConfig struct {
	OpenAI   OpenAIProviderConfig   `json:"openai"`
	OpenCode OpenCodeProviderConfig `json:"opencode"`
}

// OpenAIProviderConfig configures the OpenAI provider client.
type OpenAIProviderConfig struct {
	APIKeyEnv             string `json:"api_key_env"`
	BaseURL               string `json:"base_url"`
	Organization          string `json:"organization"`
	Project               string `json:"project"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// OpenCodeProviderConfig configures the OpenCode provider client.
type OpenCodeProviderConfig struct {
	BaseURL               string `json:"base_url"`
	Username              string `json:"username"`
	PasswordEnv           string `json:"password_env"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// PersonasConfig points at optional files replacing the built-in prompts.
type PersonasConfig struct {
	TherapistFile  string `json:"therapist_file,omitempty"`
	LogicalFile    string `json:"logical_file,omitempty"`
	ClassifierFile string `json:"classifier_file,omitempty"`
}

// PipelineConfig tunes pipeline behavior that callers may need to opt out of.
type PipelineConfig struct {
	// EchoRole is the role given to the normalized echo of the user's message.
	// "assistant" keeps the historical transcript shape.
	EchoRole string `json:"echo_role,omitempty"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig resolves mindroute.json, unmarshals it, and applies environment overrides.
//
// A missing file at the default locations is not an error; built-in defaults are used.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process environment.
// Variables already set are left untouched. A missing file is ignored.
func LoadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}

	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Pipeline.EchoRole)) {
	case "", "assistant", "user":
	default:
		return fmt.Errorf("pipeline.echo_role must be \"assistant\" or \"user\", got %q", c.Pipeline.EchoRole)
	}

	if c.Model.MaxTokens < 0 {
		return fmt.Errorf("model.max_tokens must not be negative, got %d", c.Model.MaxTokens)
	}

	return nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if provider := strings.TrimSpace(os.Getenv(envProvider)); provider != "" {
		cfg.Model.Provider = provider
	}

	if model := strings.TrimSpace(os.Getenv(envModel)); model != "" {
		cfg.Model.Model = model
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Model.Provider) == "" {
		cfg.Model.Provider = DefaultProvider
	}
	if strings.TrimSpace(cfg.Model.Model) == "" {
		cfg.Model.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.Pipeline.EchoRole) == "" {
		cfg.Pipeline.EchoRole = DefaultEchoRole
	}
	cfg.Pipeline.EchoRole = strings.ToLower(strings.TrimSpace(cfg.Pipeline.EchoRole))
}

// findConfigPath resolves the active config file location.
//
// Precedence is MINDROUTER_CONFIG first, then cwd-local fallback paths. An empty
// path with a nil error means no file was found and defaults apply.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "mindroute.json"),
		filepath.Join(cwd, "config", "mindroute.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", nil
}
