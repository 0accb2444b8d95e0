// Package config provides configuration loading for the assistant daemon.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "ASSISTANT_"

// Config holds the engine and server knobs.
//
// Precedence (highest to lowest): ASSISTANT_* environment variables,
// YAML config file, hardcoded defaults. Provider API keys stay in their
// conventional variables (OPENAI_API_KEY etc.) and are read by the LLM
// factory, not here.
type Config struct {
	Addr string `koanf:"addr"`

	LLM struct {
		Provider string        `koanf:"provider"` // openai|anthropic|gemini|mock, empty = autodetect
		Model    string        `koanf:"model"`
		Timeout  time.Duration `koanf:"timeout"`
	} `koanf:"llm"`

	Engine struct {
		RetryLimit     int           `koanf:"retry_limit"`
		VerifierWindow int           `koanf:"verifier_window"`
		TopK           int           `koanf:"top_k"`
		ToolTimeout    time.Duration `koanf:"tool_timeout"`
	} `koanf:"engine"`

	Tools struct {
		WorkspaceDir string `koanf:"workspace_dir"`
	} `koanf:"tools"`
}

func defaults() *Config {
	c := &Config{Addr: ":8080"}
	c.LLM.Timeout = 45 * time.Second
	c.Engine.RetryLimit = 2
	c.Engine.VerifierWindow = 6
	c.Engine.TopK = 5
	c.Engine.ToolTimeout = 30 * time.Second
	c.Tools.WorkspaceDir = "."
	return c
}

// Load reads the YAML file at path (skipped if empty or missing), then
// applies ASSISTANT_* environment overrides. ASSISTANT_ENGINE_RETRY_LIMIT
// maps to engine.retry_limit.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.RetryLimit < 0 {
		return fmt.Errorf("engine.retry_limit must be >= 0, got %d", c.Engine.RetryLimit)
	}
	if c.Engine.VerifierWindow <= 0 {
		return fmt.Errorf("engine.verifier_window must be positive, got %d", c.Engine.VerifierWindow)
	}
	if c.Engine.TopK <= 0 {
		return fmt.Errorf("engine.top_k must be positive, got %d", c.Engine.TopK)
	}
	return nil
}

// envToKey maps ASSISTANT_ENGINE_RETRY_LIMIT to "engine.retry_limit".
// Only the section separator becomes a dot; the rest keeps its underscores.
func envToKey(s string) string {
	s = trimPrefixFold(s, envPrefix)
	for _, section := range []string{"LLM_", "ENGINE_", "TOOLS_"} {
		if len(s) > len(section) && s[:len(section)] == section {
			return lower(section[:len(section)-1]) + "." + lower(s[len(section):])
		}
	}
	return lower(s)
}

func trimPrefixFold(s, prefix string) string {
	if len(s) >= len(prefix) {
		return s[len(prefix):]
	}
	return s
}

func lower(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
