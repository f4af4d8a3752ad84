// Package config loads gateway configuration from an optional
// config.yaml overlaid with STUDYGATE_-prefixed environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Upstream  UpstreamConfig  `koanf:"upstream"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Limits    LimitsConfig    `koanf:"limits"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type UpstreamConfig struct {
	APIKey      string `koanf:"api_key"`
	BaseURL     string `koanf:"base_url"`
	Model       string `koanf:"model"`
	SpeechModel string `koanf:"speech_model"`
	SpeechVoice string `koanf:"speech_voice"`
}

type AuthConfig struct {
	// Password is the shared student password. When empty,
	// authentication is disabled entirely and every request is treated
	// as an authenticated student. That is a deployment convenience for
	// local use, not a security feature.
	Password string `koanf:"password"`

	// ProfPassword is the shared professor password. When empty,
	// professor login always fails.
	ProfPassword string `koanf:"prof_password"`

	SessionTTL time.Duration `koanf:"session_ttl"`
}

type RateLimitConfig struct {
	Window      time.Duration `koanf:"window"`
	MaxRequests int           `koanf:"max_requests"`
}

type LimitsConfig struct {
	// ContentMax bounds the "content" field of summarize and flashcards
	// requests; TextMax bounds the "text" field of podcast requests.
	ContentMax int `koanf:"content_max"`
	TextMax    int `koanf:"text_max"`
}

// AuthEnabled reports whether bearer authentication is enforced.
func (c *Config) AuthEnabled() bool {
	return c.Auth.Password != ""
}

var defaults = map[string]any{
	"server.port":            8080,
	"upstream.base_url":      "https://api.openai.com/v1",
	"upstream.model":         "gpt-4o-mini",
	"upstream.speech_model":  "tts-1",
	"upstream.speech_voice":  "alloy",
	"auth.session_ttl":       "12h",
	"ratelimit.window":       "1m",
	"ratelimit.max_requests": 30,
	"limits.content_max":     20000,
	"limits.text_max":        4000,
}

// Load reads config.yaml (if present), overlays environment variables,
// and fills in defaults. Env vars use the STUDYGATE_ prefix with "__"
// as the nesting separator, e.g. STUDYGATE_RATELIMIT__MAX_REQUESTS.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		// A missing file is fine, env vars carry the config then.
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("STUDYGATE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "STUDYGATE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
