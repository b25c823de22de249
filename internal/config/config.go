// ABOUTME: Centralized configuration for the chunk pipeline
// ABOUTME: Loads an optional YAML file, then environment variables, with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chunk pipeline
type Config struct {
	// Chunking settings
	MinWordsPerChunk int           `yaml:"min_words_per_chunk"`
	MaxBufferWords   int           `yaml:"max_buffer_words"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`

	// Enrichment settings
	QueueCapacity         int           `yaml:"queue_capacity"`
	QueueTrimTo           int           `yaml:"queue_trim_to"`
	ContextWindowCapacity int           `yaml:"context_window_capacity"`
	Cooldown              time.Duration `yaml:"cooldown"`
	CycleTimeout          time.Duration `yaml:"cycle_timeout"`

	// OpenAI settings
	OpenAIKey     string        `yaml:"-"`
	OpenAIBaseURL string        `yaml:"openai_base_url"`
	ChatModel     string        `yaml:"chat_model"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	RetryDelay    time.Duration `yaml:"retry_delay"`

	// Event sinks
	NATSURL       string `yaml:"nats_url"`
	NATSPrefix    string `yaml:"nats_prefix"`
	WebSocketAddr string `yaml:"ws_addr"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		MinWordsPerChunk:      5,
		MaxBufferWords:        100,
		IdleTimeout:           3 * time.Second,
		QueueCapacity:         20,
		QueueTrimTo:           10,
		ContextWindowCapacity: 5,
		Cooldown:              200 * time.Millisecond,
		CycleTimeout:          0,
		ChatModel:             "gpt-4o-mini",
		Timeout:               30 * time.Second,
		MaxRetries:            3,
		RetryDelay:            2 * time.Second,
		NATSPrefix:            "chunkstream",
		LogLevel:              "info",
	}
}

// Load reads configuration from environment variables. If CHUNKSTREAM_CONFIG
// names a YAML file it is applied first and the environment overrides it.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CHUNKSTREAM_CONFIG"))
}

// LoadFile applies the YAML file at path (if non-empty) over the defaults,
// then applies environment overrides and validates.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	return cfg, cfg.Validate()
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// durationKeys are the YAML keys holding durations. A bare integer there is
// read as milliseconds, the same as in the environment.
var durationKeys = map[string]bool{
	"idle_timeout":  true,
	"cooldown":      true,
	"cycle_timeout": true,
	"timeout":       true,
	"retry_delay":   true,
}

// UnmarshalYAML accepts "3s" style durations and integer milliseconds
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	node := value
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if durationKeys[key.Value] && val.Kind == yaml.ScalarNode && val.ShortTag() == "!!int" {
				val.Tag = "!!str"
				val.Value += "ms"
			}
		}
	}

	type plain Config
	return node.Decode((*plain)(c))
}

func (c *Config) applyEnv() {
	c.MinWordsPerChunk = getEnvInt("CHUNKSTREAM_MIN_WORDS", c.MinWordsPerChunk)
	c.MaxBufferWords = getEnvInt("CHUNKSTREAM_MAX_BUFFER_WORDS", c.MaxBufferWords)
	c.IdleTimeout = getEnvDuration("CHUNKSTREAM_IDLE_TIMEOUT", c.IdleTimeout)
	c.QueueCapacity = getEnvInt("CHUNKSTREAM_QUEUE_CAPACITY", c.QueueCapacity)
	c.QueueTrimTo = getEnvInt("CHUNKSTREAM_QUEUE_TRIM_TO", c.QueueTrimTo)
	c.ContextWindowCapacity = getEnvInt("CHUNKSTREAM_CONTEXT_WINDOW", c.ContextWindowCapacity)
	c.Cooldown = getEnvDuration("CHUNKSTREAM_COOLDOWN", c.Cooldown)
	c.CycleTimeout = getEnvDuration("CHUNKSTREAM_CYCLE_TIMEOUT", c.CycleTimeout)

	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.ChatModel = getEnv("CHUNKSTREAM_OPENAI_MODEL", c.ChatModel)
	c.Timeout = getEnvDuration("OPENAI_TIMEOUT", c.Timeout)
	c.MaxRetries = getEnvInt("OPENAI_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("OPENAI_RETRY_DELAY", c.RetryDelay)

	c.NATSURL = getEnv("CHUNKSTREAM_NATS_URL", c.NATSURL)
	c.NATSPrefix = getEnv("CHUNKSTREAM_NATS_PREFIX", c.NATSPrefix)
	c.WebSocketAddr = getEnv("CHUNKSTREAM_WS_ADDR", c.WebSocketAddr)
	c.LogLevel = getEnv("CHUNKSTREAM_LOG_LEVEL", c.LogLevel)
}

func (c *Config) Validate() error {
	if c.MinWordsPerChunk <= 0 {
		return fmt.Errorf("CHUNKSTREAM_MIN_WORDS must be positive, got %d", c.MinWordsPerChunk)
	}
	if c.MaxBufferWords <= 0 {
		return fmt.Errorf("CHUNKSTREAM_MAX_BUFFER_WORDS must be positive, got %d", c.MaxBufferWords)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("CHUNKSTREAM_QUEUE_CAPACITY must be positive, got %d", c.QueueCapacity)
	}
	if c.QueueTrimTo <= 0 || c.QueueTrimTo > c.QueueCapacity {
		return fmt.Errorf("CHUNKSTREAM_QUEUE_TRIM_TO must be 1-%d, got %d", c.QueueCapacity, c.QueueTrimTo)
	}
	if c.ContextWindowCapacity <= 0 {
		return fmt.Errorf("CHUNKSTREAM_CONTEXT_WINDOW must be positive, got %d", c.ContextWindowCapacity)
	}
	if c.IdleTimeout < 0 || c.Cooldown < 0 || c.CycleTimeout < 0 {
		return fmt.Errorf("durations must not be negative (idle=%s cooldown=%s cycle=%s)", c.IdleTimeout, c.Cooldown, c.CycleTimeout)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("CHUNKSTREAM_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// YAML renders the effective configuration. The API key is never included.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// Bare integers are read as milliseconds (idleTimeoutMs, cooldownMs)
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}
