// Package config provides the configuration structure for the narration-service.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Environment variables holding secrets. Everything else comes from the
// project TOML; secrets never do.
const (
	EnvVisionAPIKey     = "MINIMAX_API_KEY"
	EnvStorageSecretID  = "COS_SECRET_ID"
	EnvStorageSecretKey = "COS_SECRET_KEY"
)

// Storage backend names accepted in the [storage] section.
const (
	BackendCOS  = "cos"
	BackendNATS = "nats"
)

var (
	// ErrBucketNotConfigured indicates that no storage bucket was set.
	ErrBucketNotConfigured = errors.New("storage bucket is not configured")
	// ErrUnknownStorageBackend indicates an unrecognized storage backend name.
	ErrUnknownStorageBackend = errors.New("unknown storage backend")
)

// VisionConfig holds the configuration for the vision-model service.
type VisionConfig struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	MaxTokens      int    `toml:"max_tokens"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Workers        int    `toml:"workers"`
	APIKey         string `toml:"-"`
}

// TTSConfig holds the configuration for the speech-synthesis service.
type TTSConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// VoicesConfig maps speaker categories to synthesis voice identifiers.
type VoicesConfig struct {
	Narrator string `toml:"narrator"`
	Child    string `toml:"child"`
	Male     string `toml:"male"`
	Female   string `toml:"female"`
}

// StorageConfig holds the configuration for the audio/book object store.
type StorageConfig struct {
	Backend       string `toml:"backend"`
	Bucket        string `toml:"bucket"`
	Region        string `toml:"region"`
	Endpoint      string `toml:"endpoint"`
	NATSURL       string `toml:"nats_url"`
	PublicBaseURL string `toml:"public_base_url"`
	SecretID      string `toml:"-"`
	SecretKey     string `toml:"-"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port int `toml:"port"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Vision  VisionConfig  `toml:"vision"`
	TTS     TTSConfig     `toml:"tts"`
	Voices  VoicesConfig  `toml:"voices"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	Paths   PathsConfig   `toml:"paths"`
}

// Load loads the configuration for the narration-service, applies defaults
// for optional fields, and resolves secrets from the environment.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()
	cfg.loadSecrets()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills in default values for unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Vision.BaseURL == "" {
		c.Vision.BaseURL = "https://api.minimaxi.com/anthropic"
	}

	if c.Vision.Model == "" {
		c.Vision.Model = "MiniMax-M2.5"
	}

	if c.Vision.MaxTokens == 0 {
		c.Vision.MaxTokens = 1000
	}

	if c.Vision.TimeoutSeconds == 0 {
		c.Vision.TimeoutSeconds = 25
	}

	if c.Vision.Workers == 0 {
		c.Vision.Workers = 1
	}

	if c.TTS.TimeoutSeconds == 0 {
		c.TTS.TimeoutSeconds = 30
	}

	if c.Voices.Narrator == "" {
		c.Voices.Narrator = "zh-CN-XiaoxiaoNeural"
	}

	if c.Voices.Child == "" {
		c.Voices.Child = "zh-CN-XiaoyiNeural"
	}

	if c.Voices.Male == "" {
		c.Voices.Male = "zh-CN-YunxiNeural"
	}

	if c.Voices.Female == "" {
		c.Voices.Female = "zh-CN-XiaochenNeural"
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendCOS
	}

	if c.Storage.Region == "" {
		c.Storage.Region = "ap-guangzhou"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
}

// Validate checks the loaded configuration for unusable values.
func (c *Config) Validate() error {
	if c.Storage.Bucket == "" {
		return ErrBucketNotConfigured
	}

	if c.Storage.Backend != BackendCOS && c.Storage.Backend != BackendNATS {
		return fmt.Errorf("%w: %q", ErrUnknownStorageBackend, c.Storage.Backend)
	}

	return nil
}

func (c *Config) loadSecrets() {
	c.Vision.APIKey = os.Getenv(EnvVisionAPIKey)
	c.Storage.SecretID = os.Getenv(EnvStorageSecretID)
	c.Storage.SecretKey = os.Getenv(EnvStorageSecretKey)
}
