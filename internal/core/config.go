package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Storage struct {
	ImagesDir string `yaml:"imagesDir"`
	ExportDir string `yaml:"exportDir"`
	FramePath string `yaml:"framePath"`
}

type ImageAPI struct {
	APIKey         string `yaml:"apiKey"`
	BaseURL        string `yaml:"baseURL"`
	Model          string `yaml:"model"`
	Size           string `yaml:"size"`
	Quality        string `yaml:"quality"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

type Display struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Cache struct {
	RedisAddress string `yaml:"redisAddress"`
	TTLMinutes   int    `yaml:"ttlMinutes"`
}

type ServiceConfig struct {
	Port     int      `yaml:"port"`
	Database Database `yaml:"database"`
	Storage  Storage  `yaml:"storage"`
	ImageAPI ImageAPI `yaml:"imageAPI"`
	Display  Display  `yaml:"display"`
	Cache    Cache    `yaml:"cache"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// The credential may come from the environment instead of the file.
	if config.ImageAPI.APIKey == "" {
		config.ImageAPI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return &config, nil
}

func (c *ServiceConfig) validate() error {
	if c.Database.Type == "" {
		return fmt.Errorf("database.type must be set")
	}
	if c.Database.ConnectionString == "" {
		return fmt.Errorf("database.connectionString must be set")
	}
	if c.Storage.ImagesDir == "" {
		return fmt.Errorf("storage.imagesDir must be set")
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display dimensions must be positive, got %dx%d", c.Display.Width, c.Display.Height)
	}
	return nil
}

// APITimeout returns the configured image API timeout.
func (c *ServiceConfig) APITimeout() time.Duration {
	if c.ImageAPI.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ImageAPI.TimeoutSeconds) * time.Second
}

// CacheTTL returns the configured image cache TTL.
func (c *ServiceConfig) CacheTTL() time.Duration {
	if c.Cache.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}
