package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"database"`
	Ollama struct {
		BaseURL      string `yaml:"base_url"`
		DefaultModel string `yaml:"default_model"`
	} `yaml:"ollama"`
	Embeddings struct {
		TextModel  string `yaml:"text_model"`
		Dimensions int    `yaml:"dimensions"`
	} `yaml:"embeddings"`
	Processing struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
		TopK         int `yaml:"top_k"`
	} `yaml:"processing"`
	Paths struct {
		DocumentsDir string `yaml:"documents_dir"`
	} `yaml:"paths"`
}

// Load loads configuration from file or returns defaults. Environment
// variables override both for deployment without a config file.
func Load() (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(os.Getenv("HOME"), ".hr-assistant", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg.applyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".hr-assistant")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Addr = ":8000"
	cfg.Database.ConnectionString = "postgres://postgres@localhost/postgres?sslmode=disable"
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.DefaultModel = "llama3.2"
	cfg.Embeddings.TextModel = "nomic-embed-text"
	cfg.Embeddings.Dimensions = 768
	cfg.Processing.ChunkSize = 1000
	cfg.Processing.ChunkOverlap = 200
	cfg.Processing.TopK = 5
	cfg.Paths.DocumentsDir = filepath.Join("data", "documents")

	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.ConnectionString = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.Ollama.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.Ollama.DefaultModel = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.Embeddings.TextModel = v
	}
	if v := os.Getenv("DOCUMENTS_DIR"); v != "" {
		c.Paths.DocumentsDir = v
	}
}
