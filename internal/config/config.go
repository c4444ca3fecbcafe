package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/agenthands/nexus/internal/core/compare"
	"github.com/agenthands/nexus/internal/core/nexus"
	"github.com/agenthands/nexus/internal/core/similarity"
	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port string `toml:"port"` // default: 8080
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// EmbeddingConfig selects the name-embedding backend. An empty provider
// disables embeddings.
type EmbeddingConfig struct {
	Provider       string `toml:"provider"` // openai, gemini, ollama
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type Config struct {
	Debug      bool              `toml:"debug"`
	Server     ServerConfig      `toml:"server"`
	Memgraph   MemgraphConfig    `toml:"memgraph"`
	Embedding  EmbeddingConfig   `toml:"embedding"`
	Similarity similarity.Config `toml:"similarity"`
	Compare    compare.Config    `toml:"compare"`
	Nexus      nexus.Config      `toml:"nexus"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads a TOML file, fills defaults and applies environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	c.Similarity.ApplyDefaults()
	c.Compare.ApplyDefaults()
	c.Nexus.ApplyDefaults()
}

// ApplyEnv overrides file values with environment variables. EMBEDDING_*
// takes precedence over the LLM_* names.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	set(&c.Server.Port, "PORT")
	set(&c.Memgraph.URI, "MEMGRAPH_URI")
	set(&c.Memgraph.User, "MEMGRAPH_USER")
	set(&c.Memgraph.Password, "MEMGRAPH_PASSWORD")
	set(&c.Embedding.Provider, "EMBEDDING_PROVIDER", "LLM_PROVIDER")
	set(&c.Embedding.EmbeddingModel, "EMBEDDING_MODEL", "LLM_EMBEDDING_MODEL")
	set(&c.Embedding.APIKey, "EMBEDDING_API_KEY", "LLM_API_KEY")
	set(&c.Embedding.BaseURL, "EMBEDDING_BASE_URL", "LLM_BASE_URL")

	if v, ok := lookup("DEBUG"); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG value %q: %w", v, err)
		}
		c.Debug = debug
	}
	return nil
}
