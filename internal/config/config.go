package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Address        string           `json:"address"`
	ModuleName     string           `json:"module_name"`
	BackendAddress string           `json:"backend_address"`
	RateLimitMS    int64            `json:"rate_limit_ms"`
	Ollama         OllamaConfig     `json:"ollama"`
	Qdrant         QdrantConfig     `json:"qdrant"`
	Chat           ChatConfig       `json:"chat"`
	LogConfig      logger.LogConfig `json:"log_config"`
}

type OllamaConfig struct {
	Address       string `json:"address"`
	EmbedModel    string `json:"embed_model"`
	GenerateModel string `json:"generate_model"`
}

// QdrantConfig is only consulted when no backend address is configured;
// otherwise the registration response supplies address and collection.
type QdrantConfig struct {
	Address    string `json:"address"`
	Collection string `json:"collection"`
}

type ChatConfig struct {
	ChunkSize    int     `json:"chunk_size"`
	ChunkOverlap int     `json:"chunk_overlap"`
	TopK         uint64  `json:"top_k"`
	ScoreCutoff  float32 `json:"score_cutoff"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if cfg.Ollama.Address == "" {
		return nil, fmt.Errorf("ollama.address is required")
	}
	if cfg.BackendAddress == "" {
		if cfg.Qdrant.Address == "" || cfg.Qdrant.Collection == "" {
			return nil, fmt.Errorf("qdrant.address and qdrant.collection are required without backend_address")
		}
	}
	if cfg.BackendAddress != "" && cfg.ModuleName == "" {
		return nil, fmt.Errorf("module_name is required with backend_address")
	}
	if cfg.Ollama.EmbedModel == "" {
		cfg.Ollama.EmbedModel = "mxbai-embed-large"
	}
	if cfg.Ollama.GenerateModel == "" {
		cfg.Ollama.GenerateModel = "llama3.2"
	}
	if cfg.Chat.ChunkSize == 0 {
		cfg.Chat.ChunkSize = 512
	}
	if cfg.Chat.ChunkSize < 0 {
		return nil, fmt.Errorf("chat.chunk_size must be positive")
	}
	if cfg.Chat.ChunkOverlap == 0 {
		cfg.Chat.ChunkOverlap = 56
	}
	if cfg.Chat.ChunkOverlap < 0 || cfg.Chat.ChunkOverlap >= cfg.Chat.ChunkSize {
		return nil, fmt.Errorf("chat.chunk_overlap must be in [0, chunk_size)")
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 3
	}
	if cfg.Chat.ScoreCutoff == 0 {
		cfg.Chat.ScoreCutoff = 0.5
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}
