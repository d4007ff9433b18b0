package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEmbedTimeout    = 15 * time.Second
	defaultGenerateTimeout = 120 * time.Second
)

type Config struct {
	Address         string
	EmbedModel      string
	GenerateModel   string
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
}

// Client talks to an Ollama server. Embedding and generation use separate
// http.Clients because generation may legitimately take minutes while an
// embedding call hanging that long should fail the pipeline.
type Client struct {
	address       string
	embedModel    string
	generateModel string
	embedClient   *http.Client
	genClient     *http.Client
}

func New(cfg Config) *Client {
	embedTimeout := cfg.EmbedTimeout
	if embedTimeout == 0 {
		embedTimeout = defaultEmbedTimeout
	}
	genTimeout := cfg.GenerateTimeout
	if genTimeout == 0 {
		genTimeout = defaultGenerateTimeout
	}
	return &Client{
		address:       strings.TrimRight(cfg.Address, "/"),
		embedModel:    cfg.EmbedModel,
		generateModel: cfg.GenerateModel,
		embedClient:   &http.Client{Timeout: embedTimeout},
		genClient:     &http.Client{Timeout: genTimeout},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed converts one chunk of text into an embedding vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var out embedResponse
	if err := c.postJSON(ctx, c.embedClient, "/api/embeddings", embedRequest{
		Model:  c.embedModel,
		Prompt: text,
	}, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("ollama embedding response contains no embedding")
	}
	return out.Embedding, nil
}

type GenerateRequest struct {
	System   string
	Prompt   string
	Template string
	Context  []int64
}

// GenerateResult carries the full answer plus the opaque continuation state to
// feed back on a later turn. Context is never interpreted locally.
type GenerateResult struct {
	Response string  `json:"response"`
	Context  []int64 `json:"context"`
}

type generateRequest struct {
	Model    string  `json:"model"`
	Prompt   string  `json:"prompt"`
	System   string  `json:"system,omitempty"`
	Template string  `json:"template,omitempty"`
	Context  []int64 `json:"context,omitempty"`
	Stream   bool    `json:"stream"`
}

// Generate performs exactly one non-streaming completion call.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	var out GenerateResult
	if err := c.postJSON(ctx, c.genClient, "/api/generate", generateRequest{
		Model:    c.generateModel,
		Prompt:   req.Prompt,
		System:   req.System,
		Template: req.Template,
		Context:  req.Context,
		Stream:   false,
	}, &out); err != nil {
		return nil, err
	}
	if out.Response == "" {
		return nil, fmt.Errorf("ollama generate response contains no response text")
	}
	return &out, nil
}

func (c *Client) postJSON(ctx context.Context, client *http.Client, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ollama %s failed: %s: %s", path, resp.Status, strings.TrimSpace(string(excerpt)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode ollama %s response: %w", path, err)
	}
	return nil
}
