package registry

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

const defaultTimeout = 10 * time.Second

// Client registers this module with the orchestrating backend. The backend
// answers with the connection parameters the pipeline's clients are built from.
type Client struct {
	name   string
	client *http.Client
}

func New(name string) *Client {
	return &Client{
		name:   name,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

type registerPayload struct {
	Name string `json:"name"`
}

// RegisterResponse is the backend's wire contract. The mongo parameters are
// part of the protocol but not consumed by the chat pipeline.
type RegisterResponse struct {
	MongoAddress     string `json:"mongoAddress"`
	MongoDatabase    string `json:"mongoDatabase"`
	MongoCollection  string `json:"mongoCollection"`
	QdrantAddress    string `json:"qdrantAddress"`
	QdrantCollection string `json:"qdrantCollection"`
}

func (c *Client) Register(ctx context.Context, backendAddr string) (*RegisterResponse, error) {
	resp, err := c.post(ctx, backendAddr, "/modules/output/register", registerPayload{Name: c.name})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("register module %q on backend %q: %s: %s",
			c.name, backendAddr, resp.Status, strings.TrimSpace(string(excerpt)))
	}
	var out RegisterResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode register response: %w", err)
	}
	return &out, nil
}

// Unregister tells the backend this module is going away. Best-effort; callers
// run it during shutdown and only log failures.
func (c *Client) Unregister(ctx context.Context, backendAddr string) error {
	resp, err := c.post(ctx, backendAddr, "/modules/output/unregister", struct{}{})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unregister module %q: %s", c.name, resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, backendAddr, path string, payload any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(backendAddr, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}
