package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xxxsen/ragserve/internal/model"
)

const defaultTimeout = 15 * time.Second

type Config struct {
	Address    string
	Collection string
	Timeout    time.Duration
}

// Client is a minimal REST client for Qdrant point search.
type Client struct {
	address    string
	collection string
	client     *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		address:    strings.TrimRight(cfg.Address, "/"),
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// PayloadFieldError reports a returned point whose payload lacks a field the
// pipeline needs to cite the source. The whole search fails rather than
// silently dropping the record.
type PayloadFieldError struct {
	Field string
}

func (e *PayloadFieldError) Error() string {
	return fmt.Sprintf("search result payload is missing field %q", e.Field)
}

type searchRequest struct {
	Vector         []float32 `json:"vector"`
	Limit          uint64    `json:"limit"`
	WithPayload    bool      `json:"with_payload"`
	ScoreThreshold *float32  `json:"score_threshold,omitempty"`
}

type pointPayload struct {
	UUID  *string `json:"uuid"`
	Text  *string `json:"text"`
	Title *string `json:"title"`
}

type searchResponse struct {
	Result []struct {
		Score   float32      `json:"score"`
		Payload pointPayload `json:"payload"`
	} `json:"result"`
}

// Search returns the topK points most similar to vector, ordered as the index
// returned them (descending score). A non-nil scoreThreshold excludes points
// below it; the filtering happens in Qdrant and is not re-checked here.
func (c *Client) Search(ctx context.Context, vector []float32, topK uint64, scoreThreshold *float32) ([]model.SearchResult, error) {
	body := searchRequest{
		Vector:         vector,
		Limit:          topK,
		WithPayload:    true,
		ScoreThreshold: scoreThreshold,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.address, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("qdrant search failed: %s: %s", resp.Status, strings.TrimSpace(string(excerpt)))
	}
	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode qdrant search response: %w", err)
	}

	results := make([]model.SearchResult, 0, len(out.Result))
	for i, point := range out.Result {
		if point.Payload.UUID == nil {
			return nil, &PayloadFieldError{Field: "uuid"}
		}
		if point.Payload.Text == nil {
			return nil, &PayloadFieldError{Field: "text"}
		}
		sourceID, err := uuid.Parse(*point.Payload.UUID)
		if err != nil {
			return nil, fmt.Errorf("parse source uuid %q: %w", *point.Payload.UUID, err)
		}
		title := ""
		if point.Payload.Title != nil {
			title = *point.Payload.Title
		}
		results = append(results, model.SearchResult{
			SourceID: sourceID,
			Rank:     i + 1,
			Title:    title,
			Snippet:  *point.Payload.Text,
			Score:    point.Score,
		})
	}
	return results, nil
}
