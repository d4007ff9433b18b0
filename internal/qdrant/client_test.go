package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newClient(addr string) *Client {
	return New(Config{Address: addr, Collection: "notes"})
}

func searchBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestSearch(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/notes/points/search", r.URL.Path)
		body := searchBody(t, r)
		require.Equal(t, float64(3), body["limit"])
		require.Equal(t, true, body["with_payload"])
		require.NotContains(t, body, "score_threshold")
		fmt.Fprintf(w, `{"result":[
			{"score":0.91,"payload":{"uuid":%q,"text":"erste Quelle","title":"Doc A"}},
			{"score":0.77,"payload":{"uuid":%q,"text":"zweite Quelle"}}
		]}`, first, second)
	}))
	defer srv.Close()

	results, err := newClient(srv.URL).Search(context.Background(), []float32{0.1}, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, first, results[0].SourceID)
	require.Equal(t, 1, results[0].Rank)
	require.Equal(t, "Doc A", results[0].Title)
	require.Equal(t, "erste Quelle", results[0].Snippet)
	require.InDelta(t, 0.91, results[0].Score, 1e-6)

	require.Equal(t, second, results[1].SourceID)
	require.Equal(t, 2, results[1].Rank)
	require.Empty(t, results[1].Title)
}

func TestSearchForwardsScoreThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := searchBody(t, r)
		require.InDelta(t, 0.5, body["score_threshold"], 1e-6)
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	threshold := float32(0.5)
	results, err := newClient(srv.URL).Search(context.Background(), []float32{0.1}, 3, &threshold)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchMissingPayloadFields(t *testing.T) {
	for _, tc := range []struct {
		name    string
		payload string
		field   string
	}{
		{name: "missing uuid", payload: `{"text":"abc"}`, field: "uuid"},
		{name: "missing text", payload: fmt.Sprintf(`{"uuid":%q}`, uuid.New()), field: "text"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"result":[{"score":0.9,"payload":%s}]}`, tc.payload)
			}))
			defer srv.Close()

			_, err := newClient(srv.URL).Search(context.Background(), []float32{0.1}, 3, nil)
			require.Error(t, err)
			var fieldErr *PayloadFieldError
			require.True(t, errors.As(err, &fieldErr))
			require.Equal(t, tc.field, fieldErr.Field)
		})
	}
}

func TestSearchInvalidSourceUUID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":[{"score":0.9,"payload":{"uuid":"not-a-uuid","text":"abc"}}]}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Search(context.Background(), []float32{0.1}, 3, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse source uuid")
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Search(context.Background(), []float32{0.1}, 3, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "collection not found")
}
