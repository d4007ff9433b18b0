package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/modules/output/register", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "ragserve", payload["name"])
		_, _ = w.Write([]byte(`{
			"mongoAddress": "mongodb://db:27017",
			"mongoDatabase": "output",
			"mongoCollection": "answers",
			"qdrantAddress": "http://qdrant:6333",
			"qdrantCollection": "notes"
		}`))
	}))
	defer srv.Close()

	info, err := New("ragserve").Register(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "http://qdrant:6333", info.QdrantAddress)
	require.Equal(t, "notes", info.QdrantCollection)
	require.Equal(t, "mongodb://db:27017", info.MongoAddress)
}

func TestRegisterRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "name already taken", http.StatusConflict)
	}))
	defer srv.Close()

	_, err := New("ragserve").Register(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "name already taken")
}

func TestUnregister(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/modules/output/unregister", r.URL.Path)
		called = true
	}))
	defer srv.Close()

	require.NoError(t, New("ragserve").Unregister(context.Background(), srv.URL))
	require.True(t, called)
}
