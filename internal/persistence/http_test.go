package persistence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"resty.dev/v3"
)

// fakeSink is a minimal stand-in for the HTTP persistence sink's
// containers/outputs endpoints, just enough to exercise HTTP's
// createContainers -> registerWrite -> commitOutput -> read sequence.
type fakeSink struct {
	mu        sync.Mutex
	committed map[string]map[string]httpPayload // id -> product -> payload
}

func newFakeSink() *fakeSink {
	return &fakeSink{committed: make(map[string]map[string]httpPayload)}
}

func (f *fakeSink) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/containers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/outputs", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ID       string                 `json:"id"`
			Products map[string]httpPayload `json:"products"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.committed[body.ID] = body.Products
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/outputs/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/outputs/"), "/")
		if len(parts) != 2 {
			http.Error(w, "bad path", http.StatusBadRequest)
			return
		}
		id, product := parts[0], parts[1]
		f.mu.Lock()
		bucket, ok := f.committed[id]
		f.mu.Unlock()
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		payload, ok := bucket[product]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})
	return mux
}

func TestHTTPBackendRoundTrip(t *testing.T) {
	sink := newFakeSink()
	server := httptest.NewServer(sink.handler())
	defer server.Close()

	backend := NewHTTP(server.URL, resty.New())
	ctx := context.Background()

	creator, err := backend.CreateContainers(ctx, map[string]string{"y": "int"})
	require.NoError(t, err)

	require.NoError(t, backend.RegisterWrite(ctx, creator, "y", float64(42), "int"))
	require.NoError(t, backend.CommitOutput(ctx, creator, "job[0]"))

	var out any
	require.NoError(t, backend.Read(ctx, creator, "y", "job[0]", &out, "int"))
	require.Equal(t, float64(42), out)
}

func TestHTTPBackendRegisterWriteRejectsUndeclaredProduct(t *testing.T) {
	sink := newFakeSink()
	server := httptest.NewServer(sink.handler())
	defer server.Close()

	backend := NewHTTP(server.URL, resty.New())
	ctx := context.Background()

	creator, err := backend.CreateContainers(ctx, map[string]string{"y": "int"})
	require.NoError(t, err)

	err = backend.RegisterWrite(ctx, creator, "z", 1, "int")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not declared")
}

func TestHTTPBackendReadMismatchedTypeFails(t *testing.T) {
	sink := newFakeSink()
	server := httptest.NewServer(sink.handler())
	defer server.Close()

	backend := NewHTTP(server.URL, resty.New())
	ctx := context.Background()

	creator, err := backend.CreateContainers(ctx, map[string]string{"y": "int"})
	require.NoError(t, err)
	require.NoError(t, backend.RegisterWrite(ctx, creator, "y", 1, "int"))
	require.NoError(t, backend.CommitOutput(ctx, creator, "job[0]"))

	var out any
	err = backend.Read(ctx, creator, "y", "job[0]", &out, "string")
	require.Error(t, err)
	require.Contains(t, err.Error(), "committed as")
}

func TestHTTPBackendCreateContainersPropagatesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	backend := NewHTTP(server.URL, resty.New())
	_, err := backend.CreateContainers(context.Background(), map[string]string{"y": "int"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "server returned")
}
