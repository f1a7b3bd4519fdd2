package persistence

import (
	"context"
	"fmt"
	"sync"

	"resty.dev/v3"
)

// HTTP is a Backend that POSTs committed products to a configurable REST
// sink: CreateContainers and CommitOutput POST to BaseURL and Read GETs
// from it, while RegisterWrite only stages a payload locally until
// CommitOutput sends it, mirroring the teacher's modules/http_client
// asset-plus-runner shape but wired directly to the persistence contract
// rather than exposed as its own algorithm node.
type HTTP struct {
	client  *resty.Client
	BaseURL string

	mu      sync.Mutex
	nextID  int
	pending map[int]*httpCreator
}

type httpCreator struct {
	id     int
	types  map[string]string
	staged map[string]httpPayload
}

type httpPayload struct {
	Data any    `json:"data"`
	Type string `json:"type"`
}

// NewHTTP returns an HTTP-backed Backend posting to baseURL using client,
// or a freshly constructed resty.Client if client is nil.
func NewHTTP(baseURL string, client *resty.Client) *HTTP {
	if client == nil {
		client = resty.New()
	}
	return &HTTP{client: client, BaseURL: baseURL, pending: make(map[int]*httpCreator)}
}

func (h *HTTP) CreateContainers(ctx context.Context, types map[string]string) (Creator, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"types": types}).
		Post(h.BaseURL + "/containers")
	if err != nil {
		return nil, fmt.Errorf("persistence: create containers request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("persistence: create containers: server returned %s", resp.Status())
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	c := &httpCreator{id: h.nextID, types: types, staged: make(map[string]httpPayload)}
	h.pending[c.id] = c
	return c, nil
}

func (h *HTTP) RegisterWrite(_ context.Context, creator Creator, product string, data any, typeName string) error {
	c, ok := creator.(*httpCreator)
	if !ok {
		return fmt.Errorf("persistence: creator not issued by this backend")
	}
	want, declared := c.types[product]
	if !declared {
		return fmt.Errorf("persistence: product %q was not declared in CreateContainers", product)
	}
	if want != typeName {
		return fmt.Errorf("persistence: product %q declared type %q, write used %q", product, want, typeName)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	c.staged[product] = httpPayload{Data: data, Type: typeName}
	return nil
}

func (h *HTTP) CommitOutput(ctx context.Context, creator Creator, id string) error {
	c, ok := creator.(*httpCreator)
	if !ok {
		return fmt.Errorf("persistence: creator not issued by this backend")
	}

	h.mu.Lock()
	staged := c.staged
	h.mu.Unlock()

	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"id": id, "products": staged}).
		Post(h.BaseURL + "/outputs")
	if err != nil {
		return fmt.Errorf("persistence: commit output request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("persistence: commit output: server returned %s", resp.Status())
	}

	h.mu.Lock()
	delete(h.pending, c.id)
	h.mu.Unlock()
	return nil
}

func (h *HTTP) Read(ctx context.Context, _ Creator, product, id string, out any, typeName string) error {
	dst, ok := out.(*any)
	if !ok {
		return fmt.Errorf("persistence: HTTP.Read only supports *any destinations, got %T", out)
	}
	var payload httpPayload
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"id": id, "product": product}).
		SetResult(&payload).
		Get(h.BaseURL + "/outputs/{id}/{product}")
	if err != nil {
		return fmt.Errorf("persistence: read request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("persistence: read: server returned %s", resp.Status())
	}
	if payload.Type != typeName {
		return fmt.Errorf("persistence: product %q committed as %q, read requested %q", product, payload.Type, typeName)
	}
	*dst = payload.Data
	return nil
}
