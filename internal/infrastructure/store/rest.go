package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsCourier/internal/config"
	"NewsCourier/internal/ports"
)

// ErrNotFound aliases the port-level sentinel so callers can branch without
// importing this adapter.
var ErrNotFound = ports.ErrNotFound

// RESTStore implements ports.StateStore against a Firebase-style REST JSON
// document store: hierarchical paths, `.json` suffix, `null` body for absent
// documents, and POST-to-collection returning a generated id in `name`.
// The rest of the codebase only sees the StateStore interface; the REST
// specifics live here.
type RESTStore struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

var _ ports.StateStore = (*RESTStore)(nil)

// NewRESTStore builds an adapter for the configured backend.
func NewRESTStore(cfg config.StoreConfig) *RESTStore {
	return &RESTStore{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		secret:  cfg.Secret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Get reads the document at path into out. Absent documents (HTTP 200 with a
// literal null body, or 404) surface as ErrNotFound.
func (s *RESTStore) Get(ctx context.Context, path string, out any) error {
	body, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Put replaces the document at path.
func (s *RESTStore) Put(ctx context.Context, path string, value any) error {
	_, err := s.doJSON(ctx, http.MethodPut, path, value)
	return err
}

// Patch merges fields into the document at path, leaving others untouched.
func (s *RESTStore) Patch(ctx context.Context, path string, value any) error {
	_, err := s.doJSON(ctx, http.MethodPatch, path, value)
	return err
}

// Post appends value to the collection at path and returns the generated id.
func (s *RESTStore) Post(ctx context.Context, path string, value any) (string, error) {
	body, err := s.doJSON(ctx, http.MethodPost, path, value)
	if err != nil {
		return "", err
	}
	var created struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode post response for %s: %w", path, err)
	}
	if created.Name == "" {
		return "", fmt.Errorf("post to %s returned no id", path)
	}
	return created.Name, nil
}

func (s *RESTStore) doJSON(ctx context.Context, method, path string, value any) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", path, err)
	}
	return s.do(ctx, method, path, payload)
}

func (s *RESTStore) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("store is not configured")
	}

	url := s.baseURL + "/" + strings.Trim(path, "/") + ".json"
	if s.secret != "" {
		url += "?auth=" + s.secret
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s %s: status %s: %s", method, path, resp.Status, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	return body, nil
}
