package complaint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseStore inserts complaints through the Supabase PostgREST endpoint.
type SupabaseStore struct {
	endpoint string
	key      string
	client   *http.Client
}

func NewSupabaseStore(baseURL, key, table string) (*SupabaseStore, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}
	if table == "" {
		table = "complaints"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse supabase url: %w", err)
	}
	return &SupabaseStore{
		endpoint: baseURL + "/rest/v1/" + url.PathEscape(table),
		key:      strings.TrimSpace(key),
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *SupabaseStore) Insert(ctx context.Context, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Prefer", "return=minimal")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("supabase insert status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (s *SupabaseStore) Name() string { return "supabase" }

func (s *SupabaseStore) Close() error { return nil }
