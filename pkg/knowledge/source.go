package knowledge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxSourceBytes = 32 << 20

// Payload is the raw content fetched from a source.
type Payload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Source locates the well-known default knowledge file. Location is either a
// local path or an http(s) URL.
type Source struct {
	location string
	client   *http.Client
}

// NewSource creates a source. A nil client gets a 15 second timeout client.
func NewSource(location string, client *http.Client) *Source {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Source{location: strings.TrimSpace(location), client: client}
}

// Location returns the configured path or URL.
func (s *Source) Location() string {
	return s.location
}

// Fetch reads the source. Any failure to locate or read it wraps
// ErrSourceUnavailable.
func (s *Source) Fetch(ctx context.Context) (*Payload, error) {
	if s.location == "" {
		return nil, fmt.Errorf("%w: no location configured", ErrSourceUnavailable)
	}
	if isURL(s.location) {
		return s.fetchHTTP(ctx)
	}
	return s.fetchFile()
}

func (s *Source) fetchFile() (*Payload, error) {
	data, err := os.ReadFile(s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return &Payload{Name: filepath.Base(s.location), Data: data}, nil
}

func (s *Source) fetchHTTP(ctx context.Context) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrSourceUnavailable, s.location, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	name := s.location
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}

	return &Payload{
		Name:        filepath.Base(name),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func isURL(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
