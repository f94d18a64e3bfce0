package knowledge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_FetchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("keyword\nmath\n"), 0o644))

	payload, err := NewSource(path, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "data.csv", payload.Name)
	assert.Equal(t, "keyword\nmath\n", string(payload.Data))
}

func TestSource_MissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "data.xlsx"), nil).Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestSource_NoLocation(t *testing.T) {
	_, err := NewSource("  ", nil).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestSource_FetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"keyword": "math"}]`))
	}))
	defer srv.Close()

	payload, err := NewSource(srv.URL+"/data.json?v=2", srv.Client()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "data.json", payload.Name)
	assert.Equal(t, "application/json", payload.ContentType)

	rows, err := ParseFile(payload.Name, payload.ContentType, payload.Data)
	require.NoError(t, err)
	assert.Len(t, Normalize(rows), 1)

	_, err = NewSource(srv.URL+"/missing.xlsx", srv.Client()).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestSource_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource(srv.URL+"/data.xlsx", srv.Client()).Fetch(ctx)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.LoadedAt().IsZero())

	entries := []Entry{{QuestionKeyword: "math"}}
	c.Replace(entries, "default:data.xlsx")
	entries[0].QuestionKeyword = "mutated"

	snap, source := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "math", snap[0].QuestionKeyword)
	assert.Equal(t, "default:data.xlsx", source)
	assert.False(t, c.LoadedAt().IsZero())
}
