package fetch

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

func TestSaveURLWritesBody(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		_, _ = w.Write([]byte("video bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out.mp4")
	require.NoError(t, saveURL(context.Background(), srv.Client(), srv.URL, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "video bytes", string(data))
	assert.Contains(t, gotUA, "Mozilla/5.0", "CDNs reject requests without a browser user agent")
}

func TestSaveURLRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out.mp4")
	err := saveURL(context.Background(), srv.Client(), srv.URL, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.NoFileExists(t, dest)
}

func TestDirectFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("cdn video"))
	}))
	defer srv.Close()

	d := NewDirect()
	dest := filepath.Join(t.TempDir(), "out.mp4")
	require.NoError(t, d.Fetch(context.Background(), Request{URL: srv.URL}, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "cdn video", string(data))
}
