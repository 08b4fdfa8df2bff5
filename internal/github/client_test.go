package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gioxx/yourls-diff/internal/config"
)

// newTestConfig points both endpoints at the provided test server.
func newTestConfig(serverURL string) *config.Config {
	cfg := &config.Config{
		RepositoryOwner: "acme",
		RepositoryName:  "shortener",
		APIBaseURL:      serverURL,
		DownloadBaseURL: serverURL,
		Timeout:         5 * time.Second,
	}

	return cfg
}

// TestLatestTag resolves the latest tag from the API payload.
func TestLatestTag(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/shortener/releases/latest", r.URL.Path)
		require.Contains(t, r.Header.Get("Accept"), "application/vnd.github+json")

		_, _ = w.Write([]byte(`{"tag_name": "1.9.2"}`))
	}))
	defer server.Close()

	client := New(newTestConfig(server.URL))

	tag, err := client.LatestTag(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1.9.2", tag)
}

// TestLatestTagErrors covers non-200 responses and empty payloads.
func TestLatestTagErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/shortener/releases/latest":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := New(newTestConfig(server.URL))

	_, err := client.LatestTag(context.Background())
	require.ErrorIs(t, err, errEmptyTagName)

	broken := newTestConfig(server.URL)
	broken.RepositoryName = "missing"

	_, err = New(broken).LatestTag(context.Background())
	require.ErrorIs(t, err, errBadHTTPStatus)
}

// TestLatestTagSendsToken verifies the bearer header is attached when a token is set.
func TestLatestTagSendsToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"tag_name": "2.0"}`))
	}))
	defer server.Close()

	client := New(newTestConfig(server.URL), WithToken("sekrit"))

	_, err := client.LatestTag(context.Background())
	require.NoError(t, err)
}

// TestDownloadArchive streams the archive body to the destination file.
func TestDownloadArchive(t *testing.T) {
	t.Parallel()

	payload := []byte("fake zip bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/acme/shortener/archive/refs/tags/1.9.2.zip", r.URL.Path)

		_, _ = w.Write(payload)
	}))
	defer server.Close()

	client := New(newTestConfig(server.URL))
	dest := filepath.Join(t.TempDir(), "1.9.2.zip")

	require.NoError(t, client.DownloadArchive(context.Background(), "1.9.2", dest))

	contents, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, payload, contents)
}

// TestDownloadArchiveBadStatus surfaces HTTP failures to the caller.
func TestDownloadArchiveBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(newTestConfig(server.URL))
	dest := filepath.Join(t.TempDir(), "nope.zip")

	err := client.DownloadArchive(context.Background(), "nope", dest)
	require.ErrorIs(t, err, errBadHTTPStatus)
}

// TestInsecureTLS checks that --no-verify allows a self-signed test server.
func TestInsecureTLS(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name": "1.0"}`))
	}))
	defer server.Close()

	// Default client refuses the self-signed certificate.
	_, err := New(newTestConfig(server.URL)).LatestTag(context.Background())
	require.Error(t, err)

	tag, err := New(newTestConfig(server.URL), WithInsecureTLS()).LatestTag(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1.0", tag)
}
