package github

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/gioxx/yourls-diff/internal/config"
	"github.com/gioxx/yourls-diff/internal/logger"
	"github.com/gioxx/yourls-diff/internal/version"
)

var (
	errBadHTTPStatus = errors.New("unexpected http status")
	errEmptyTagName  = errors.New("latest release has no tag name")
)

// Client fetches release metadata and source archives from a GitHub-style host.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	token      string
}

// Option configures optional Client behavior.
type Option func(*Client)

// WithInsecureTLS disables TLS certificate verification.
// Not recommended; surfaced to the operator behind the --no-verify flag.
func WithInsecureTLS() Option {
	return func(c *Client) {
		transport, ok := http.DefaultTransport.(*http.Transport)
		if !ok {
			transport = &http.Transport{}
		} else {
			transport = transport.Clone()
		}

		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // Explicit operator opt-in.
		c.httpClient.Transport = transport
	}
}

// WithToken attaches a bearer token to API requests.
// Useful against GitHub rate limits; empty tokens are ignored.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New builds a Client from the provided settings.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// latestRelease is the slice of the GitHub release payload we care about.
type latestRelease struct {
	TagName string `json:"tag_name"`
}

// LatestTag resolves the tag name of the most recent published release.
func (c *Client) LatestTag(ctx context.Context) (string, error) {
	endpoint, err := c.latestReleaseURL()
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Resolving latest release tag", "url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return "", err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	c.decorate(req)

	response, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve latest tag: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s, %s: %w", endpoint, response.Status, errBadHTTPStatus)
	}

	var release latestRelease
	if err = json.NewDecoder(response.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("decode latest release: %w", err)
	}

	if release.TagName == "" {
		return "", errEmptyTagName
	}

	return release.TagName, nil
}

// DownloadArchive streams the source archive for the given tag to destPath.
func (c *Client) DownloadArchive(ctx context.Context, tag, destPath string) error {
	archiveURL, err := c.archiveURL(tag)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Downloading release archive", "tag", tag, "url", archiveURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, http.NoBody)
	if err != nil {
		return err
	}

	c.decorate(req)

	response, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", tag, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s, %s: %w", archiveURL, response.Status, errBadHTTPStatus)
	}

	outputFile, err := os.Create(filepath.Clean(destPath))
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}

	if _, err = io.Copy(outputFile, response.Body); err != nil {
		_ = outputFile.Close()

		return fmt.Errorf("save %s: %w", destPath, err)
	}

	return outputFile.Close()
}

// decorate sets the headers common to all outgoing requests.
func (c *Client) decorate(req *http.Request) {
	req.Header.Set("User-Agent", "yourls-diff/"+version.Short())

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// latestReleaseURL composes the releases/latest API endpoint for the configured repository.
func (c *Client) latestReleaseURL() (string, error) {
	u, err := url.Parse(c.cfg.APIBaseURL)
	if err != nil {
		return "", err
	}

	// path.Join normalizes duplicate slashes when composing the URL path.
	u.Path = path.Join(u.Path, "repos", c.cfg.RepositoryOwner, c.cfg.RepositoryName, "releases", "latest")

	return u.String(), nil
}

// archiveURL composes the source archive endpoint for the given tag.
func (c *Client) archiveURL(tag string) (string, error) {
	u, err := url.Parse(c.cfg.DownloadBaseURL)
	if err != nil {
		return "", err
	}

	u.Path = path.Join(u.Path, c.cfg.RepositoryOwner, c.cfg.RepositoryName, "archive", "refs", "tags", tag+".zip")

	return u.String(), nil
}
