// Package hda talks to the Destination Earth Harmonised Data Access
// service: token authentication, STAC catalogue search, and product
// download including asynchronous order polling.
package hda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sma-lab/smactl/internal/logging"
)

// Defaults for the public DESP endpoints.
const (
	DefaultBaseURL  = "https://hda.data.destination-earth.eu"
	DefaultTokenURL = "https://auth.destination-earth.eu/realms/desp/protocol/openid-connect/token"

	defaultPollInterval = 5 * time.Second
)

var (
	// ErrAuthFailed is returned when no access token could be obtained.
	ErrAuthFailed = errors.New("failed to obtain access token")

	// ErrNoProducts is returned when a search matches nothing.
	ErrNoProducts = errors.New("no matching products found")
)

// SearchRequest describes one STAC search.
type SearchRequest struct {
	Collections []string
	Start       string // e.g. "2021-06-01"
	End         string // e.g. "2021-06-10"
	Query       map[string]any
}

// Product is the slice of a STAC feature the downloader needs.
type Product struct {
	ID          string
	DownloadURL string
}

// Client is an authenticated HDA API client. It caches the access token
// across calls; concurrent use is safe.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokenURL   string
	username   string
	password   string

	pollInterval time.Duration
	logger       *slog.Logger

	mu    sync.Mutex
	token string
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the HDA endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTokenURL overrides the identity endpoint (used by tests).
func WithTokenURL(u string) Option {
	return func(c *Client) {
		c.tokenURL = u
	}
}

// WithPollInterval sets the wait between order status polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates an HDA client for the given DESP credentials.
func New(username, password string, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Minute},
		baseURL:      DefaultBaseURL,
		tokenURL:     DefaultTokenURL,
		username:     username,
		password:     password,
		pollInterval: defaultPollInterval,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Authenticate obtains (and caches) an access token.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {"hda-public"},
		"username":   {c.username},
		"password":   {c.password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: identity service returned %d: %s", ErrAuthFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if tok.AccessToken == "" {
		return "", ErrAuthFailed
	}

	c.logger.Debug("access token obtained")
	c.token = tok.AccessToken
	return c.token, nil
}

// stacResponse models the subset of the search reply we consume.
type stacResponse struct {
	Features []struct {
		ID     string `json:"id"`
		Assets map[string]struct {
			Href string `json:"href"`
		} `json:"assets"`
	} `json:"features"`
}

// SearchFirst runs a STAC search and returns the first matching product.
// The original flow always picks the first feature; ranges are narrow
// enough that one product covers them.
func (c *Client) SearchFirst(ctx context.Context, sr SearchRequest) (*Product, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"collections": sr.Collections,
		"datetime":    fmt.Sprintf("%s/%s", sr.Start, sr.End),
		"query":       sr.Query,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search payload: %w", err)
	}

	searchURL := c.baseURL + "/stac/search"
	c.logger.Debug("stac search", "start", sr.Start, "end", sr.End)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var sres stacResponse
	if err := json.NewDecoder(resp.Body).Decode(&sres); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if len(sres.Features) == 0 {
		return nil, fmt.Errorf("%w for %s/%s", ErrNoProducts, sr.Start, sr.End)
	}

	feature := sres.Features[0]
	link, ok := feature.Assets["downloadLink"]
	if !ok || link.Href == "" {
		return nil, fmt.Errorf("product %s has no downloadLink asset", feature.ID)
	}

	return &Product{ID: feature.ID, DownloadURL: link.Href}, nil
}

// orderStatus models the polling reply of an asynchronous order.
type orderStatus struct {
	Status string `json:"status"`
}

// Progress reports streamed bytes. total is 0 when the server did not
// send a Content-Length.
type Progress func(written, total int64)

// Download streams the product payload into w.
//
// Orders can be asynchronous: a 202 reply carries a Location header that
// must be polled until the data is ready. Status changes are logged; the
// poll interval is configurable.
func (c *Client) Download(ctx context.Context, product *Product, w io.Writer, progress Progress) error {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}

	resp, err := c.get(ctx, product.DownloadURL, token)
	if err != nil {
		return err
	}

	// Poll as long as the order is not ready.
	lastStatus := ""
	for {
		location := resp.Header.Get("Location")
		if resp.StatusCode == http.StatusOK || location == "" {
			break
		}

		status := lastStatus
		var st orderStatus
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if err := json.Unmarshal(data, &st); err == nil && st.Status != "" {
			status = st.Status
		}
		if status != lastStatus {
			c.logger.Info("order status", "product", product.ID, "status", status)
			lastStatus = status
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}

		resp, err = c.get(ctx, location, token)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("download returned %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	buf := make([]byte, 32*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return fmt.Errorf("write failed: %w", err)
			}
			written += int64(n)
			if progress != nil {
				progress(written, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("download stream failed: %w", readErr)
		}
	}

	c.logger.Debug("download completed", "product", product.ID, "bytes", written)
	return nil
}

func (c *Client) get(ctx context.Context, rawURL, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
