// Package hubspot is a small client for the HubSpot v1 REST API.
//
// Call builds a request against the configured base URL, merges the API key
// into the query string and returns the raw response. It does not retry and
// does not look at status codes; RecentEngagements layers status checking and
// typed page decoding on top of it for the ingestion loop.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Defaults applied by NewClient to zero-valued Config fields.
const (
	DefaultBaseURL = "https://api.hubapi.com"
	DefaultAPIKey  = "demo"
	DefaultTimeout = 30 * time.Second

	// APIKeyParam is the query parameter carrying the API key.
	APIKeyParam = "hapikey"
)

// Config configures the API client.
type Config struct {
	// BaseURL is the scheme and host requests are sent to.
	BaseURL string

	// APIKey is sent as the hapikey query parameter on every call.
	APIKey string

	// Timeout is the per-request timeout applied at the http.Client level.
	// A negative value disables the timeout.
	Timeout time.Duration

	// UserAgent, when set, is sent on every request.
	UserAgent string

	// Transport is an optional custom RoundTripper; tests inject one.
	Transport http.RoundTripper
}

// Client issues calls against the HubSpot API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
}

// NewClient constructs a Client from cfg, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = DefaultAPIKey
	}
	switch {
	case cfg.Timeout == 0:
		cfg.Timeout = DefaultTimeout
	case cfg.Timeout < 0:
		cfg.Timeout = 0
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
	}
}

// isWrite reports whether method carries its payload in the request body.
func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// Call sends method to endpoint (a path such as "/engagements/v1/...").
// method is case-insensitive and defaults to GET.
//
// For reads the payload entries are merged into the query string after the
// API key, so a payload "hapikey" entry wins. For writes the API key stays in
// the query string and the payload is sent as a JSON body.
//
// The caller must close the response body. Status codes are not inspected.
func (c *Client) Call(ctx context.Context, endpoint string, payload map[string]any, method string) (*http.Response, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}

	q := url.Values{}
	q.Set(APIKeyParam, c.apiKey)

	var body []byte
	if isWrite(method) {
		if payload != nil {
			b, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("hubspot: encode payload: %w", err)
			}
			body = b
		}
	} else {
		for k, v := range payload {
			q.Set(k, fmt.Sprint(v))
		}
	}

	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/") + "?" + q.Encode()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("hubspot: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error carries the full URL; keep the key out of logs.
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redactKey(ue.URL)
		}
		return nil, fmt.Errorf("hubspot: %s %s: %w", method, endpoint, err)
	}
	return resp, nil
}

func redactKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has(APIKeyParam) {
		q.Set(APIKeyParam, "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
