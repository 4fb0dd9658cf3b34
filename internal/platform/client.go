package platform

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// Client is a shared HTTP client used for both the legacy source API and the
// NG target APIs.
type Client struct {
	baseURL    string
	username   string
	password   string
	apiKey     string
	httpClient *http.Client
}

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, truncate(string(e.Body), 200))
}

// NewClient creates a Client from a Connection.
func NewClient(conn *models.Connection) *Client {
	return newClient(conn.BaseURL(), conn, conn.APIKey)
}

func newClient(baseURL string, conn *models.Connection, apiKey string) *Client {
	transport := &http.Transport{}
	if conn.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	} else if conn.CACert != "" {
		caCertPool := x509.NewCertPool()
		if caCertPool.AppendCertsFromPEM([]byte(conn.CACert)) {
			transport.TLSClientConfig = &tls.Config{RootCAs: caCertPool}
		}
	}
	c := &Client{
		baseURL:  baseURL,
		username: conn.Username,
		password: conn.Password,
		apiKey:   apiKey,
	}
	c.httpClient = &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Re-apply auth on redirects
			if len(via) > 0 {
				c.authorize(req)
			}
			return nil
		},
	}
	return c
}

// BaseURL returns the URL every request path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
		return
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}

// Do sends a request and returns the body. Non-2xx responses return the body
// together with an *HTTPError.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, contentType string, body []byte) ([]byte, int, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return respBody, resp.StatusCode, &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: respBody}
	}
	return respBody, resp.StatusCode, nil
}

// Get performs an authenticated GET request and returns the response body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	body, _, err := c.Do(ctx, http.MethodGet, path, params, "", nil)
	return body, err
}

// GetJSON performs an authenticated GET and unmarshals the response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing response from %s: %w", path, err)
	}
	return nil
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, params url.Values, payload interface{}) ([]byte, int, error) {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshaling body: %w", err)
		}
	}
	return c.Do(ctx, http.MethodPost, path, params, "application/json", data)
}

// PostYAML performs an authenticated POST with a raw YAML body.
func (c *Client) PostYAML(ctx context.Context, path string, params url.Values, body []byte) ([]byte, int, error) {
	return c.Do(ctx, http.MethodPost, path, params, "application/yaml", body)
}

// Ping checks connectivity by hitting the given path.
func (c *Client) Ping(ctx context.Context, apiPath string) error {
	_, err := c.Get(ctx, apiPath, nil)
	return err
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
