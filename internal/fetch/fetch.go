// Package fetch performs the blocking HTTP GETs used by download actions.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Client downloads URLs with a fixed User-Agent.
type Client struct {
	HTTP      *http.Client // defaults to http.DefaultClient
	UserAgent string
}

// New returns a Client identifying itself as rigup/version.
func New(version string) *Client {
	return &Client{UserAgent: "rigup/" + version}
}

// Get issues a GET for url and returns the body of a 2xx response. The caller
// must close it. Any other status is an error.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return resp.Body, nil
}
