// Package httputil provides a minimal context aware http client shared by the
// REST price sources, the ledger client and the alert webhook.
package httputil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds requests whose context has no deadline.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// Client wraps *http.Client with helpers returning status code and body.
type Client struct {
	*http.Client
}

// NewClient returns a client with the given request timeout. A non positive
// timeout selects DefaultTimeout.
func NewClient(requestTimeout time.Duration) *Client {
	if requestTimeout <= 0 {
		requestTimeout = DefaultTimeout
	}
	return &Client{&http.Client{Timeout: requestTimeout}}
}

// Get issues a GET request to rawURL with the given query params and headers.
func (c *Client) Get(
	ctx context.Context, rawURL string, query map[string]string, header map[string]string,
) (int, []byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, nil, err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, nil, err
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}
	return c.doRequest(req)
}

// Post issues a POST request with the given body and headers.
func (c *Client) Post(
	ctx context.Context, url string, body []byte, header map[string]string,
) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}
	return c.doRequest(req)
}

func (c *Client) doRequest(req *http.Request) (int, []byte, error) {
	rs, err := c.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer rs.Body.Close()

	body, err := io.ReadAll(io.LimitReader(rs.Body, maxBodySize))
	if err != nil {
		return -1, nil, err
	}
	return rs.StatusCode, body, nil
}

// StatusError is returned by CheckStatus for non 2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.Code, body)
}

// CheckStatus returns a *StatusError unless status is 2xx.
func CheckStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return &StatusError{Code: status, Body: string(body)}
}
