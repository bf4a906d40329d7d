package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps resty for outbound calls to payment provider APIs.
// Methods return the full resty response so callers can distinguish a
// non-2xx provider answer from a transport failure.
type Client struct {
	r *resty.Client
}

// New creates a client with a bounded timeout. Provider calls must never
// outlive the inbound request that triggered them.
func New() *Client {
	r := resty.New().SetTimeout(15 * time.Second)
	return &Client{r: r}
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// WithBearerToken sets a bearer token for authentication.
func (c *Client) WithBearerToken(token string) *Client {
	c.r.SetAuthToken(token)
	return c
}

// WithBasicAuth sets HTTP basic auth credentials.
func (c *Client) WithBasicAuth(user, pass string) *Client {
	c.r.SetBasicAuth(user, pass)
	return c
}

// WithHeader sets a header on every request.
func (c *Client) WithHeader(key, value string) *Client {
	c.r.SetHeader(key, value)
	return c
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, url string) (*resty.Response, error) {
	return c.r.R().SetContext(ctx).Get(url)
}

// Post sends a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url string, body interface{}) (*resty.Response, error) {
	req := c.r.R().SetContext(ctx).SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	return req.Post(url)
}

// PostForm sends a POST request with URL-encoded form data.
func (c *Client) PostForm(ctx context.Context, url string, data map[string]string) (*resty.Response, error) {
	return c.r.R().SetContext(ctx).SetFormData(data).Post(url)
}

// Raw returns the underlying resty client for advanced usage.
func (c *Client) Raw() *resty.Client {
	return c.r
}
