package client

import (
	"net/http"
	"time"
)

// ReqOption is a request functional option.
type ReqOption func(*http.Request)

// WithQueryValue adds a query parameter to the request url.
func WithQueryValue(key, value string) ReqOption {
	return func(req *http.Request) {
		q := req.URL.Query()
		q.Add(key, value)
		req.URL.RawQuery = q.Encode()
	}
}

// ClientOpt is a functional option for the Client type (http.Client wrapper)
type ClientOpt func(*Client)

// WithTimeout sets the .Timeout attribute of the wrapped http.Client.
func WithTimeout(timeout time.Duration) ClientOpt {
	return func(c *Client) {
		c.hc.Timeout = timeout
	}
}
