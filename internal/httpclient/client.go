// availtrack
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Options configure a named client profile
type Options struct {
	// BaseURL is the absolute URL relative request paths are resolved against
	BaseURL string
	// Headers are added to every request sent by the client
	Headers map[string]string
	// Timeout limits the time of a single request, zero means no timeout
	Timeout time.Duration
	// VerifyConnection replaces the default certificate verification of the
	// TLS handshake when set. The handshake is aborted if it returns an error.
	VerifyConnection func(tls.ConnectionState) error
}

// Client is an http client bound to a base address and default headers
type Client struct {
	name    string
	baseURL *url.URL
	headers http.Header
	http    *http.Client
}

// New creates a new client from the given options
func New(name string, opts Options) (*Client, error) {
	c := &Client{
		name:    name,
		headers: http.Header{},
		http:    &http.Client{Timeout: opts.Timeout},
	}

	if opts.BaseURL != "" {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url of client %q: %w", name, err)
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("base url of client %q must be absolute: %q", name, opts.BaseURL)
		}
		c.baseURL = u
	}

	for k, v := range opts.Headers {
		c.headers.Set(k, v)
	}

	// Leaving the transport unset keeps requests on http.DefaultTransport
	if opts.VerifyConnection != nil {
		transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
		if t, ok := http.DefaultTransport.(*http.Transport); ok {
			transport = t.Clone()
		}
		transport.TLSClientConfig = &tls.Config{
			// certificate verification is done by VerifyConnection
			InsecureSkipVerify: true, //nolint:gosec
			VerifyConnection:   opts.VerifyConnection,
			MinVersion:         tls.VersionTLS12,
		}
		c.http.Transport = transport
	}

	return c, nil
}

// Name returns the logical name of the client
func (c *Client) Name() string {
	return c.name
}

// BaseAddress returns the base address of the client or an empty string
func (c *Client) BaseAddress() string {
	if c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// Get sends a GET request for the given path. The caller must close the response body.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}

	return c.http.Do(req)
}

func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}
	if c.baseURL == nil {
		if !ref.IsAbs() {
			return "", fmt.Errorf("client %q has no base url to resolve %q against", c.name, path)
		}
		return ref.String(), nil
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

// ErrClientNotRegistered is returned when a client is requested by a name
// that was never registered. It indicates a configuration error.
var ErrClientNotRegistered = errors.New("http client not registered")
