// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package triangulator is the client of the remote Delaunay triangulation service.
//
// The wire contract is a POST of {"points":[{"x":..,"y":..}, ...]} answered by
// [{"x1":..,"y1":..,"x2":..,"y2":..}, ...].
package triangulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2dChan/liftview/geom"
	"github.com/goccy/go-json"
)

const (
	DefaultPath = "/triangulation-visualiser/get-delaunay-edges"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 32 << 20
)

var (
	ErrInvalidURL        = errors.New("triangulator: invalid base URL")
	ErrMalformedResponse = errors.New("triangulator: malformed response")
)

// StatusError reports a non-2xx answer from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("triangulator: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("triangulator: unexpected status %d: %s", e.Code, e.Body)
}

// Request is the body posted to the service.
type Request struct {
	Points []geom.Point `json:"points"`
}

type ClientOptions struct {
	Path       string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type ClientOption func(*ClientOptions) error

// WithPath overrides the endpoint path appended to the base URL.
func WithPath(path string) ClientOption {
	return func(o *ClientOptions) error {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("WithPath(%q): path must start with /", path)
		}
		o.Path = path
		return nil
	}
}

// WithTimeout bounds each request. It must be positive.
func WithTimeout(d time.Duration) ClientOption {
	return func(o *ClientOptions) error {
		if d <= 0 {
			return fmt.Errorf("WithTimeout(%v): timeout must be positive", d)
		}
		o.Timeout = d
		return nil
	}
}

func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *ClientOptions) error {
		if c == nil {
			return errors.New("WithHTTPClient: nil client")
		}
		o.HTTPClient = c
		return nil
	}
}

type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
}

func NewClient(baseURL string, setters ...ClientOption) (*Client, error) {
	opts := ClientOptions{
		Path:       DefaultPath,
		Timeout:    defaultTimeout,
		HTTPClient: http.DefaultClient,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}

	return &Client{
		endpoint: strings.TrimSuffix(u.String(), "/") + opts.Path,
		timeout:  opts.Timeout,
		http:     opts.HTTPClient,
	}, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Triangulate posts points to the service and returns the edges of their triangulation.
func (c *Client) Triangulate(ctx context.Context, points []geom.Point) ([]geom.Edge, error) {
	if points == nil {
		points = []geom.Point{}
	}
	body, err := json.Marshal(Request{Points: points})
	if err != nil {
		return nil, fmt.Errorf("triangulator: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("triangulator: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("triangulator: post %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("triangulator: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(truncate(string(raw), 256))}
	}

	var edges []geom.Edge
	if err := json.Unmarshal(raw, &edges); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if edges == nil {
		return nil, fmt.Errorf("%w: expected an array of edges", ErrMalformedResponse)
	}
	for i, e := range edges {
		if !e.IsFinite() {
			return nil, fmt.Errorf("%w: edge %d is not finite", ErrMalformedResponse, i)
		}
	}
	return edges, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
