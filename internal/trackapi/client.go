package trackapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/grpc/metadata"
)

// DefaultBaseURL is the public catalogue REST API.
const DefaultBaseURL = "https://odyssey-lift-off-rest-api.herokuapp.com/"

const maxErrorBody = 4 << 10

// Client is a TrackAPI backed by the catalogue REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	forward bool
}

var _ TrackAPI = (*Client)(nil)

type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for upstream calls.
func WithHTTPClient(hc *http.Client) ClientOption { return func(c *Client) { c.http = hc } }

// WithTimeout bounds every upstream call. 0 means no per-call timeout.
func WithTimeout(d time.Duration) ClientOption { return func(c *Client) { c.timeout = d } }

// WithForwardedMetadata copies outgoing gRPC metadata found in the call
// context onto the upstream request headers.
func WithForwardedMetadata() ClientOption { return func(c *Client) { c.forward = true } }

// NewClient returns a client for the API rooted at baseURL. An empty baseURL
// selects DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("trackapi: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("trackapi: base url %q must be http or https", baseURL)
	}
	c := &Client{baseURL: u, http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetTracksForHome calls GET tracks.
func (c *Client) GetTracksForHome(ctx context.Context) ([]*Track, error) {
	var tracks []*Track
	if err := c.get(ctx, "getTracksForHome", "tracks", &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// GetAuthor calls GET author/{id}.
func (c *Client) GetAuthor(ctx context.Context, authorID string) (*Author, error) {
	var author *Author
	if err := c.get(ctx, "getAuthor", "author/"+url.PathEscape(authorID), &author); err != nil {
		return nil, err
	}
	return author, nil
}

func (c *Client) get(ctx context.Context, operation, path string, out any) (err error) {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("trackapi: %s: %w", operation, err)
	}
	target := c.baseURL.ResolveReference(ref).String()

	status := 0
	done := observe(ctx, "rest", operation, target)
	defer func() { done(status, err) }()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("trackapi: %s: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.forward {
		if md, ok := metadata.FromOutgoingContext(ctx); ok {
			for k, vs := range md {
				for _, v := range vs {
					req.Header.Add(k, v)
				}
			}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("trackapi: %s: %w", operation, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, URL: target, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("trackapi: %s: decode response: %w", operation, err)
	}
	return nil
}
