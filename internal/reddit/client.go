package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the public Reddit origin.
	DefaultBaseURL = "https://www.reddit.com"
	// DefaultUserAgent identifies the tool; Reddit rejects generic agents.
	DefaultUserAgent = "redditpersona/0.1 (persona report generator)"

	maxPageSize = 100
)

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithSleeper replaces the function used to wait between pages.
func WithSleeper(sleep func(time.Duration)) ClientOption {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// Client talks to Reddit's unauthenticated JSON endpoints.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient HTTPClient
	sleep      func(time.Duration)
}

// NewClient creates a new Reddit client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sleep:      time.Sleep,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchActivity pages through /user/{username}.json and returns the raw
// listing items in API order. Paging stops when the cursor is exhausted, a
// page comes back empty, MaxPages pages were read, or ItemCap items were
// collected. PageDelay is slept between requests, never before the first.
func (c *Client) FetchActivity(ctx context.Context, username string, opts FetchOptions) ([]RawItem, error) {
	opts = opts.normalized()

	items := make([]RawItem, 0, min(opts.ItemCap, opts.PageSize*opts.MaxPages))
	after := ""

	for page := 0; page < opts.MaxPages; page++ {
		if page > 0 && opts.PageDelay > 0 {
			c.sleep(opts.PageDelay)
		}

		listing, err := c.fetchPage(ctx, username, opts.PageSize, after)
		if err != nil {
			return nil, err
		}

		items = append(items, listing.Data.Children...)
		if len(items) >= opts.ItemCap {
			return items[:opts.ItemCap], nil
		}

		if len(listing.Data.Children) == 0 || listing.Data.After == nil || *listing.Data.After == "" {
			break
		}
		after = *listing.Data.After
	}

	return items, nil
}

// FetchAccount retrieves /user/{username}/about.json.
func (c *Client) FetchAccount(ctx context.Context, username string) (Account, error) {
	endpoint := fmt.Sprintf("%s/user/%s/about.json?raw_json=1", c.baseURL, url.PathEscape(username))

	body, err := c.doRequest(ctx, endpoint, username)
	if err != nil {
		return Account{}, err
	}

	var response aboutResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Account{}, &NetworkError{URL: endpoint, Err: fmt.Errorf("failed to parse about response: %w", err)}
	}

	return Account{
		Name:             response.Data.Name,
		CreatedAt:        Timestamp(response.Data.CreatedUTC),
		TotalKarma:       response.Data.TotalKarma,
		LinkKarma:        response.Data.LinkKarma,
		CommentKarma:     response.Data.CommentKarma,
		Verified:         response.Data.Verified,
		HasVerifiedEmail: response.Data.HasVerifiedEmail,
		Suspended:        response.Data.IsSuspended,
	}, nil
}

func (c *Client) fetchPage(ctx context.Context, username string, limit int, after string) (*listingResponse, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", limit))
	query.Set("raw_json", "1")
	if after != "" {
		query.Set("after", after)
	}
	endpoint := fmt.Sprintf("%s/user/%s.json?%s", c.baseURL, url.PathEscape(username), query.Encode())

	body, err := c.doRequest(ctx, endpoint, username)
	if err != nil {
		return nil, err
	}

	var listing listingResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &NetworkError{URL: endpoint, Err: fmt.Errorf("failed to parse listing response: %w", err)}
	}

	return &listing, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint, username string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleAPIError(resp.StatusCode, username, endpoint)
	}

	return body, nil
}

func (o FetchOptions) normalized() FetchOptions {
	defaults := DefaultFetchOptions()
	if o.MaxPages <= 0 {
		o.MaxPages = defaults.MaxPages
	}
	if o.PageSize <= 0 {
		o.PageSize = defaults.PageSize
	}
	if o.PageSize > maxPageSize {
		o.PageSize = maxPageSize
	}
	if o.ItemCap <= 0 {
		o.ItemCap = defaults.ItemCap
	}
	return o
}

// Timestamp converts Reddit's float epoch seconds to a UTC time.
// Zero or negative input yields the zero time.
func Timestamp(epoch float64) time.Time {
	if epoch <= 0 || math.IsNaN(epoch) || math.IsInf(epoch, 0) {
		return time.Time{}
	}
	return time.Unix(int64(epoch), 0).UTC()
}
