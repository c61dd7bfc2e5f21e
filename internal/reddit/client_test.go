// Package reddit tests document the expected behavior of the Reddit client.
//
// TDD Cycle: RED -> GREEN -> REFACTOR
//
// Test requirements (this file serves as documentation):
// - Client requests /user/{username}.json with limit and after parameters
// - Client follows the after cursor until it is exhausted
// - Client stops at the page ceiling and at the item cap
// - Client sleeps the fixed page delay between pages only
// - Client sends the configured User-Agent
// - Client maps 404 to ErrUserNotFound, 429 to ErrRateLimited, others to NetworkError
// - Client looks up account metadata from /about.json
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// listingPage builds a listing body with n comments and the given cursor.
func listingPage(start, n int, after string) map[string]interface{} {
	children := make([]map[string]interface{}, 0, n)
	for i := start; i < start+n; i++ {
		children = append(children, map[string]interface{}{
			"kind": "t1",
			"data": map[string]interface{}{
				"id":          fmt.Sprintf("c%d", i),
				"body":        fmt.Sprintf("comment number %d", i),
				"subreddit":   "golang",
				"permalink":   fmt.Sprintf("/r/golang/comments/abc/x/c%d/", i),
				"created_utc": 1700000000.0 + float64(i),
				"score":       i,
			},
		})
	}
	var cursor interface{}
	if after != "" {
		cursor = after
	}
	return map[string]interface{}{
		"kind": "Listing",
		"data": map[string]interface{}{
			"after":    cursor,
			"children": children,
		},
	}
}

func noSleep(time.Duration) {}

// TestNewClient documents client creation requirements:
// - Returns a configured client with defaults
func TestNewClient(t *testing.T) {
	client := NewClient()

	if client == nil {
		t.Fatal("client should not be nil")
	}
	if client.baseURL != DefaultBaseURL {
		t.Errorf("expected default base URL %q, got %q", DefaultBaseURL, client.baseURL)
	}
	if client.userAgent != DefaultUserAgent {
		t.Errorf("expected default user agent, got %q", client.userAgent)
	}
}

// TestClient_FetchActivity_RequestsUserListing documents URL construction:
// - Path is /user/{username}.json
// - limit and raw_json query parameters are sent, no after on the first page
// - Custom User-Agent header is sent
func TestClient_FetchActivity_RequestsUserListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/spez.json" {
			t.Errorf("expected /user/spez.json, got %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "25" {
			t.Errorf("expected limit=25, got %q", got)
		}
		if got := r.URL.Query().Get("raw_json"); got != "1" {
			t.Errorf("expected raw_json=1, got %q", got)
		}
		if r.URL.Query().Has("after") {
			t.Error("first page should not send an after cursor")
		}
		if ua := r.Header.Get("User-Agent"); ua != "persona-test/1.0" {
			t.Errorf("expected custom User-Agent, got %q", ua)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(listingPage(0, 2, ""))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithUserAgent("persona-test/1.0"), WithSleeper(noSleep))
	items, err := client.FetchActivity(context.Background(), "spez", FetchOptions{MaxPages: 3, PageSize: 25, ItemCap: 300})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Kind != KindComment {
		t.Errorf("expected kind t1, got %q", items[0].Kind)
	}
}

// TestClient_FetchActivity_StopsWhenCursorExhausted documents early termination:
// - 50 items across 2 pages with a 3 page ceiling → exactly 2 requests
// - Second request carries the cursor from the first page
func TestClient_FetchActivity_StopsWhenCursorExhausted(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		w.Header().Set("Content-Type", "application/json")
		switch n {
		case 1:
			_ = json.NewEncoder(w).Encode(listingPage(0, 25, "t1_c24"))
		case 2:
			if got := r.URL.Query().Get("after"); got != "t1_c24" {
				t.Errorf("expected after=t1_c24, got %q", got)
			}
			_ = json.NewEncoder(w).Encode(listingPage(25, 25, ""))
		default:
			t.Errorf("unexpected request %d", n)
		}
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithSleeper(noSleep))
	items, err := client.FetchActivity(context.Background(), "someone", FetchOptions{MaxPages: 3, PageSize: 25, ItemCap: 300})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 50 {
		t.Errorf("expected 50 items, got %d", len(items))
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Errorf("expected 2 page fetches, got %d", got)
	}
}

// TestClient_FetchActivity_RespectsPageCeiling documents the page limit:
// - Cursor never exhausts → stops after MaxPages requests
func TestClient_FetchActivity_RespectsPageCeiling(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&requests, 1))
		_ = json.NewEncoder(w).Encode(listingPage((n-1)*10, 10, fmt.Sprintf("t1_page%d", n)))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithSleeper(noSleep))
	items, err := client.FetchActivity(context.Background(), "someone", FetchOptions{MaxPages: 3, PageSize: 10, ItemCap: 300})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&requests); got != 3 {
		t.Errorf("expected 3 page fetches, got %d", got)
	}
	if len(items) != 30 {
		t.Errorf("expected 30 items, got %d", len(items))
	}
}

// TestClient_FetchActivity_RespectsItemCap documents the item ceiling:
// - Combined count reaching the cap stops paging and truncates to the cap
func TestClient_FetchActivity_RespectsItemCap(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&requests, 1))
		_ = json.NewEncoder(w).Encode(listingPage((n-1)*100, 100, fmt.Sprintf("t1_page%d", n)))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithSleeper(noSleep))
	items, err := client.FetchActivity(context.Background(), "someone", FetchOptions{MaxPages: 5, PageSize: 100, ItemCap: 150})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 150 {
		t.Errorf("expected 150 items (cap), got %d", len(items))
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Errorf("expected 2 page fetches, got %d", got)
	}
}

// TestClient_FetchActivity_SleepsBetweenPagesOnly documents the fixed delay:
// - 3 pages → 2 sleeps of exactly PageDelay
func TestClient_FetchActivity_SleepsBetweenPagesOnly(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&requests, 1))
		after := fmt.Sprintf("t1_page%d", n)
		if n == 3 {
			after = ""
		}
		_ = json.NewEncoder(w).Encode(listingPage((n-1)*5, 5, after))
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := NewClient(WithBaseURL(server.URL), WithSleeper(func(d time.Duration) {
		sleeps = append(sleeps, d)
	}))

	_, err := client.FetchActivity(context.Background(), "someone", FetchOptions{
		MaxPages: 10, PageSize: 5, ItemCap: 300, PageDelay: 1500 * time.Millisecond,
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 sleeps between 3 pages, got %d", len(sleeps))
	}
	for _, d := range sleeps {
		if d != 1500*time.Millisecond {
			t.Errorf("expected fixed delay of 1.5s, got %v", d)
		}
	}
}

// TestClient_FetchActivity_StopsOnEmptyPage documents empty page handling:
// - A page with no children ends paging even if a cursor is present
func TestClient_FetchActivity_StopsOnEmptyPage(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		_ = json.NewEncoder(w).Encode(listingPage(0, 0, "t1_ghost"))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithSleeper(noSleep))
	items, err := client.FetchActivity(context.Background(), "someone", FetchOptions{MaxPages: 3})

	if err != nil {
		t.Fatalf("user with no activity should not see an error: %v", err)
	}
	if items == nil {
		t.Fatal("should return empty slice, not nil")
	}
	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("expected 1 page fetch, got %d", got)
	}
}

// TestClient_FetchActivity_UserNotFound documents 404 handling:
// - 404 on the first page → ErrUserNotFound
func TestClient_FetchActivity_UserNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found", "error": 404}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithSleeper(noSleep))
	_, err := client.FetchActivity(context.Background(), "nobody_here", DefaultFetchOptions())

	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "nobody_here") {
		t.Errorf("error should name the user, got %v", err)
	}
}

// TestClient_FetchActivity_FailedPageAbortsFetch documents the no-retry policy:
// - A failure on page 2 aborts the whole fetch, no partial result, no retry
func TestClient_FetchActivity_FailedPageAbortsFetch(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		if n == 1 {
			_ = json.NewEncoder(w).Encode(listingPage(0, 5, "t1_next"))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithSleeper(noSleep))
	items, err := client.FetchActivity(context.Background(), "someone", DefaultFetchOptions())

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", netErr.StatusCode)
	}
	if items != nil {
		t.Error("failed fetch should not return partial items")
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Errorf("expected no retry (2 requests), got %d", got)
	}
}

// TestClient_FetchAccount documents account lookup:
// - Reads created_utc and karma from /user/{username}/about.json
func TestClient_FetchAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/spez/about.json" {
			t.Errorf("expected /user/spez/about.json, got %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"kind": "t2",
			"data": map[string]interface{}{
				"name":               "spez",
				"created_utc":        1118030400.0,
				"total_karma":        1200,
				"link_karma":         200,
				"comment_karma":      1000,
				"verified":           true,
				"has_verified_email": true,
			},
		})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	account, err := client.FetchAccount(context.Background(), "spez")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !account.Known() {
		t.Fatal("account with created_utc should be known")
	}
	if !account.CreatedAt.Equal(time.Unix(1118030400, 0)) {
		t.Errorf("unexpected creation time %v", account.CreatedAt)
	}
	if account.TotalKarma != 1200 || account.LinkKarma != 200 || account.CommentKarma != 1000 {
		t.Errorf("unexpected karma %+v", account)
	}
	if !account.Verified {
		t.Error("expected verified account")
	}
}

// TestClient_FetchAccount_NotFound documents 404 handling for the lookup.
func TestClient_FetchAccount_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.FetchAccount(context.Background(), "ghost")

	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestTimestamp(t *testing.T) {
	if !Timestamp(0).IsZero() {
		t.Error("zero epoch should give zero time")
	}
	got := Timestamp(1700000000.75)
	if got.Unix() != 1700000000 {
		t.Errorf("expected truncation to seconds, got %d", got.Unix())
	}
	if got.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", got.Location())
	}
}
