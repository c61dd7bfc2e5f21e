// Package reddit provides a client for Reddit's public JSON endpoints.
//
// This package enables redditpersona to:
// - Resolve a username from a profile URL or bare name
// - Page through a user's overview listing (posts and comments)
// - Look up account metadata (creation time, karma)
package reddit

import (
	"encoding/json"
	"time"
)

// Listing kinds as used by Reddit's "thing" prefixes.
const (
	KindComment = "t1"
	KindAccount = "t2"
	KindPost    = "t3"
)

// RawItem is one entry of a listing's data.children array. Data is kept
// undecoded so a single malformed item does not fail the whole page.
type RawItem struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Account holds the subset of /about.json the persona uses.
// The zero value means the account could not be looked up.
type Account struct {
	Name             string    `json:"name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	TotalKarma       int       `json:"total_karma"`
	LinkKarma        int       `json:"link_karma"`
	CommentKarma     int       `json:"comment_karma"`
	Verified         bool      `json:"verified"`
	HasVerifiedEmail bool      `json:"has_verified_email"`
	Suspended        bool      `json:"suspended,omitempty"`
}

// Known reports whether the account lookup returned a creation time.
func (a Account) Known() bool {
	return !a.CreatedAt.IsZero()
}

// FetchOptions bounds a listing fetch.
type FetchOptions struct {
	MaxPages  int
	PageSize  int
	ItemCap   int
	PageDelay time.Duration
}

// DefaultFetchOptions returns the limits used when nothing is configured.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		MaxPages:  3,
		PageSize:  100,
		ItemCap:   300,
		PageDelay: time.Second,
	}
}

// API response types (private - implementation detail)

type listingResponse struct {
	Kind string `json:"kind"`
	Data struct {
		After    *string   `json:"after"`
		Children []RawItem `json:"children"`
	} `json:"data"`
}

type aboutResponse struct {
	Kind string `json:"kind"`
	Data struct {
		Name             string  `json:"name"`
		CreatedUTC       float64 `json:"created_utc"`
		TotalKarma       int     `json:"total_karma"`
		LinkKarma        int     `json:"link_karma"`
		CommentKarma     int     `json:"comment_karma"`
		Verified         bool    `json:"verified"`
		HasVerifiedEmail bool    `json:"has_verified_email"`
		IsSuspended      bool    `json:"is_suspended"`
	} `json:"data"`
}
