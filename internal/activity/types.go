// Package activity turns raw Reddit listing items into uniform records.
//
// This package enables redditpersona to:
// - Treat posts and comments as one ordered activity stream
// - Drop removed, deleted, and malformed items without failing a run
package activity

import "time"

// Kind identifies the type of activity.
type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

// Record is one normalized post or comment.
type Record struct {
	Kind      Kind      `json:"kind"`
	ID        string    `json:"id"`
	Subreddit string    `json:"subreddit"`
	Text      string    `json:"text"`
	Permalink string    `json:"permalink"`
	CreatedAt time.Time `json:"created_at"`
	Score     int       `json:"score"`
}

// Skipped explains why a raw item produced no record.
type Skipped struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// Counts returns the number of posts and comments in records.
func Counts(records []Record) (posts, comments int) {
	for _, r := range records {
		switch r.Kind {
		case KindPost:
			posts++
		case KindComment:
			comments++
		}
	}
	return posts, comments
}
