// Package persona derives a user persona from normalized Reddit activity.
//
// This package enables redditpersona to:
// - Tally interest categories from fixed keyword dictionaries
// - Detect personality traits with independent threshold rules
// - Summarize posting behavior and cadence
// - Extract stated goals and frustrations from lead-in phrases
//
// Every detection is deterministic keyword matching; every citation points
// at a record the result was built from.
package persona

import "time"

// Labels of the aggregate trait rules.
const (
	TraitConversational = "conversational"
	TraitCurious        = "curious"
)

// Citation points back at the record that supports a finding.
type Citation struct {
	Subreddit string `json:"subreddit"`
	Snippet   string `json:"snippet"`
	Permalink string `json:"permalink"`
}

// SubredditCount is one row of the subreddit histogram.
type SubredditCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Interest is a matched interest category.
type Interest struct {
	Category  string     `json:"category"`
	Count     int        `json:"count"`
	Citations []Citation `json:"citations"`
}

// Trait is a fired trait rule with the number of supporting records.
type Trait struct {
	Label     string     `json:"label"`
	Evidence  int        `json:"evidence"`
	Citations []Citation `json:"citations"`
}

// Phrase is an extracted goal or frustration.
type Phrase struct {
	LeadIn   string   `json:"lead_in"`
	Text     string   `json:"text"`
	Citation Citation `json:"citation"`
}

// Behavior summarizes how the user posts.
type Behavior struct {
	PostCount           int       `json:"post_count"`
	CommentCount        int       `json:"comment_count"`
	AveragePostScore    float64   `json:"average_post_score"`
	AverageCommentScore float64   `json:"average_comment_score"`
	InteractionsPerDay  float64   `json:"interactions_per_day"`
	CadenceBasisDays    int       `json:"cadence_basis_days"`
	FirstActivity       time.Time `json:"first_activity"`
	LastActivity        time.Time `json:"last_activity"`
	Observations        []string  `json:"observations"`
}

// Result is the complete persona for one user.
type Result struct {
	Username       string           `json:"username"`
	AccountKnown   bool             `json:"account_known"`
	AccountAgeDays int              `json:"account_age_days"`
	TotalKarma     int              `json:"total_karma"`
	LinkKarma      int              `json:"link_karma"`
	CommentKarma   int              `json:"comment_karma"`
	PostCount      int              `json:"post_count"`
	CommentCount   int              `json:"comment_count"`
	TopSubreddits  []SubredditCount `json:"top_subreddits"`
	Interests      []Interest       `json:"interests"`
	Traits         []Trait          `json:"traits"`
	Behavior       Behavior         `json:"behavior"`
	Goals          []Phrase         `json:"goals"`
	Frustrations   []Phrase         `json:"frustrations"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

// Empty reports whether the persona was built from no records.
func (r Result) Empty() bool {
	return r.PostCount+r.CommentCount == 0
}

// Options tunes limits. Now is the clock reading used for account age and
// cadence; passing it in keeps Analyze free of hidden inputs.
type Options struct {
	CitationLimit int
	PhraseLimit   int
	SnippetLength int
	Now           time.Time
}

// DefaultOptions returns the limits used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		CitationLimit: 3,
		PhraseLimit:   5,
		SnippetLength: 100,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.CitationLimit <= 0 {
		o.CitationLimit = d.CitationLimit
	}
	if o.PhraseLimit <= 0 {
		o.PhraseLimit = d.PhraseLimit
	}
	if o.SnippetLength <= 0 {
		o.SnippetLength = d.SnippetLength
	}
	return o
}
