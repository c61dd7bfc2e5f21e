package activity

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gauthierbraillon/redditpersona/internal/reddit"
)

const permalinkBase = "https://www.reddit.com"

// Sentinels Reddit substitutes for content that is gone.
var removalSentinels = map[string]bool{
	"[deleted]": true,
	"[removed]": true,
}

// rawThing is the union of post and comment fields we read.
type rawThing struct {
	ID         string  `json:"id"`
	Subreddit  string  `json:"subreddit"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Body       string  `json:"body"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
	Score      int     `json:"score"`
}

// Normalize converts raw listing items into records, preserving input order.
// Items that carry no usable text or lack required fields are reported in
// the second return value instead of failing.
func Normalize(items []reddit.RawItem) ([]Record, []Skipped) {
	records := make([]Record, 0, len(items))
	var skipped []Skipped

	for i, item := range items {
		record, err := normalizeItem(item)
		if err != nil {
			skipped = append(skipped, Skipped{Index: i, ID: record.ID, Reason: err.Error()})
			continue
		}
		records = append(records, record)
	}

	return records, skipped
}

func normalizeItem(item reddit.RawItem) (Record, error) {
	var kind Kind
	switch item.Kind {
	case reddit.KindPost:
		kind = KindPost
	case reddit.KindComment:
		kind = KindComment
	default:
		return Record{}, fmt.Errorf("unsupported kind %q", item.Kind)
	}

	var thing rawThing
	if err := json.Unmarshal(item.Data, &thing); err != nil {
		return Record{}, fmt.Errorf("malformed %s data: %w", kind, err)
	}

	record := Record{
		Kind:      kind,
		ID:        thing.ID,
		Subreddit: strings.TrimSpace(thing.Subreddit),
		Permalink: absolutePermalink(thing.Permalink),
		CreatedAt: reddit.Timestamp(thing.CreatedUTC),
		Score:     thing.Score,
	}

	if kind == KindPost {
		record.Text = postText(thing.Title, thing.Selftext)
	} else {
		record.Text = strings.TrimSpace(thing.Body)
	}

	switch {
	case record.Text == "":
		return record, fmt.Errorf("empty %s text", kind)
	case removalSentinels[record.Text]:
		return record, fmt.Errorf("%s text is %s", kind, record.Text)
	case record.Subreddit == "":
		return record, fmt.Errorf("%s has no subreddit", kind)
	case record.Permalink == "":
		return record, fmt.Errorf("%s has no permalink", kind)
	}

	return record, nil
}

// postText joins title and selftext, leaving out a removed or empty body.
func postText(title, selftext string) string {
	title = strings.TrimSpace(title)
	selftext = strings.TrimSpace(selftext)
	if removalSentinels[selftext] {
		selftext = ""
	}

	switch {
	case title == "":
		return selftext
	case selftext == "":
		return title
	default:
		return title + "\n\n" + selftext
	}
}

func absolutePermalink(permalink string) string {
	permalink = strings.TrimSpace(permalink)
	if permalink == "" || strings.HasPrefix(permalink, "http://") || strings.HasPrefix(permalink, "https://") {
		return permalink
	}
	if !strings.HasPrefix(permalink, "/") {
		permalink = "/" + permalink
	}
	return permalinkBase + permalink
}
