// Package report renders personas to the plain-text report and the JSON dump.
package report

import (
	"fmt"
	"strings"

	"github.com/gauthierbraillon/redditpersona/internal/persona"
)

const (
	ruleWidth       = 60
	timestampLayout = "2006-01-02 15:04:05"
	topSubreddits   = 5
	noneDetected    = "• None detected"
)

// DefaultInterestLimit is the number of interest categories shown in the report.
const DefaultInterestLimit = 5

// Text renders the human-readable report. interestLimit caps the interests
// section; values below 1 mean DefaultInterestLimit.
func Text(result persona.Result, interestLimit int) string {
	if interestLimit < 1 {
		interestLimit = DefaultInterestLimit
	}

	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintf(&b, "USER PERSONA: %s\n%s\n", result.Username, rule)

	section(&b, "BASIC INFORMATION")
	fmt.Fprintf(&b, "• Username: %s\n", result.Username)
	fmt.Fprintf(&b, "• Account Age: %s\n", accountAge(result))
	fmt.Fprintf(&b, "• Total Karma: %s\n", karma(result))
	fmt.Fprintf(&b, "• Posts Created: %d\n", result.PostCount)
	fmt.Fprintf(&b, "• Comments Made: %d\n", result.CommentCount)

	if result.Empty() {
		fmt.Fprintf(&b, "\nNo public posts or comments were found for u/%s.\n", result.Username)
		footer(&b, result, rule)
		return b.String()
	}

	section(&b, "TOP SUBREDDITS")
	for i, sc := range result.TopSubreddits {
		if i == topSubreddits {
			break
		}
		fmt.Fprintf(&b, "• r/%s (%s)\n", sc.Name, countNoun(sc.Count, "interaction"))
	}

	section(&b, "INTERESTS & HOBBIES")
	if len(result.Interests) == 0 {
		b.WriteString(noneDetected + "\n")
	}
	for i, in := range result.Interests {
		if i == interestLimit {
			break
		}
		fmt.Fprintf(&b, "• %s: %s\n", title(in.Category), countNoun(in.Count, "mention"))
		citations(&b, in.Citations)
	}

	section(&b, "PERSONALITY TRAITS")
	if len(result.Traits) == 0 {
		b.WriteString(noneDetected + "\n")
	}
	for _, tr := range result.Traits {
		fmt.Fprintf(&b, "• %s: %s\n", title(tr.Label), countNoun(tr.Evidence, "indicator"))
		citations(&b, tr.Citations)
	}

	section(&b, "BEHAVIOR PATTERNS")
	for _, obs := range result.Behavior.Observations {
		fmt.Fprintf(&b, "• %s\n", obs)
	}

	section(&b, "GOALS & MOTIVATIONS")
	phrases(&b, result.Goals)

	section(&b, "FRUSTRATIONS & PAIN POINTS")
	phrases(&b, result.Frustrations)

	footer(&b, result, rule)
	return b.String()
}

func section(b *strings.Builder, name string) {
	fmt.Fprintf(b, "\n%s:\n", name)
}

func footer(b *strings.Builder, result persona.Result, rule string) {
	fmt.Fprintf(b, "\n%s\nGenerated on: %s\n", rule, result.GeneratedAt.Format(timestampLayout))
}

func citations(b *strings.Builder, cs []persona.Citation) {
	for _, c := range cs {
		fmt.Fprintf(b, "  - Citation: r/%s - %s\n", c.Subreddit, c.Snippet)
		fmt.Fprintf(b, "    Link: %s\n", c.Permalink)
	}
}

func phrases(b *strings.Builder, ps []persona.Phrase) {
	if len(ps) == 0 {
		b.WriteString(noneDetected + "\n")
		return
	}
	for _, p := range ps {
		fmt.Fprintf(b, "• %s\n", p.Text)
	}
	b.WriteString("Citations:\n")
	for _, p := range ps {
		fmt.Fprintf(b, "  - r/%s: %s\n", p.Citation.Subreddit, p.Citation.Permalink)
	}
}

func accountAge(result persona.Result) string {
	if !result.AccountKnown {
		return "Unknown"
	}
	return countNoun(result.AccountAgeDays, "day")
}

func karma(result persona.Result) string {
	if !result.AccountKnown {
		return "Unknown"
	}
	return fmt.Sprintf("%d", result.TotalKarma)
}

// countNoun returns "1 day" or "N days".
func countNoun(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// title upper-cases the first letter of each space-separated word.
func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if c := w[0]; 'a' <= c && c <= 'z' {
			words[i] = string(c-'a'+'A') + w[1:]
		}
	}
	return strings.Join(words, " ")
}
