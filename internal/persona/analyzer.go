package persona

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gauthierbraillon/redditpersona/internal/activity"
	"github.com/gauthierbraillon/redditpersona/internal/reddit"
)

const (
	maxPhraseLength = 150
	minPhraseLength = 3
	sentenceEnd     = ".!?\n"
)

// Analyze builds a persona from records. It performs no I/O and reads no
// clock: identical arguments always produce an identical Result.
//
// Interest counts increment once per keyword occurrence. Trait thresholds
// count records, not occurrences.
func Analyze(records []activity.Record, username string, account reddit.Account, lex Lexicon, opts Options) Result {
	opts = opts.normalized()

	folded := make([]string, len(records))
	for i, r := range records {
		folded[i] = foldASCII(r.Text)
	}

	posts, comments := activity.Counts(records)
	histogram := subredditHistogram(records)

	result := Result{
		Username:      username,
		AccountKnown:  account.Known(),
		TotalKarma:    account.TotalKarma,
		LinkKarma:     account.LinkKarma,
		CommentKarma:  account.CommentKarma,
		PostCount:     posts,
		CommentCount:  comments,
		TopSubreddits: histogram,
		Interests:     analyzeInterests(records, folded, lex.Interests, opts),
		Traits:        analyzeTraits(records, folded, lex, opts),
		Behavior:      analyzeBehavior(records, account, histogram, opts.Now),
		Goals:         extractPhrases(records, lex.Phrases.Goals, opts),
		Frustrations:  extractPhrases(records, lex.Phrases.Frustrations, opts),
		GeneratedAt:   opts.Now,
	}
	if account.Known() {
		result.AccountAgeDays = daysBetween(account.CreatedAt, reference(opts.Now, result.Behavior))
	}
	return result
}

// subredditHistogram counts records per subreddit, most active first, ties in
// first-seen order.
func subredditHistogram(records []activity.Record) []SubredditCount {
	index := make(map[string]int)
	counts := make([]SubredditCount, 0)
	for _, r := range records {
		i, ok := index[r.Subreddit]
		if !ok {
			i = len(counts)
			index[r.Subreddit] = i
			counts = append(counts, SubredditCount{Name: r.Subreddit})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(a, b int) bool {
		return counts[a].Count > counts[b].Count
	})
	return counts
}

func analyzeInterests(records []activity.Record, folded []string, categories []Category, opts Options) []Interest {
	interests := make([]Interest, 0)
	for _, category := range categories {
		interest := Interest{Category: category.Name, Citations: make([]Citation, 0)}
		for i, text := range folded {
			hits := 0
			for _, kw := range category.Keywords {
				hits += countKeyword(text, kw)
			}
			if hits == 0 {
				continue
			}
			interest.Count += hits
			if len(interest.Citations) < opts.CitationLimit {
				interest.Citations = append(interest.Citations, cite(records[i], opts))
			}
		}
		if interest.Count > 0 {
			interests = append(interests, interest)
		}
	}
	sort.SliceStable(interests, func(a, b int) bool {
		return interests[a].Count > interests[b].Count
	})
	return interests
}

func analyzeTraits(records []activity.Record, folded []string, lex Lexicon, opts Options) []Trait {
	traits := make([]Trait, 0)

	for _, rule := range lex.Traits {
		var matched []int
		for i, text := range folded {
			if containsAny(text, rule.Keywords, true) {
				matched = append(matched, i)
			}
		}
		if len(matched) >= rule.MinHits {
			traits = append(traits, newTrait(rule.Name, records, matched, opts))
		}
	}

	var commentIdx, questionIdx []int
	posts := 0
	for i, r := range records {
		if r.Kind == activity.KindComment {
			commentIdx = append(commentIdx, i)
		} else {
			posts++
		}
		if asksQuestion(folded[i]) || containsAny(folded[i], lex.Phrases.Questions, false) {
			questionIdx = append(questionIdx, i)
		}
	}

	if len(commentIdx) > 0 && float64(len(commentIdx)) >= lex.Rules.ConversationalRatio*float64(posts) {
		traits = append(traits, newTrait(TraitConversational, records, commentIdx, opts))
	}
	if len(questionIdx) >= lex.Rules.QuestionMinRecords {
		traits = append(traits, newTrait(TraitCurious, records, questionIdx, opts))
	}

	return traits
}

func newTrait(label string, records []activity.Record, matched []int, opts Options) Trait {
	trait := Trait{Label: label, Evidence: len(matched), Citations: make([]Citation, 0, min(len(matched), opts.CitationLimit))}
	for _, i := range matched {
		if len(trait.Citations) == opts.CitationLimit {
			break
		}
		trait.Citations = append(trait.Citations, cite(records[i], opts))
	}
	return trait
}

func analyzeBehavior(records []activity.Record, account reddit.Account, histogram []SubredditCount, now time.Time) Behavior {
	b := Behavior{Observations: make([]string, 0)}

	var postScore, commentScore int
	for _, r := range records {
		switch r.Kind {
		case activity.KindPost:
			b.PostCount++
			postScore += r.Score
		case activity.KindComment:
			b.CommentCount++
			commentScore += r.Score
		}
		if r.CreatedAt.IsZero() {
			continue
		}
		if b.FirstActivity.IsZero() || r.CreatedAt.Before(b.FirstActivity) {
			b.FirstActivity = r.CreatedAt
		}
		if r.CreatedAt.After(b.LastActivity) {
			b.LastActivity = r.CreatedAt
		}
	}
	if b.PostCount > 0 {
		b.AveragePostScore = float64(postScore) / float64(b.PostCount)
	}
	if b.CommentCount > 0 {
		b.AverageCommentScore = float64(commentScore) / float64(b.CommentCount)
	}

	switch {
	case account.Known():
		b.CadenceBasisDays = max(1, daysBetween(account.CreatedAt, reference(now, b)))
	case !b.FirstActivity.IsZero():
		b.CadenceBasisDays = max(1, daysBetween(b.FirstActivity, b.LastActivity))
	}
	if b.CadenceBasisDays > 0 {
		b.InteractionsPerDay = float64(len(records)) / float64(b.CadenceBasisDays)
	}

	switch {
	case b.PostCount > b.CommentCount:
		b.Observations = append(b.Observations, "More likely to create original posts than comment")
	case b.CommentCount > b.PostCount:
		b.Observations = append(b.Observations, "More active in commenting than posting")
	}
	if b.PostCount > 0 && b.AveragePostScore > 10 {
		b.Observations = append(b.Observations, "Creates engaging content with good community response")
	}
	if b.CommentCount > 0 && b.AverageCommentScore > 5 {
		b.Observations = append(b.Observations, "Provides valuable comments that receive positive feedback")
	}
	if len(histogram) > 0 {
		top := histogram[0]
		b.Observations = append(b.Observations, fmt.Sprintf("Most active in r/%s with %d interactions", top.Name, top.Count))
	}
	if b.InteractionsPerDay > 0 {
		b.Observations = append(b.Observations, fmt.Sprintf("Averages %.2f interactions per day over %d days", b.InteractionsPerDay, b.CadenceBasisDays))
	}

	return b
}

type phraseMatch struct {
	start  int
	leadIn string
}

// extractPhrases finds lead-ins in record order, then text order, and takes
// the rest of the sentence after each. Duplicates collapse case-insensitively.
func extractPhrases(records []activity.Record, leadIns []string, opts Options) []Phrase {
	phrases := make([]Phrase, 0)
	seen := make(map[string]bool)

	for _, r := range records {
		text := foldASCII(r.Text)

		var matches []phraseMatch
		for _, leadIn := range leadIns {
			for _, start := range findKeyword(text, leadIn, false) {
				matches = append(matches, phraseMatch{start: start, leadIn: leadIn})
			}
		}
		sort.SliceStable(matches, func(a, b int) bool {
			if matches[a].start != matches[b].start {
				return matches[a].start < matches[b].start
			}
			return len(matches[a].leadIn) > len(matches[b].leadIn)
		})

		consumed := 0
		for _, m := range matches {
			if m.start < consumed {
				continue
			}
			from := m.start + len(m.leadIn)
			consumed = from

			phrase := sentenceRemainder(r.Text[from:])
			if len(phrase) < minPhraseLength {
				continue
			}
			key := foldASCII(phrase)
			if seen[key] {
				continue
			}
			seen[key] = true

			phrases = append(phrases, Phrase{LeadIn: m.leadIn, Text: phrase, Citation: cite(r, opts)})
			if len(phrases) == opts.PhraseLimit {
				return phrases
			}
		}
	}
	return phrases
}

// sentenceRemainder returns s up to the first sentence terminator with
// whitespace collapsed and dangling punctuation trimmed.
func sentenceRemainder(s string) string {
	if i := strings.IndexAny(s, sentenceEnd); i >= 0 {
		s = s[:i]
	}
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, " ,;:-–—\"'()")
	return truncateWords(s, maxPhraseLength)
}

// cite builds a citation with a single-line snippet of the record text.
func cite(r activity.Record, opts Options) Citation {
	return Citation{
		Subreddit: r.Subreddit,
		Snippet:   Snippet(r.Text, opts.SnippetLength),
		Permalink: r.Permalink,
	}
}

// Snippet collapses whitespace and cuts text to at most maxLen bytes on a
// rune boundary, appending "..." when cut.
func Snippet(text string, maxLen int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return strings.TrimRight(text[:cut], " ") + "..."
}

// truncateWords cuts s to at most maxLen bytes at the last space.
func truncateWords(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := strings.LastIndexByte(s[:maxLen], ' ')
	if cut <= 0 {
		cut = maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
	}
	return s[:cut] + "..."
}

// reference is the instant account age is measured to: the caller's clock if
// given, otherwise the latest activity.
func reference(now time.Time, b Behavior) time.Time {
	if !now.IsZero() {
		return now
	}
	return b.LastActivity
}

func daysBetween(from, to time.Time) int {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
