// Package display provides terminal output formatting for redditpersona.
package display

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/gauthierbraillon/redditpersona/internal/persona"
)

const (
	separator     = " • "
	summaryTopN   = 3
	valueMaxWidth = 72
)

// TerminalFormatter formats persona results for terminal display.
type TerminalFormatter struct {
	now func() time.Time
}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{now: time.Now}
}

// FormatSummary renders a two-column table of the headline persona facts.
func (f *TerminalFormatter) FormatSummary(result persona.Result) string {
	var buf bytes.Buffer
	f.WriteSummary(&buf, result)
	return buf.String()
}

// WriteSummary writes the summary table to w.
func (f *TerminalFormatter) WriteSummary(w io.Writer, result persona.Result) {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)

	table.Header([]string{"Field", "Value"})
	table.Bulk(f.summaryRows(result))
	table.Render()
}

func (f *TerminalFormatter) summaryRows(result persona.Result) [][]string {
	rows := [][]string{
		{"User", "u/" + result.Username},
		{"Activity", fmt.Sprintf("%s%s%s", count(result.PostCount, "post"), separator, count(result.CommentCount, "comment"))},
	}

	if result.AccountKnown {
		rows = append(rows, []string{"Account", fmt.Sprintf("%s old%s%d karma", count(result.AccountAgeDays, "day"), separator, result.TotalKarma)})
	}
	if !result.Behavior.LastActivity.IsZero() {
		rows = append(rows, []string{"Last active", f.FormatTimestamp(result.Behavior.LastActivity)})
	}

	var subs []string
	for i, sc := range result.TopSubreddits {
		if i == summaryTopN {
			break
		}
		subs = append(subs, fmt.Sprintf("r/%s (%d)", sc.Name, sc.Count))
	}
	rows = append(rows, []string{"Top subreddits", f.TruncateText(orNone(subs), valueMaxWidth)})

	var interests []string
	for i, in := range result.Interests {
		if i == summaryTopN {
			break
		}
		interests = append(interests, fmt.Sprintf("%s (%d)", in.Category, in.Count))
	}
	rows = append(rows, []string{"Interests", f.TruncateText(orNone(interests), valueMaxWidth)})

	traits := make([]string, 0, len(result.Traits))
	for _, tr := range result.Traits {
		traits = append(traits, tr.Label)
	}
	rows = append(rows, []string{"Traits", f.TruncateText(orNone(traits), valueMaxWidth)})

	rows = append(rows,
		[]string{"Goals", count(len(result.Goals), "phrase")},
		[]string{"Frustrations", count(len(result.Frustrations), "phrase")},
	)
	return rows
}

// FormatTimestamp formats a timestamp as relative time.
func (f *TerminalFormatter) FormatTimestamp(t time.Time) string {
	diff := f.now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// pluralize returns "N unit ago" or "N units ago" based on count.
func pluralize(n int, unit string) string {
	return count(n, unit) + " ago"
}

func count(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func orNone(parts []string) string {
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// TruncateText truncates text to maxLen bytes, adding "..." if truncated.
// The cut never splits a rune.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
