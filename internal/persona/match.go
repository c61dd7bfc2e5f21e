package persona

import (
	"strings"
	"unicode/utf8"
)

// foldASCII lowercases A-Z only, so byte offsets into the result are valid
// offsets into the input.
func foldASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}

// isWordByte treats ASCII letters, digits, underscore, and any non-ASCII
// byte as part of a word.
func isWordByte(c byte) bool {
	return c == '_' || c >= utf8.RuneSelf ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// boundaryAfter reports whether position i in text ends a word.
func boundaryAfter(text string, i int) bool {
	return i >= len(text) || !isWordByte(text[i])
}

// findKeyword returns the start offsets of non-overlapping occurrences of kw
// in text. Word-character edges of kw must sit on word boundaries. With
// plural set, a trailing "s" or "es" in text is absorbed into the match.
// text and kw must already be folded.
func findKeyword(text, kw string, plural bool) []int {
	if kw == "" {
		return nil
	}

	checkLeft := isWordByte(kw[0])
	checkRight := isWordByte(kw[len(kw)-1])

	var hits []int
	pos := 0
	for pos <= len(text)-len(kw) {
		idx := strings.Index(text[pos:], kw)
		if idx < 0 {
			break
		}
		start := pos + idx
		end := start + len(kw)

		if checkLeft && start > 0 && isWordByte(text[start-1]) {
			pos = start + 1
			continue
		}

		if checkRight && !boundaryAfter(text, end) {
			switch {
			case plural && text[end] == 's' && boundaryAfter(text, end+1):
				end++
			case plural && strings.HasPrefix(text[end:], "es") && boundaryAfter(text, end+2):
				end += 2
			default:
				pos = start + 1
				continue
			}
		}

		hits = append(hits, start)
		pos = end
	}
	return hits
}

// countKeyword counts occurrences of kw in text, plurals included.
func countKeyword(text, kw string) int {
	return len(findKeyword(text, kw, true))
}

// containsAny reports whether any keyword occurs in text.
func containsAny(text string, keywords []string, plural bool) bool {
	for _, kw := range keywords {
		if len(findKeyword(text, kw, plural)) > 0 {
			return true
		}
	}
	return false
}

// asksQuestion reports whether text has a sentence ending in '?'. A '?'
// inside a link or mid-token, as in a query string, does not count.
func asksQuestion(text string) bool {
	for _, tok := range strings.Fields(text) {
		if strings.Contains(tok, "://") || strings.HasPrefix(tok, "www.") {
			continue
		}
		if strings.HasSuffix(strings.TrimRight(tok, `!.,;:)"'`), "?") {
			return true
		}
	}
	return false
}
