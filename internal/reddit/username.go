package reddit

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)

// ParseUsername extracts a username from a profile URL or returns the bare
// name unchanged. Accepted forms include:
//
//	kojied
//	u/kojied
//	https://www.reddit.com/user/kojied/
//	https://old.reddit.com/u/kojied/comments
//	reddit.com/user/kojied
func ParseUsername(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidUsername)
	}

	path, isURL, err := profilePath(s)
	if err != nil {
		return "", err
	}

	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })

	// URLs must be profile URLs: /user/{name} or /u/{name}, optionally
	// followed by a tab such as /comments. Bare input may also be the name alone.
	var name string
	switch {
	case len(segments) >= 2 && (segments[0] == "user" || segments[0] == "u"):
		if isURL || len(segments) == 2 {
			name = segments[1]
		}
	case len(segments) == 1 && !isURL:
		name = segments[0]
	}

	if !usernamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUsername, input)
	}
	return name, nil
}

// profilePath returns the path part of a URL-like input, or the input
// itself. isURL reports whether the input named a reddit.com host.
func profilePath(s string) (path string, isURL bool, err error) {
	if !strings.Contains(s, "://") {
		lower := strings.ToLower(s)
		if !strings.HasPrefix(lower, "reddit.com/") && !strings.Contains(lower, ".reddit.com/") {
			return s, false, nil
		}
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", ErrInvalidUsername, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", true, fmt.Errorf("%w: unsupported URL scheme %q", ErrInvalidUsername, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host != "reddit.com" && !strings.HasSuffix(host, ".reddit.com") {
		return "", true, fmt.Errorf("%w: %s is not a reddit.com URL", ErrInvalidUsername, u.Hostname())
	}
	return u.Path, true, nil
}
