package reddit

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUserNotFound is returned when the listing endpoint answers 404.
	ErrUserNotFound = errors.New("reddit user not found")
	// ErrRateLimited is returned when the endpoint answers 429.
	ErrRateLimited = errors.New("reddit API rate limit exceeded")
	// ErrInvalidUsername is returned by ParseUsername.
	ErrInvalidUsername = errors.New("invalid reddit username")
)

// NetworkError covers transport failures, unexpected HTTP statuses, and
// undecodable responses. StatusCode is zero when no response was received.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("reddit API error (status %d): %v", e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("reddit API error (status %d) - please try again", e.StatusCode)
	default:
		return fmt.Sprintf("reddit API request failed: %v", e.Err)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func handleAPIError(statusCode int, username, url string) error {
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: u/%s", ErrUserNotFound, username)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w - please try again later", ErrRateLimited)
	case http.StatusForbidden:
		return &NetworkError{URL: url, StatusCode: statusCode,
			Err: errors.New("access denied - the profile may be private or the user agent was rejected")}
	case http.StatusServiceUnavailable:
		return &NetworkError{URL: url, StatusCode: statusCode,
			Err: errors.New("reddit temporarily unavailable - please try again in a few minutes")}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &NetworkError{URL: url, StatusCode: statusCode,
			Err: errors.New("reddit server error - please try again later")}
	default:
		return &NetworkError{URL: url, StatusCode: statusCode}
	}
}
