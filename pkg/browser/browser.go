// Package browser opens the local web form in the user's default browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// startCommand launches the platform opener without waiting for it.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start() // #nosec G204 -- URL validated by Open
}

// LocalURL returns the http://localhost address of a server on port.
func LocalURL(port int, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("http://localhost:%d%s", port, path)
}

// Open opens the specified URL in the default browser.
// It validates the URL before passing it to the system browser to prevent command injection.
func Open(urlString string) error {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https allowed)", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("invalid URL: missing host in %q", urlString)
	}

	name, args, err := opener(runtime.GOOS)
	if err != nil {
		return err
	}
	return startCommand(name, append(args, parsedURL.String())...)
}

// opener returns the command that hands a URL to the desktop on goos.
func opener(goos string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return "xdg-open", nil, nil
	case "darwin":
		return "open", nil, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
