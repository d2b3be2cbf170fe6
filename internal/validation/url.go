package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseUpstream validates an upstream dev server address and returns it
// parsed. Only absolute http(s) URLs with a host and no credentials are
// accepted.
func ParseUpstream(rawURL string) (*url.URL, error) {
	if strings.ContainsAny(rawURL, " \t\r\n") {
		return nil, fmt.Errorf("upstream contains whitespace: %q", rawURL)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}

	// Only allow http/https schemes
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("upstream must be an absolute http(s) URL: %s", rawURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("upstream must have a valid hostname: %s", rawURL)
	}
	if parsed.User != nil {
		return nil, fmt.Errorf("upstream must not carry credentials")
	}

	return parsed, nil
}
