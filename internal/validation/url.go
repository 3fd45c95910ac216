package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const maxURLLength = 2048

// FeedURLValidator checks URLs handed to the post importer before they are
// fetched.
type FeedURLValidator struct {
	// AllowLocal permits localhost, loopback and private network hosts.
	AllowLocal bool
	MaxLength  int
}

// NewFeedURLValidator rejects local and private hosts.
func NewFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{MaxLength: maxURLLength}
}

// NewPermissiveFeedURLValidator accepts local hosts, for development and
// tests against a local server.
func NewPermissiveFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{AllowLocal: true, MaxLength: maxURLLength}
}

// ValidateAndNormalize returns input as an absolute http(s) URL, adding
// https:// when no scheme is given.
func (v *FeedURLValidator) ValidateAndNormalize(input string) (string, error) {
	u, err := v.Parse(input)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (v *FeedURLValidator) Parse(input string) (*url.URL, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return nil, fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return nil, fmt.Errorf("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("URL must use http or https protocol")
	}
	if u.User != nil {
		return nil, fmt.Errorf("URL must not carry credentials")
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("URL must have a valid hostname")
	}
	u.Host = strings.ToLower(u.Host)

	if err := v.checkHost(host); err != nil {
		return nil, err
	}
	if strings.Contains(u.Path, "..") {
		return nil, fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	q := strings.ToLower(u.RawQuery)
	if strings.Contains(q, "<script") || strings.Contains(q, "javascript:") {
		return nil, fmt.Errorf("suspicious query parameters detected")
	}
	return u, nil
}

func (v *FeedURLValidator) checkHost(host string) error {
	switch host {
	case "0.0.0.0", "255.255.255.255", "[::]", "::":
		return fmt.Errorf("unroutable host %s", host)
	}

	if v.AllowLocal {
		return nil
	}
	if isLocalhost(host) {
		return fmt.Errorf("localhost URLs are not permitted")
	}
	if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
		return fmt.Errorf("private IP addresses are not permitted")
	}
	return nil
}

func isLocalhost(host string) bool {
	return host == "localhost" || strings.HasSuffix(host, ".localhost")
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
