package fetcher

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	// ErrUnsafeScheme rejects anything but http and https.
	ErrUnsafeScheme = errors.New("fetcher: unsafe URL scheme")
	// ErrPrivateNetwork rejects loopback, private and link-local targets.
	ErrPrivateNetwork = errors.New("fetcher: private network address")
)

// ValidateScheme accepts absolute http(s) URLs with a host.
func ValidateScheme(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("fetcher: invalid URL: %w", err)
	}
	s := strings.ToLower(u.Scheme)
	if s != "http" && s != "https" {
		return ErrUnsafeScheme
	}
	if u.Hostname() == "" {
		return fmt.Errorf("fetcher: URL has no host")
	}
	return nil
}

// ValidatePublic is ValidateScheme plus a refusal of private, loopback and
// link-local addresses, literal or resolved. Used when captures run as a
// service on untrusted input.
func ValidatePublic(rawURL string) error {
	if err := ValidateScheme(rawURL); err != nil {
		return err
	}
	u, _ := url.Parse(rawURL)
	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		if isPrivate(ip) {
			return ErrPrivateNetwork
		}
		return nil
	}
	addrs, err := net.LookupHost(host)
	if err != nil {
		// Unresolvable hosts fail at connect time anyway.
		return nil
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && isPrivate(ip) {
			return ErrPrivateNetwork
		}
	}
	return nil
}

func isPrivate(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
