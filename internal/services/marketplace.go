package services

import (
	"net/url"
	"strings"
)

// amazonHosts are matched against the link host and its parent domains.
var amazonHosts = []string{"amazon.com", "amzn.to"}

func parseLink(link string) (*url.URL, bool, error) {
	if strings.Contains(link, "://") {
		u, err := url.Parse(link)
		return u, false, err
	}
	u, err := url.Parse("https://" + link)
	return u, true, err
}

func hostMatches(host string, patterns []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, p := range patterns {
		if host == p || strings.HasSuffix(host, "."+p) {
			return true
		}
	}
	return false
}

// isAmazonLink reports whether link points at an Amazon storefront or
// short link. Unparseable links are never treated as Amazon.
func isAmazonLink(link string) bool {
	if link == "" {
		return false
	}
	u, _, err := parseLink(link)
	if err != nil || u.Host == "" {
		return false
	}
	return hostMatches(u.Hostname(), amazonHosts)
}
