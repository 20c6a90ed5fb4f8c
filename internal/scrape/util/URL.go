package util

import (
	"net/url"
	"sort"
	"strings"
)

// query keys added by ad and mail trackers; news search results carry them
var trackingParams = map[string]bool{
	"gclid": true, "fbclid": true, "msclkid": true, "mc_cid": true,
	"mc_eid": true, "mkt_tok": true, "ref_src": true, "cmpid": true,
}

var trackingPrefixes = []string{"utm_", "_hs"}

func isTracking(key string) bool {
	key = strings.ToLower(key)
	if trackingParams[key] {
		return true
	}
	for _, p := range trackingPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// CanonicalizeURL drops tracking parameters and the fragment and orders the
// query, so one article found through two searches keeps one URL.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if raw == "" || err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k, vals := range q {
		if isTracking(k) {
			q.Del(k)
			continue
		}
		sort.Strings(vals)
	}
	u.RawQuery = q.Encode() // Encode sorts by key
	return u.String()
}

// OnDomain reports whether raw's host is domain or a subdomain of it.
func OnDomain(raw, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, "www.")
	if domain == "" {
		return false
	}
	host := HostKey(raw)
	host = strings.TrimPrefix(host, "www.")
	return host == domain || strings.HasSuffix(host, "."+domain)
}
