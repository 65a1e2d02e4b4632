// Package urlnorm reduces article URLs to a form that compares equal across
// tracking, mirroring and AMP variants of the same page.
package urlnorm

import (
	"net/url"
	"sort"
	"strings"
)

const ampCacheSuffix = ".cdn.ampproject.org"

var trackingQueryKeys = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"ref":          {},
	"source":       {},
	"fbclid":       {},
	"gclid":        {},
	"msclkid":      {},
	"mc_cid":       {},
	"mc_eid":       {},
	"share":        {},
	"share_id":     {},
	"via":          {},
	"from":         {},
}

// hostPrefixes are stripped in order on every pass.
var hostPrefixes = []string{"www.", "amp."}

// Canonicalize returns the comparable form of raw. Input that cannot be
// parsed is returned unchanged; blank input yields "".
func Canonicalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Opaque != "" {
		return raw
	}

	host := canonicalHost(parsed)
	path := canonicalPath(parsed.EscapedPath())
	query := canonicalQuery(parsed.RawQuery)

	var b strings.Builder
	b.Grow(len(trimmed))
	if parsed.Scheme != "" {
		b.WriteString(parsed.Scheme)
		b.WriteByte(':')
	}
	if host != "" {
		b.WriteString("//")
		if parsed.User != nil {
			b.WriteString(parsed.User.String())
			b.WriteByte('@')
		}
		b.WriteString(host)
		if path != "" && !strings.HasPrefix(path, "/") {
			b.WriteByte('/')
		}
	}
	b.WriteString(path)
	if query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}
	return b.String()
}

// Host returns the canonical host of raw without port, or "" when raw has no
// host.
func Host(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	host := canonicalHost(parsed)
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	return host
}

// HostMatches reports whether host is domain or a subdomain of it.
func HostMatches(host, domain string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	domain = strings.ToLower(strings.TrimSpace(domain))
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func canonicalHost(parsed *url.URL) string {
	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return ""
	}

	for {
		before := hostname
		for _, prefix := range hostPrefixes {
			hostname = strings.TrimPrefix(hostname, prefix)
		}
		if strings.HasPrefix(hostname, "m.") {
			hostname = hostname[len("m."):]
		} else if strings.HasPrefix(hostname, "mobile.") {
			hostname = hostname[len("mobile."):]
		}
		// example-com.cdn.ampproject.org -> example.com; hyphenated real
		// domains are mangled by this.
		if i := strings.Index(hostname, ampCacheSuffix); i > 0 {
			hostname = strings.ReplaceAll(hostname[:i], "-", ".")
		}
		if hostname == before || hostname == "" {
			break
		}
	}
	if hostname == "" {
		hostname = strings.ToLower(parsed.Hostname())
	}

	if strings.Contains(hostname, ":") {
		hostname = "[" + hostname + "]"
	}
	if port := parsed.Port(); port != "" {
		defaultPort := (parsed.Scheme == "http" && port == "80") || (parsed.Scheme == "https" && port == "443")
		if !defaultPort {
			hostname = hostname + ":" + port
		}
	}
	return hostname
}

func canonicalPath(path string) string {
	for {
		before := path
		path = stripParams(path)
		path = strings.TrimRight(path, "/")
		switch {
		case path == "/amp":
			path = ""
		case strings.HasPrefix(path, "/amp/"):
			path = path[len("/amp"):]
		}
		path = strings.TrimSuffix(path, "/amp")
		if path == before {
			return path
		}
	}
}

// stripParams drops ";params" from the last path segment.
func stripParams(path string) string {
	lastSegment := strings.LastIndexByte(path, '/')
	if i := strings.IndexByte(path[lastSegment+1:], ';'); i >= 0 {
		return path[:lastSegment+1+i]
	}
	return path
}

func canonicalQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return filterRawQuery(rawQuery)
	}
	for key := range values {
		if IsTrackingParam(key) {
			values.Del(key)
		}
	}
	// Encode sorts keys; values keep their original order.
	return values.Encode()
}

// filterRawQuery handles queries url.ParseQuery rejects (";" inside a pair,
// bad escapes). Pairs are kept verbatim, split on "&" only, and ordered by
// key like the parsed path.
func filterRawQuery(rawQuery string) string {
	type pair struct {
		key string
		raw string
	}
	var kept []pair
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		key, _, _ := strings.Cut(part, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if IsTrackingParam(key) {
			continue
		}
		kept = append(kept, pair{key: key, raw: part})
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].key < kept[j].key })

	parts := make([]string, len(kept))
	for i, p := range kept {
		parts[i] = p.raw
	}
	filtered := strings.Join(parts, "&")
	if values, err := url.ParseQuery(filtered); err == nil {
		return values.Encode()
	}
	return filtered
}

// IsTrackingParam reports whether key is dropped during canonicalization.
func IsTrackingParam(key string) bool {
	_, ok := trackingQueryKeys[strings.ToLower(key)]
	return ok
}
