// Package textsim normalizes headlines and compares them, and fingerprints
// article bodies.
package textsim

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const fingerprintRunes = 500

// titleSuffixes are applied in order; each removes at most one trailing match.
var titleSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[-–—|]\s*(hacker news|reddit|bbc.*|reuters|ap news|techcrunch|ars technica|the verge|bloomberg|yahoo finance|cnbc|github|product hunt).*$`),
	regexp.MustCompile(`(?i)\s*:\s*r/\w+$`),
	regexp.MustCompile(`(?i)\s*\[.*?\]$`),
}

var titlePrefixes = []string{"breaking:", "update:", "exclusive:", "live:", "watch:"}

var nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s]`)

// NormalizeTitle lowercases title, drops known source suffixes and
// boilerplate prefixes, and reduces punctuation to single spaces.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}

	normalized := strings.ToLower(title)
	for _, pattern := range titleSuffixes {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	for _, prefix := range titlePrefixes {
		normalized = strings.TrimPrefix(normalized, prefix)
	}

	normalized = nonWordPattern.ReplaceAllString(normalized, " ")
	return strings.Join(strings.Fields(normalized), " ")
}

// Similarity returns the Ratcliff/Obershelp ratio of the normalized titles.
// It is 0 when either side normalizes to empty and symmetric in its
// arguments.
func Similarity(a, b string) float64 {
	left := NormalizeTitle(a)
	right := NormalizeTitle(b)
	if left == "" || right == "" {
		return 0
	}
	if left == right {
		return 1
	}
	if right < left {
		left, right = right, left
	}
	return difflib.NewMatcher(runeStrings(left), runeStrings(right)).Ratio()
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Fingerprint digests the first 500 characters of content after lowercasing
// and collapsing whitespace. Content with no visible text yields "".
func Fingerprint(content string) string {
	if content == "" {
		return ""
	}

	runes := []rune(content)
	if len(runes) > fingerprintRunes {
		runes = runes[:fingerprintRunes]
	}
	normalized := strings.Join(strings.Fields(strings.ToLower(string(runes))), " ")
	if normalized == "" {
		return ""
	}

	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
