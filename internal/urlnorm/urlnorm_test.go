package urlnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize_StripsTrackingParams(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/article", Canonicalize("https://example.com/article?utm_source=twitter&utm_medium=social"))
	assert.Equal(t, "https://example.com/article", Canonicalize("https://example.com/article?utm_source=a&fbclid=b&gclid=c&ref=d"))
	assert.Equal(t, "https://example.com/article", Canonicalize("https://example.com/article?UTM_Source=x&Share_ID=9&via=feed&from=home"))
}

func TestCanonicalize_TrackingVariantsMatch(t *testing.T) {
	t.Parallel()

	left := Canonicalize("https://example.com/article?utm_source=a")
	right := Canonicalize("https://example.com/article?utm_source=b&fbclid=x")
	assert.Equal(t, left, right)
	assert.Equal(t, "https://example.com/article", left)
}

func TestCanonicalize_PreservesContentParams(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/article?id=123&page=2", Canonicalize("https://example.com/article?page=2&id=123"))
	assert.Equal(t, "https://example.com/article?id=123", Canonicalize("https://example.com/article?id=123&utm_source=twitter"))
	assert.Equal(t, "https://example.com/search?q=a&q=b", Canonicalize("https://example.com/search?q=a&q=b&gclid=1"))
	assert.Equal(t, "https://example.com/p?flag=", Canonicalize("https://example.com/p?flag"))
}

func TestCanonicalize_StripsPathParams(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/article", Canonicalize("https://example.com/article;jsessionid=abc"))
	assert.Equal(t, Canonicalize("https://example.com/article"), Canonicalize("https://example.com/article;jsessionid=abc?utm_source=x"))
	assert.Equal(t, "https://example.com/a;v=1/b", Canonicalize("https://example.com/a;v=1/b;sid=2/"))
}

func TestCanonicalize_UnparseableQueryStillDropsTracking(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://ex.com/a?x=1;y=2", Canonicalize("https://ex.com/a?x=1;y=2&utm_source=z"))
	assert.Equal(t, "https://ex.com/a?a=1&b=%zz", Canonicalize("https://ex.com/a?utm_source=z&b=%zz&a=1&fbclid=q"))
	assert.Equal(t, "https://ex.com/a?b=a+b", Canonicalize("https://ex.com/a?utm_source=;&b=a%20b"))
	assert.Equal(t, "https://ex.com/a", Canonicalize("https://ex.com/a?utm_source=%zz&ref=x;y"))
	assert.Equal(t,
		Canonicalize("https://ex.com/a?x=1;y=2&utm_source=one"),
		Canonicalize("https://ex.com/a?gclid=two&x=1;y=2"),
	)
}

func TestCanonicalize_HostVariants(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://www.example.com/article":                "https://example.com/article",
		"https://EXAMPLE.COM/Article":                    "https://example.com/Article",
		"https://amp.example.com/article":                "https://example.com/article",
		"https://m.example.com/article":                  "https://example.com/article",
		"https://mobile.example.com/article":             "https://example.com/article",
		"https://www.m.example.com/article":              "https://example.com/article",
		"https://example-com.cdn.ampproject.org/article": "https://example.com/article",
		"https://example.com:443/article":                "https://example.com/article",
		"http://example.com:80/article":                  "http://example.com/article",
		"https://example.com:8443/article":               "https://example.com:8443/article",
	}
	for raw, want := range cases {
		assert.Equal(t, want, Canonicalize(raw), raw)
	}
}

func TestCanonicalize_PathVariants(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://example.com/article/":      "https://example.com/article",
		"https://example.com/":              "https://example.com",
		"https://example.com":               "https://example.com",
		"https://example.com/article#sec-2": "https://example.com/article",
		"https://example.com/amp/article":   "https://example.com/article",
		"https://example.com/article/amp":   "https://example.com/article",
		"https://example.com/article/amp/":  "https://example.com/article",
		"https://example.com/amp":           "https://example.com",
		"https://example.com/ample-news":    "https://example.com/ample-news",
	}
	for raw, want := range cases {
		assert.Equal(t, want, Canonicalize(raw), raw)
	}
}

func TestCanonicalize_DegradesGracefully(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Canonicalize(""))
	assert.Equal(t, "", Canonicalize("   "))
	assert.Equal(t, "not-a-url", Canonicalize("not-a-url"))
	assert.Equal(t, "http://bad host/x", Canonicalize("http://bad host/x"))
	assert.Equal(t, "mailto:someone@example.com", Canonicalize("mailto:someone@example.com"))
}

func TestCanonicalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://www.example.com/a/b/?utm_source=x&id=1#frag",
		"https://m.amp.example.com/amp/amp/story/amp//",
		"https://www-example-com.cdn.ampproject.org/c/s/story",
		"https://example.com/search?q=hello+world&q=second",
		"https://example.com/path%20with%20spaces/",
		"https://example.com/?a=1;b=2",
		"https://example.com/article;jsessionid=abc",
		"https://example.com/a;v=1/b;sid=2/",
		"https://ex.com/a?x=1;y=2&utm_source=z",
		"https://ex.com/a?utm_source=;&b=a%20b",
		"https://ex.com/a?b=%zz&a=1&b=%yy",
		"//example.com/scheme-relative/",
		"not-a-url/",
		"http://bad host/x",
		"",
	}
	for _, raw := range inputs {
		once := Canonicalize(raw)
		assert.Equal(t, once, Canonicalize(once), raw)
	}
}

func TestHost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "news.ycombinator.com", Host("https://news.ycombinator.com/item?id=1"))
	assert.Equal(t, "reddit.com", Host("https://www.reddit.com/r/technology/comments/x"))
	assert.Equal(t, "example.com", Host("https://example.com:8443/x"))
	assert.Equal(t, "", Host("not-a-url"))
	assert.Equal(t, "", Host(""))
}

func TestHostMatches(t *testing.T) {
	t.Parallel()

	assert.True(t, HostMatches("reddit.com", "reddit.com"))
	assert.True(t, HostMatches("old.reddit.com", "reddit.com"))
	assert.False(t, HostMatches("notreddit.com", "reddit.com"))
	assert.False(t, HostMatches("", "reddit.com"))
}

func TestIsTrackingParam(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTrackingParam("UTM_CAMPAIGN"))
	assert.True(t, IsTrackingParam("msclkid"))
	assert.False(t, IsTrackingParam("id"))
}
