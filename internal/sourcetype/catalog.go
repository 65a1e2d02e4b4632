package sourcetype

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const redditPrefix = "Reddit r/"

var defaultCatalog = map[string]SourceType{
	"Hacker News":          Aggregator,
	"Reddit r/technology":  Aggregator,
	"Reddit r/programming": Aggregator,
	"Reddit Stocks":        Aggregator,
	"GitHub Trending":      Aggregator,
	"Product Hunt":         Aggregator,

	"BBC News": Wire,
	"Reuters":  Wire,
	"AP News":  Wire,

	"TechCrunch":            OriginalReporting,
	"Ars Technica":          OriginalReporting,
	"The Verge":             OriginalReporting,
	"Bloomberg":             OriginalReporting,
	"Yahoo Finance":         OriginalReporting,
	"CNBC":                  OriginalReporting,
	"Financial Times":       OriginalReporting,
	"Wall Street Journal":   OriginalReporting,
	"Reuters Breakingviews": OriginalReporting,
	"The Economist":         OriginalReporting,
	"MarketWatch":           OriginalReporting,
	"Barron's":              OriginalReporting,
	"Semafor Business":      OriginalReporting,
	"Axios Markets":         OriginalReporting,
	"FT Alphaville":         OriginalReporting,
	"MIT Technology Review": OriginalReporting,
	"The Information":       OriginalReporting,
	"Platformer":            OriginalReporting,
	"Stratechery":           OriginalReporting,
	"SemiAnalysis":          OriginalReporting,
	"The Decoder":           OriginalReporting,
	"State of AI":           OriginalReporting,
	"HuggingFace Blog":      OriginalReporting,
	"OpenAI Blog":           OriginalReporting,
	"Anthropic Blog":        OriginalReporting,
	"DeepMind Blog":         OriginalReporting,
	"Arxiv AI":              OriginalReporting,
	"Politico":              OriginalReporting,
	"Foreign Affairs":       OriginalReporting,
	"War on the Rocks":      OriginalReporting,
	"CSIS":                  OriginalReporting,
	"CFR":                   OriginalReporting,
	"Brookings":             OriginalReporting,
	"RAND":                  OriginalReporting,

	"Truth Social (Trump)": SocialMedia,
}

// Catalog maps source display names to their type. The zero value is not
// usable; build one with DefaultCatalog or LoadCatalog.
type Catalog struct {
	types map[string]SourceType
}

type catalogFile struct {
	Sources map[string]string `yaml:"sources"`
}

func DefaultCatalog() *Catalog {
	types := make(map[string]SourceType, len(defaultCatalog))
	for name, sourceType := range defaultCatalog {
		types[name] = sourceType
	}
	return &Catalog{types: types}
}

// LoadCatalog reads a YAML document of the form
//
//	sources:
//	  Some Outlet: original_reporting
//
// and layers it over the default catalog. An empty path returns the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := DefaultCatalog()
	path = strings.TrimSpace(path)
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source catalog %s: %w", path, err)
	}
	if err := catalog.merge(data); err != nil {
		return nil, fmt.Errorf("parse source catalog %s: %w", path, err)
	}
	return catalog, nil
}

func (c *Catalog) merge(data []byte) error {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	for name, raw := range file.Sources {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("source name is required")
		}
		sourceType := SourceType(strings.ToLower(strings.TrimSpace(raw)))
		if !sourceType.Valid() {
			return fmt.Errorf("source %q: unknown type %q", name, raw)
		}
		c.types[name] = sourceType
	}
	return nil
}

// Lookup returns the type registered for name. Subreddit feeds named
// "Reddit r/<sub>" are always aggregators.
func (c *Catalog) Lookup(name string) (SourceType, bool) {
	if c == nil {
		return Unknown, false
	}
	name = strings.TrimSpace(name)
	if sourceType, ok := c.types[name]; ok {
		return sourceType, true
	}
	if strings.HasPrefix(name, redditPrefix) {
		return Aggregator, true
	}
	return Unknown, false
}

// Classify is Lookup without the presence flag.
func (c *Catalog) Classify(name string) SourceType {
	sourceType, _ := c.Lookup(name)
	return sourceType
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.types)
}
