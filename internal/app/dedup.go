package app

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"horse.fit/briefing/internal/cli"
	"horse.fit/briefing/internal/dedup"
	"horse.fit/briefing/internal/sourcetype"
	"horse.fit/briefing/internal/timeparse"
	batchschema "horse.fit/briefing/schema"
)

func runDedup(args []string) int {
	fs := flag.NewFlagSet("dedup", flag.ContinueOnError)
	fs.SetOutput(stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	input := fs.String("input", stdinPath, "Batch JSON file, or - for stdin")
	threshold := fs.Float64("threshold", -1, "Title similarity threshold for MEDIUM matches (default DEDUP_TITLE_THRESHOLD)")
	rankBy := fs.String("rank-by", "", "Ranking strategy: trending, signal or combined (default DEDUP_RANK_BY)")
	cluster := fs.String("cluster", "", "Clustering mode: seed or union-find (default DEDUP_CLUSTER_MODE)")
	catalogPath := fs.String("catalog", "", "YAML source catalog (default SOURCE_CATALOG_FILE)")
	now := fs.String("now", "", "Reference time in RFC3339 (default: current time)")
	format := fs.String("format", outputFormatJSON, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "dedup does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatJSON)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid format: %v\n", err)
		return 2
	}
	clock, err := parseNowFlag(*now)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid --now: %v\n", err)
		return 2
	}
	if *threshold > 1 {
		fmt.Fprintln(stderr, "--threshold must be within [0, 1]")
		return 2
	}

	rt, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	opts := rt.cfg.DedupOptions()
	if *threshold >= 0 {
		opts.Threshold = *threshold
	}
	if strings.TrimSpace(*rankBy) != "" {
		parsed, err := dedup.ParseRankBy(*rankBy)
		if err != nil {
			fmt.Fprintf(stderr, "Invalid --rank-by: %v\n", err)
			return 2
		}
		opts.RankBy = parsed
	}
	if strings.TrimSpace(*cluster) != "" {
		parsed, err := dedup.ParseClusterMode(*cluster)
		if err != nil {
			fmt.Fprintf(stderr, "Invalid --cluster: %v\n", err)
			return 2
		}
		opts.ClusterMode = parsed
	}

	raw, err := readInput(*input)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to read input: %v\n", err)
		return 1
	}
	items, err := batchschema.ValidateBatch(raw)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid input: %v\n", err)
		return 1
	}
	if len(items) > rt.cfg.MaxItems {
		fmt.Fprintf(stderr, "Input has %d items, limit is %d (DEDUP_MAX_ITEMS)\n", len(items), rt.cfg.MaxItems)
		return 1
	}

	logger := rt.logger.With().
		Str("command", "dedup").
		Str("run_id", uuid.NewString()).
		Logger()

	for _, index := range batchschema.BlankSources(items) {
		logger.Warn().
			Int("item_index", index).
			Str("title", items[index].Title).
			Msg("item has no source, merging as Unknown")
	}

	if rt.cfg.InferSourceTypes {
		path := rt.cfg.SourceCatalogFile
		if strings.TrimSpace(*catalogPath) != "" {
			path = *catalogPath
		}
		catalog, err := sourcetype.LoadCatalog(path)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load source catalog: %v\n", err)
			return 1
		}
		inferred := inferSourceTypes(items, catalog)
		logger.Debug().Int("inferred", inferred).Int("catalog_size", catalog.Len()).Msg("filled missing source types")
	}

	opts.Now = clock
	opts.Logger = logger
	result := dedup.New(opts).Deduplicate(items)

	if outputFormat == outputFormatJSON {
		if err := printJSON(result); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	if err := writeStoryTable(result, clock()); err != nil {
		fmt.Fprintf(stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}

// inferSourceTypes fills empty source types in place and returns how many
// were set.
func inferSourceTypes(items []dedup.NewsItem, catalog *sourcetype.Catalog) int {
	inferred := 0
	for i := range items {
		if items[i].SourceType != "" {
			continue
		}
		if sourceType, ok := catalog.Lookup(items[i].Source); ok {
			items[i].SourceType = sourceType
			inferred++
		}
	}
	return inferred
}

func writeStoryTable(result dedup.Result, reference time.Time) error {
	headers := []string{"RANK", "SOURCES", "TIME", "AGE", "TITLE", "URL"}
	rows := make([][]string, 0, len(result.Stories))
	for i, story := range result.Stories {
		when := story.Time
		if iso := timeparse.ToISO8601(story.EffectiveTime(), reference); iso != "" {
			when = timeparse.HumanReadable(iso)
		}
		age := "-"
		if hours, ok := timeparse.HoursAgo(story.EffectiveTime(), reference); ok {
			age = strconv.FormatFloat(hours, 'f', 1, 64) + "h"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			truncateForTable(fmt.Sprintf("%d: %s", story.SourceCount, strings.Join(story.Sources, ", ")), 40),
			when,
			age,
			truncateForTable(story.Title, 80),
			truncateForTable(story.URL, 60),
		})
	}
	if err := writeTable(headers, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(stdout, "\nraw_items=%d after_dedup=%d duplicates_merged=%d sources_scanned=%d\n",
		result.Meta.RawItems, result.Meta.AfterDedup, result.Meta.DuplicatesMerged, result.Meta.SourcesScanned)
	return err
}
