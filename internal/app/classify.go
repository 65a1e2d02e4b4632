package app

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"horse.fit/briefing/internal/cli"
	"horse.fit/briefing/internal/dedup"
	"horse.fit/briefing/internal/textsim"
	"horse.fit/briefing/internal/urlnorm"
)

type classifySide struct {
	CanonicalURL    string `json:"canonical_url"`
	NormalizedTitle string `json:"normalized_title"`
	Fingerprint     string `json:"fingerprint,omitempty"`
}

type classifyOutput struct {
	Confidence dedup.Confidence `json:"confidence"`
	Signal     dedup.Signal     `json:"signal"`
	Similarity float64          `json:"similarity"`
	WithinDay  bool             `json:"within_day"`
	Threshold  float64          `json:"threshold"`
	Duplicate  bool             `json:"duplicate"`
	Left       classifySide     `json:"left"`
	Right      classifySide     `json:"right"`
}

func runClassify(args []string) int {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	left := fs.String("left", "", "First news item as a JSON object (required)")
	right := fs.String("right", "", "Second news item as a JSON object (required)")
	threshold := fs.Float64("threshold", -1, "Title similarity threshold for MEDIUM matches (default DEDUP_TITLE_THRESHOLD)")
	now := fs.String("now", "", "Reference time in RFC3339 (default: current time)")
	format := fs.String("format", outputFormatJSON, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "classify does not accept positional arguments")
		return 2
	}
	if strings.TrimSpace(*left) == "" || strings.TrimSpace(*right) == "" {
		fmt.Fprintln(stderr, "--left and --right are required")
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

	var a, b dedup.NewsItem
	if err := json.Unmarshal([]byte(*left), &a); err != nil {
		fmt.Fprintf(stderr, "Invalid --left: %v\n", err)
		return 2
	}
	if err := json.Unmarshal([]byte(*right), &b); err != nil {
		fmt.Fprintf(stderr, "Invalid --right: %v\n", err)
		return 2
	}

	rt, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	gate := rt.cfg.TitleThreshold
	if *threshold >= 0 {
		gate = *threshold
	}

	verdict := dedup.Classify(a, b, clock())
	out := classifyOutput{
		Confidence: verdict.Confidence,
		Signal:     verdict.Signal,
		Similarity: verdict.Similarity,
		WithinDay:  verdict.WithinDay,
		Threshold:  gate,
		Duplicate:  verdict.PassesThreshold(gate),
		Left:       describeSide(a),
		Right:      describeSide(b),
	}
	rt.logger.Debug().
		Str("command", "classify").
		Str("confidence", string(out.Confidence)).
		Bool("duplicate", out.Duplicate).
		Msg("classified pair")

	if outputFormat == outputFormatJSON {
		if err := printJSON(out); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := [][]string{
		{"confidence", string(out.Confidence)},
		{"signal", string(out.Signal)},
		{"similarity", strconv.FormatFloat(out.Similarity, 'f', 3, 64)},
		{"within_day", strconv.FormatBool(out.WithinDay)},
		{"duplicate", strconv.FormatBool(out.Duplicate)},
		{"left_url", out.Left.CanonicalURL},
		{"right_url", out.Right.CanonicalURL},
		{"left_title", out.Left.NormalizedTitle},
		{"right_title", out.Right.NormalizedTitle},
	}
	if err := writeTable([]string{"FIELD", "VALUE"}, rows); err != nil {
		fmt.Fprintf(stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}

func describeSide(item dedup.NewsItem) classifySide {
	return classifySide{
		CanonicalURL:    urlnorm.Canonicalize(item.URL),
		NormalizedTitle: textsim.NormalizeTitle(item.Title),
		Fingerprint:     textsim.Fingerprint(item.Content),
	}
}
