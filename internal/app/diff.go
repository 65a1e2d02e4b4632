package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"horse.fit/briefing/internal/dedup"
	"horse.fit/briefing/internal/rundiff"
)

func runDiff(args []string) int {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.SetOutput(stderr)

	current := fs.String("current", "", "Current run output JSON (required)")
	previous := fs.String("previous", "", "Previous run output JSON (required)")
	format := fs.String("format", outputFormatJSON, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "diff does not accept positional arguments")
		return 2
	}
	if strings.TrimSpace(*current) == "" || strings.TrimSpace(*previous) == "" {
		fmt.Fprintln(stderr, "--current and --previous are required")
		return 2
	}
	if strings.TrimSpace(*current) == stdinPath && strings.TrimSpace(*previous) == stdinPath {
		fmt.Fprintln(stderr, "only one of --current and --previous may read stdin")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatJSON)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid format: %v\n", err)
		return 2
	}

	currentStories, err := readStories(*current)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to read current run: %v\n", err)
		return 1
	}
	previousStories, err := readStories(*previous)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to read previous run: %v\n", err)
		return 1
	}

	diff := rundiff.Compute(currentStories, previousStories)

	if outputFormat == outputFormatJSON {
		if err := printJSON(diff); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	if err := writeDiffTable(diff); err != nil {
		fmt.Fprintf(stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}

// readStories accepts a full dedup result or a bare array of stories.
func readStories(path string) ([]dedup.MergedStory, error) {
	raw, err := readInput(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	if trimmed[0] == '[' {
		var stories []dedup.MergedStory
		if err := json.Unmarshal(trimmed, &stories); err != nil {
			return nil, fmt.Errorf("decode stories: %w", err)
		}
		return stories, nil
	}

	var result dedup.Result
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return result.Stories, nil
}

func writeDiffTable(diff rundiff.Diff) error {
	headers := []string{"KIND", "OLD", "NEW", "CHANGE", "TITLE"}
	rows := make([][]string, 0, len(diff.NewStories)+len(diff.DroppedStories)+len(diff.RankChanges))
	for _, story := range diff.NewStories {
		rows = append(rows, []string{"new", "", strconv.Itoa(story.NewRank), "", truncateForTable(story.Title, 80)})
	}
	for _, story := range diff.DroppedStories {
		rows = append(rows, []string{"dropped", strconv.Itoa(story.OldRank), "", "", truncateForTable(story.Title, 80)})
	}
	for _, change := range diff.RankChanges {
		rows = append(rows, []string{
			"moved",
			strconv.Itoa(change.OldRank),
			strconv.Itoa(change.NewRank),
			fmt.Sprintf("%+d", change.Change),
			truncateForTable(change.Title, 80),
		})
	}
	if err := writeTable(headers, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(stdout, "\nnew=%d dropped=%d changed=%d\n",
		diff.Summary.NewCount, diff.Summary.DroppedCount, diff.Summary.ChangedCount)
	return err
}
