package app

import (
	"fmt"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "dedup":
		return runDedup(args[1:])
	case "classify":
		return runClassify(args[1:])
	case "diff":
		return runDiff(args[1:])
	case "validate":
		return runValidate(args[1:])
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(stderr, "briefing CLI")
	fmt.Fprintln(stderr, "")
	fmt.Fprintln(stderr, "Usage:")
	fmt.Fprintln(stderr, "  briefing <command> [flags]")
	fmt.Fprintln(stderr, "")
	fmt.Fprintln(stderr, "Commands:")
	fmt.Fprintln(stderr, "  dedup     Merge duplicate news items and rank the resulting stories")
	fmt.Fprintln(stderr, "  classify  Show the duplicate verdict for two news items")
	fmt.Fprintln(stderr, "  diff      Compare two ranked runs (new, dropped, moved)")
	fmt.Fprintln(stderr, "  validate  Validate news item batch files against the batch schema")
	fmt.Fprintln(stderr, "")
	fmt.Fprintln(stderr, "Use \"briefing <command> -h\" for command-specific flags.")
}
