package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"horse.fit/briefing/internal/cli"
	"horse.fit/briefing/internal/config"
	"horse.fit/briefing/internal/globaltime"
	"horse.fit/briefing/internal/logging"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"

	stdinPath = "-"
)

// Swapped by tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

type runtimeEnv struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func loadRuntime(envLoader *cli.EnvLoader) (*runtimeEnv, error) {
	if envLoader != nil {
		envLoader.SetOutput(stderr)
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewWithWriter(stderr, cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return &runtimeEnv{cfg: cfg, logger: logger}, nil
}

func parseOutputFormat(raw, defaultFormat string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = strings.TrimSpace(strings.ToLower(defaultFormat))
	}
	switch format {
	case outputFormatTable, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be table or json")
	}
}

// parseNowFlag returns the clock for a run: the process clock, or a fixed
// RFC3339 instant.
func parseNowFlag(raw string) (func() time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return globaltime.Clock(), nil
	}
	pinned, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("must be RFC3339")
	}
	pinned = pinned.UTC()
	return func() time.Time { return pinned }, nil
}

func readInput(path string) ([]byte, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == stdinPath {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", trimmed, err)
	}
	return raw, nil
}

func truncateForTable(value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if maxLen <= 0 {
		return trimmed
	}
	if utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}

	runes := []rune(trimmed)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func printJSON(value any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(value)
}

func writeTable(headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return writer.Flush()
}
