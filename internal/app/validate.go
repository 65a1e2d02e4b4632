package app

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	batchschema "horse.fit/briefing/schema"
)

type validateResult struct {
	Scanned int
	Valid   int
	Invalid int
	Items   int
}

func runValidate(args []string) int {
	flags := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags.SetOutput(stderr)

	dir := flags.String("dir", "testdata/batches", "Directory containing .json batch files")
	recursive := flags.Bool("recursive", true, "Recursively scan subdirectories")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.NArg() != 0 {
		fmt.Fprintln(stderr, "validate does not accept positional arguments")
		return 2
	}

	root := strings.TrimSpace(*dir)
	files, err := collectJSONFiles(root, *recursive)
	if err != nil {
		fmt.Fprintf(stderr, "Validation setup failed: %v\n", err)
		return 1
	}

	result := validateResult{}
	for _, path := range files {
		result.Scanned++

		raw, err := os.ReadFile(path)
		if err != nil {
			result.Invalid++
			fmt.Fprintf(stderr, "INVALID %s: read failed: %v\n", path, err)
			continue
		}

		items, err := batchschema.ValidateBatch(raw)
		if err != nil {
			result.Invalid++
			fmt.Fprintf(stderr, "INVALID %s: %v\n", path, err)
			continue
		}

		result.Valid++
		result.Items += len(items)
		if blank := batchschema.BlankSources(items); len(blank) > 0 {
			fmt.Fprintf(stderr, "WARN %s: %d item(s) without source, merged as Unknown\n", path, len(blank))
		}
	}

	fmt.Fprintf(
		stdout,
		"validate scanned=%d valid=%d invalid=%d items=%d dir=%s recursive=%t\n",
		result.Scanned,
		result.Valid,
		result.Invalid,
		result.Items,
		root,
		*recursive,
	)

	if result.Scanned == 0 {
		fmt.Fprintf(stderr, "Validation failed: no .json files found under %s\n", root)
		return 1
	}
	if result.Invalid > 0 {
		return 1
	}
	return 0
}

// collectJSONFiles lists .json files under root in sorted order, skipping
// dotfiles and dot-directories.
func collectJSONFiles(root string, recursive bool) ([]string, error) {
	if root == "" {
		return nil, fmt.Errorf("directory path is empty")
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var files []string
	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", root, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isVisibleJSON(entry.Name()) {
				continue
			}
			files = append(files, filepath.Join(root, entry.Name()))
		}
		sort.Strings(files)
		return files, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if isVisibleJSON(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func isVisibleJSON(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), ".json")
}
