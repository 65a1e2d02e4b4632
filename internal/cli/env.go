package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileVar names a .env file that takes precedence over the --env flag.
const EnvFileVar = "BRIEFING_ENV_FILE"

// EnvLoader loads one .env file per command run. Candidates are tried in
// order: $BRIEFING_ENV_FILE, the --env value, its basename in the working
// directory, then the flag default. The first file that loads wins and its
// values overwrite the process environment.
type EnvLoader struct {
	value       *string
	defaultPath string
	out         io.Writer
}

// AddEnvFlag registers an --env flag and returns an EnvLoader.
func AddEnvFlag(fs *flag.FlagSet, defaultPath, description string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if defaultPath == "" {
		defaultPath = ".env"
	}
	if description == "" {
		description = "Path to the .env file"
	}

	value := fs.String("env", defaultPath, description)
	return &EnvLoader{
		value:       value,
		defaultPath: defaultPath,
		out:         os.Stderr,
	}
}

// SetOutput redirects the loader's progress lines. A nil writer silences
// them.
func (l *EnvLoader) SetOutput(w io.Writer) {
	if l == nil {
		return
	}
	if w == nil {
		w = io.Discard
	}
	l.out = w
}

// Load applies the first candidate that exists and returns its path.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	candidates := l.candidates()
	for _, candidate := range candidates {
		if err := godotenv.Overload(candidate.path); err != nil {
			if candidate.explicit {
				l.printf("Warning: failed to load %s=%s: %v\n", EnvFileVar, candidate.path, err)
			}
			continue
		}
		l.printf("Loaded environment from %s\n", candidate.path)
		return candidate.path, nil
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		tried = append(tried, candidate.path)
	}
	return "", fmt.Errorf("no env file loaded (tried %s)", strings.Join(tried, ", "))
}

type envCandidate struct {
	path     string
	explicit bool
}

func (l *EnvLoader) candidates() []envCandidate {
	var out []envCandidate
	seen := map[string]struct{}{}
	add := func(path string, explicit bool) {
		path = strings.TrimSpace(path)
		if path == "" {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		out = append(out, envCandidate{path: path, explicit: explicit})
	}

	add(os.Getenv(EnvFileVar), true)

	requested := l.defaultPath
	if l.value != nil && strings.TrimSpace(*l.value) != "" {
		requested = *l.value
	}
	add(requested, false)
	add(filepath.Base(strings.TrimSpace(requested)), false)
	add(l.defaultPath, false)
	return out
}

func (l *EnvLoader) printf(format string, args ...any) {
	if l.out == nil {
		return
	}
	fmt.Fprintf(l.out, format, args...)
}
