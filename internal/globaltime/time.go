// Package globaltime holds the process clock used by the CLI when it builds
// dedup options. The dedup core never reads it directly; it receives "now"
// as an injected function.
package globaltime

import (
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	nowFunc = time.Now
)

func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc()
}

func UTC() time.Time {
	return Now().UTC()
}

// Clock returns a function suitable for dedup.Options.Now.
func Clock() func() time.Time {
	return UTC
}

// Pin fixes the clock to t until Reset is called.
func Pin(t time.Time) {
	pinned := t.UTC()
	mu.Lock()
	defer mu.Unlock()
	nowFunc = func() time.Time { return pinned }
}

func Reset() {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = time.Now
}
