// Package debug is a category logger that writes to a file so it never
// interferes with the terminal UI
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	file     *os.File
	mu       sync.Mutex
	enabled  bool
	counters = make(map[string]int)
)

// Enable starts logging to ~/.config/go-looper/debug.log
func Enable() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return EnableAt(filepath.Join(home, ".config", "go-looper"))
}

// EnableAt starts logging to debug.log inside dir, truncating it
func EnableAt(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	file = f
	enabled = true

	// can't call Log, we hold the mutex
	write("debug", "=== debug logging started ===")
	return nil
}

// Disable stops logging and closes the file
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
	clear(counters)
}

// Enabled reports whether Log writes anywhere
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Log writes one line under category
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || file == nil {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

// LogEvery logs only every n-th call with the same category and format
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

func write(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(file, "[%s] %-10s %s\n", ts, category, msg)
	file.Sync() // flush now so a crash keeps the tail
}
