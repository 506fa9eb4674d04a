package samples

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go-looper/looper"
)

const timestampLayout = "2006-01-02_15-04-05"

// Manifest describes an exported session
type Manifest struct {
	BPM        int         `json:"bpm"`
	SampleRate int         `json:"sampleRate"`
	Loops      []LoopEntry `json:"loops"`
}

// LoopEntry is one exported loop
type LoopEntry struct {
	Index    int    `json:"index"`
	Measures int    `json:"measures"`
	File     string `json:"file"`
}

// SessionInfo represents an exported session folder (for listing)
type SessionInfo struct {
	Dir       string
	Name      string // parsed from the folder name (empty if unnamed)
	Timestamp time.Time
}

// SessionsDir returns the default export directory
func SessionsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-looper", "sessions"), nil
}

// Export writes every take as loop_NN.wav plus a session.json manifest into
// a new timestamped folder under base, and returns that folder
func Export(base, name string, bpm, sampleRate int, takes []looper.Take) (string, error) {
	if len(takes) == 0 {
		return "", nil
	}

	folder := time.Now().Format(timestampLayout)
	if name != "" {
		folder += "_" + sanitizeFilename(name)
	}
	dir := filepath.Join(base, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	m := Manifest{BPM: bpm, SampleRate: sampleRate}
	for _, take := range takes {
		file := fmt.Sprintf("loop_%02d.wav", take.Index)
		if err := Save(filepath.Join(dir, file), take.Samples, sampleRate); err != nil {
			return "", err
		}
		m.Loops = append(m.Loops, LoopEntry{Index: take.Index, Measures: take.Length, File: file})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "session.json"), data, 0644); err != nil {
		return "", err
	}
	return dir, nil
}

// ReadManifest loads session.json from an exported folder
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "session.json"))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest in %s: %w", dir, err)
	}
	return &m, nil
}

// ListSessions returns exported sessions under base, newest first
func ListSessions(base string) ([]SessionInfo, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionInfo{}, nil
		}
		return nil, err
	}

	var sessions []SessionInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := entry.Name()
		if len(folder) < len(timestampLayout) {
			continue
		}
		ts, err := time.ParseInLocation(timestampLayout, folder[:len(timestampLayout)], time.Local)
		if err != nil {
			continue
		}

		name := ""
		if rest := folder[len(timestampLayout):]; strings.HasPrefix(rest, "_") {
			name = rest[1:]
		}
		sessions = append(sessions, SessionInfo{
			Dir:       filepath.Join(base, folder),
			Name:      name,
			Timestamp: ts,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.After(sessions[j].Timestamp)
	})
	return sessions, nil
}

// sanitizeFilename replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	r := strings.NewReplacer(
		" ", "-", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	)
	return r.Replace(name)
}
