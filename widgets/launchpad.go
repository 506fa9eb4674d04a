package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-looper/midi"
	"go-looper/theme"
)

// RenderPad renders a single colored pad
func RenderPad(color theme.RGB) string {
	return lipgloss.NewStyle().Foreground(theme.Hex(color)).Render("■")
}

// RenderFrame previews a Launchpad LED frame, top row first.
// Pads missing from the frame render dark
func RenderFrame(frame []midi.LEDUpdate) string {
	var grid [9][9]theme.RGB
	for _, u := range frame {
		if u.Row >= 0 && u.Row < 9 && u.Col >= 0 && u.Col < 9 {
			grid[u.Row][u.Col] = u.Color
		}
	}

	lines := make([]string, 0, 9)
	for row := 8; row >= 0; row-- {
		pads := make([]string, 0, 9)
		for col := 0; col < 9; col++ {
			if row == 8 && col == 8 {
				pads = append(pads, " ")
				continue
			}
			pads = append(pads, RenderPad(grid[row][col]))
		}
		lines = append(lines, strings.Join(pads, " "))
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}
