package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-looper/looper"
	"go-looper/midi"
	"go-looper/theme"
)

// PadLook is how one loop shows on a pad
type PadLook struct {
	Color   theme.RGB
	Channel uint8 // midi.ChannelStatic, ChannelFlash or ChannelPulse
}

// LoopLook picks the pad color for a loop register
func LoopLook(th *theme.Theme, idx int, info looper.LoopInfo) PadLook {
	if idx == looper.MetronomeLoop {
		return PadLook{Color: th.RGB(theme.RoleAccent)}
	}
	switch info.Status.Kind {
	case looper.Off:
		return PadLook{Color: th.RGB(theme.RoleSurface)}
	case looper.On:
		return PadLook{Color: th.RGB(theme.RoleSuccess)}
	case looper.RecordStart:
		return PadLook{Color: th.RGB(theme.RoleWarning), Channel: midi.ChannelFlash}
	case looper.Recording:
		return PadLook{Color: th.RGB(theme.RoleActive), Channel: midi.ChannelPulse}
	case looper.RecordEnd:
		return PadLook{Color: th.RGB(theme.RoleWarning), Channel: midi.ChannelPulse}
	default:
		return PadLook{}
	}
}

// LoopSymbol picks the grid glyph for a loop register
func LoopSymbol(th *theme.Theme, idx int, info looper.LoopInfo) rune {
	if idx == looper.MetronomeLoop {
		return th.Symbols.Metronome
	}
	switch info.Status.Kind {
	case looper.Off:
		return th.Symbols.Off
	case looper.On:
		return th.Symbols.On
	case looper.RecordStart:
		return th.Symbols.RecordStart
	case looper.Recording:
		return th.Symbols.Recording
	case looper.RecordEnd:
		return th.Symbols.RecordEnd
	default:
		return th.Symbols.Empty
	}
}

// RenderLoopGrid draws the loop registers in rows of cols cells. Each cell
// is the index, the glyph and the length in measures
func RenderLoopGrid(th *theme.Theme, snap *looper.Snapshot, cursor, cols int) string {
	if cols < 1 {
		cols = 8
	}
	cursorStyle := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())

	var out strings.Builder
	for i, info := range snap.Loops {
		if i > 0 && i%cols == 0 {
			out.WriteString("\n")
		}

		glyph := lipgloss.NewStyle().
			Foreground(theme.Hex(cellColor(th, i, info))).
			Render(string(LoopSymbol(th, i, info)))

		length := "  "
		if info.Length > 0 && i != looper.MetronomeLoop {
			length = fmt.Sprintf("%-2d", info.Length)
		}

		cell := fmt.Sprintf("%02d %s %s", i, glyph, dimStyle.Render(length))
		if i == cursor {
			cell = cursorStyle.Render("[") + cell + cursorStyle.Render("]")
		} else {
			cell = " " + cell + " "
		}
		out.WriteString(cell)
	}
	return out.String()
}

// cellColor keeps empty cells visible in the terminal
func cellColor(th *theme.Theme, idx int, info looper.LoopInfo) theme.RGB {
	if idx != looper.MetronomeLoop && info.Status.Kind == looper.Empty {
		return th.RGB(theme.RoleMuted)
	}
	return LoopLook(th, idx, info).Color
}
