package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-looper/looper"
	"go-looper/midi"
	"go-looper/theme"
	"go-looper/widgets"
)

const (
	gridCols     = 8
	maxNotices   = 6
	refreshRate  = time.Second / 20
	meterWidth   = 24
	meterFloorDB = -60
)

type Model struct {
	Session   *looper.Session
	DeviceMgr *midi.DeviceManager // may be nil
	Theme     *theme.Theme
	fatal     <-chan error

	cursor   int
	notices  []string
	showHelp bool
	err      error
	quitting bool
}

var keyHelp = []widgets.KeySection{
	{Title: "Loops", Keys: []widgets.KeyBinding{
		{Key: "hjkl/arrows", Desc: "move cursor"},
		{Key: "space/enter", Desc: "record, mute or unmute the loop"},
		{Key: "s", Desc: "stop recording at the end of the measure"},
	}},
	{Title: "Effects", Keys: []widgets.KeyBinding{
		{Key: "c", Desc: "toggle compression"},
		{Key: "d", Desc: "toggle distortion"},
	}},
	{Keys: []widgets.KeyBinding{
		{Key: "?", Desc: "toggle this help"},
		{Key: "q", Desc: "quit"},
	}},
}

type UpdateMsg struct{}

type NoticeMsg looper.Notice

type TickMsg time.Time

type FatalMsg struct{ Err error }

// NewModel builds the UI. The model quits when fatal delivers an error
func NewModel(s *looper.Session, dm *midi.DeviceManager, th *theme.Theme, fatal <-chan error) Model {
	return Model{
		Session:   s,
		DeviceMgr: dm,
		Theme:     th,
		fatal:     fatal,
		cursor:    1,
	}
}

// Err is the fatal error that ended the UI, if any
func (m Model) Err() error {
	return m.err
}

func ListenForUpdates(e *looper.Engine) tea.Cmd {
	return func() tea.Msg {
		<-e.Updates()
		return UpdateMsg{}
	}
}

func ListenForNotices(e *looper.Engine) tea.Cmd {
	return func() tea.Msg {
		return NoticeMsg(<-e.Notices())
	}
}

func listenForFatal(fatal <-chan error) tea.Cmd {
	return func() tea.Msg {
		return FatalMsg{Err: <-fatal}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshRate, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		ListenForUpdates(m.Session.Engine),
		ListenForNotices(m.Session.Engine),
		tick(),
	}
	if m.fatal != nil {
		cmds = append(cmds, listenForFatal(m.fatal))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case UpdateMsg:
		return m, ListenForUpdates(m.Session.Engine)

	case NoticeMsg:
		m.addNotice(looper.Notice(msg).String())
		return m, ListenForNotices(m.Session.Engine)

	case TickMsg:
		// playback position and level move without engine updates
		return m, tick()

	case FatalMsg:
		m.err = msg.Err
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	numLoops := len(m.Session.Snapshot().Loops)
	controls := m.Session.Controls

	var err error
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "h", "left":
		m.cursor = max(m.cursor-1, 0)
	case "l", "right":
		m.cursor = min(m.cursor+1, numLoops-1)
	case "k", "up":
		if m.cursor-gridCols >= 0 {
			m.cursor -= gridCols
		}
	case "j", "down":
		if m.cursor+gridCols < numLoops {
			m.cursor += gridCols
		}

	case " ", "enter":
		err = controls.ToggleLoop(m.cursor)
	case "?":
		m.showHelp = !m.showHelp
	case "s":
		err = controls.StopRecording()
	case "c":
		err = controls.ToggleCompression()
	case "d":
		err = controls.ToggleDistortion()
	}

	if err != nil {
		m.addNotice(err.Error())
	}
	return m, nil
}

func (m *Model) addNotice(s string) {
	m.notices = append(m.notices, s)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.Session.Snapshot()
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	noticeStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(m.header(snap)))
	out.WriteString("\n")
	out.WriteString(m.meter())
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderLoopGrid(m.Theme, snap, m.cursor, gridCols))
	out.WriteString("\n\n")

	for _, n := range m.notices {
		out.WriteString(noticeStyle.Render(n))
		out.WriteString("\n")
	}
	for i := len(m.notices); i < maxNotices; i++ {
		out.WriteString("\n")
	}

	out.WriteString("\n")
	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keyHelp)))
		return out.String()
	}
	out.WriteString(dimStyle.Render("hjkl:move  space:toggle  s:stop  c:comp  d:dist  ?:help  q:quit"))
	return out.String()
}

func (m Model) header(snap *looper.Snapshot) string {
	t := m.Session.Timing
	measure, beat := m.Session.Playback.Position()
	compress, distort := m.Session.Effects()

	flags := []string{flag("COMP", compress), flag("DIST", distort)}
	if m.DeviceMgr != nil && m.DeviceMgr.GetLaunchpad() != nil {
		flags = append(flags, "LP")
	}
	if snap.Recording >= 0 {
		info := snap.Loops[snap.Recording]
		flags = append(flags, fmt.Sprintf("REC %02d %s", snap.Recording, info.Status))
	}

	return fmt.Sprintf("go-looper  %3dbpm  bar %03d beat %d  %s",
		t.BPM, measure+1, beat+1, strings.Join(flags, "  "))
}

func flag(name string, on bool) string {
	if on {
		return name
	}
	return strings.Repeat("-", len(name))
}

// meter draws the input level in dBFS
func (m Model) meter() string {
	fill := 0
	if level := float64(m.Session.Playback.Level()); level > 0 {
		db := 20 * math.Log10(level)
		fill = int((db - meterFloorDB) / -meterFloorDB * meterWidth)
		fill = max(0, min(fill, meterWidth))
	}

	style := lipgloss.NewStyle().Foreground(m.Theme.Success())
	if fill > meterWidth*5/6 {
		style = lipgloss.NewStyle().Foreground(m.Theme.Warning())
	}
	bar := style.Render(strings.Repeat("█", fill)) + strings.Repeat("░", meterWidth-fill)
	return fmt.Sprintf("in %s", bar)
}
