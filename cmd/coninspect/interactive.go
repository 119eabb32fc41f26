package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/termforge/conbuf"
	"github.com/termforge/conbuf/codepage"
	"github.com/termforge/conbuf/inputbuffer"
	"github.com/termforge/conbuf/record"
	"github.com/termforge/conbuf/wait"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F87AF")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	signalOnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	signalOffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// inspectorModel drives the interactive buffer inspector. All buffer
// mutations happen on the Update goroutine; only the wait queue is
// touched from the background wake watcher.
type inspectorModel struct {
	buf   *inputbuffer.Buffer
	queue *wait.Queue
	ready *wait.Event
	cp    *codepage.Table

	input   textinput.Model
	log     []string
	pending []uint16
	wakes   int
	width   int
	height  int
}

type wokeMsg struct {
	reason conbuf.WaitReason
}

func (m *inspectorModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForWake)
}

// waitForWake parks on the queue until the next notification round and
// reports it back as a message, then Update re-arms it.
func (m *inspectorModel) waitForWake() tea.Msg {
	reason, err := m.queue.Wait(context.Background())
	if err != nil {
		return nil
	}
	return wokeMsg{reason: reason}
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case wokeMsg:
		m.wakes++
		m.logf("reader woken (reason=%v)", msg.reason)
		return m, m.waitForWake

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			if v := m.input.Value(); v != "" {
				units := utf16.Encode([]rune(v))
				m.buf.WriteText(units)
				m.logf("wrote text run %q (%d units)", v, len(units))
				m.input.Reset()
			}
			return m, nil

		case "ctrl+k":
			if v := m.input.Value(); v != "" {
				rs := keyRecords(v)
				m.buf.WriteRecords(rs)
				m.logf("wrote %d key events for %q", len(rs), v)
				m.input.Reset()
			}
			return m, nil

		case "ctrl+s":
			out := make([]uint16, 16)
			n := m.buf.ReadChars(out, true, false)
			m.logf("read chars: %q (%d)", string(utf16.Decode(out[:n])), n)
			return m, nil

		case "ctrl+p":
			out := make([]uint16, 16)
			n := m.buf.ReadChars(out, true, true)
			m.logf("peek chars: %q (%d)", string(utf16.Decode(out[:n])), n)
			return m, nil

		case "ctrl+r":
			out := make([]record.Record, 8)
			n := m.buf.ReadRecords(out, true, false)
			if n == 0 {
				m.logf("read records: none")
			}
			for _, r := range out[:n] {
				m.logf("read %s", formatRecord(r))
			}
			return m, nil

		case "ctrl+n":
			m.narrowStep()
			return m, nil

		case "ctrl+f":
			m.buf.Flush()
			m.pending = nil
			m.logf("flushed")
			return m, nil

		case "ctrl+b":
			m.buf.FlushAllButKeys()
			m.logf("flushed all but keys")
			return m, nil

		case "ctrl+t":
			m.buf.TerminateRead(conbuf.WaitReasonThreadDying)
			m.logf("terminated waiters")
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// narrowStep replays pending characters through the transcoder four
// bytes at a time, keeping leftover source units across presses so the
// split and resume path is visible in the state pane.
func (m *inspectorModel) narrowStep() {
	if len(m.pending) == 0 && m.buf.Stats().CachedNarrow == 0 {
		out := make([]uint16, 256)
		n := m.buf.ReadChars(out, true, false)
		if n == 0 {
			m.logf("narrow: nothing pending")
			return
		}
		m.pending = out[:n]
	}
	target := make([]byte, 4)
	sv, tv := m.pending, target
	if err := m.buf.Consume(false, &sv, &tv); err != nil {
		m.logf("narrow: %v", err)
		return
	}
	m.pending = sv
	produced := target[:len(target)-len(tv)]
	m.logf("narrow: [% x]  source left %d, cached %d",
		produced, len(m.pending), m.buf.Stats().CachedNarrow)
}

func (m *inspectorModel) logf(format string, args ...any) {
	m.log = append(m.log, fmt.Sprintf(format, args...))
	if len(m.log) > 200 {
		m.log = m.log[len(m.log)-200:]
	}
}

func (m *inspectorModel) View() string {
	width := m.width
	if width < 60 {
		width = 100
	}
	stateW := 38
	logW := width - stateW - 8
	if logW < 20 {
		logW = 20
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Width(stateW).Render(m.renderState(stateW)),
		paneStyle.Width(logW).Render(m.renderLog(logW)),
	)

	var b strings.Builder
	b.WriteString(titleStyle.Render("conbuf inspector"))
	b.WriteString("  ")
	b.WriteString(helpStyle.Render(fmt.Sprintf("code page %d (%s)", m.cp.ID(), m.cp.Name())))
	b.WriteString("\n\n")
	b.WriteString(panes)
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter text • ctrl+k keys • ctrl+s read • ctrl+p peek • ctrl+r records"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("ctrl+n narrow • ctrl+f flush • ctrl+b keep keys • ctrl+t terminate • esc quit"))
	return b.String()
}

func (m *inspectorModel) renderState(width int) string {
	st := m.buf.Stats()
	signal := signalOffStyle.Render("reset")
	if m.ready.IsSet() {
		signal = signalOnStyle.Render("set")
	}
	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-12s", label)) + valueStyle.Render(value)
	}
	lines := []string{
		row("mode", st.Mode.String()),
		row("records", strconv.Itoa(st.Records)),
		row("text units", strconv.Itoa(st.TextUnits)),
		row("ready count", strconv.Itoa(m.buf.ReadyEventCount())),
		labelStyle.Render(fmt.Sprintf("%-12s", "signal")) + signal,
		row("cached A/W", fmt.Sprintf("%d/%d", st.CachedNarrow, st.CachedWide)),
		row("cached recs", strconv.Itoa(st.CachedRecords)),
		row("wakes", strconv.Itoa(m.wakes)),
		row("pending src", strconv.Itoa(len(m.pending))),
		"",
		labelStyle.Render("spans"),
		runewidth.Truncate(formatSpans(m.buf.Spans()), width, "…"),
	}
	return strings.Join(lines, "\n")
}

func (m *inspectorModel) renderLog(width int) string {
	max := m.height - 10
	if max < 5 {
		max = 15
	}
	start := 0
	if len(m.log) > max {
		start = len(m.log) - max
	}
	lines := make([]string, 0, max)
	for _, line := range m.log[start:] {
		lines = append(lines, runewidth.Truncate(line, width, "…"))
	}
	if len(lines) == 0 {
		lines = append(lines, helpStyle.Render("type text and press enter to feed the buffer"))
	}
	return strings.Join(lines, "\n")
}

func runInteractive(cpID uint32, debug bool) error {
	cp, err := codepage.Lookup(cpID)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer logger.Sync()
	}

	queue := wait.NewQueue()
	ready := wait.NewEvent()
	buf := inputbuffer.New(inputbuffer.Options{
		WaitQueue:   queue,
		ReadySignal: ready,
		Codepage:    cp,
		Logger:      logger,
	})

	ti := textinput.New()
	ti.Placeholder = "type input here"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()

	m := &inspectorModel{
		buf:   buf,
		queue: queue,
		ready: ready,
		cp:    cp,
		input: ti,
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("inspector: %w", err)
	}
	return nil
}
