package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"riptide/internal/ioengine"
)

// StatsMsg is one engine snapshot pushed by the workload goroutine.
type StatsMsg struct {
	Stats   ioengine.Stats
	Pending int
	Elapsed time.Duration
}

// monitorModel renders live engine counters while a workload drives it.
type monitorModel struct {
	title   string
	events  <-chan StatsMsg
	spinner spinner.Model
	last    StatsMsg
	started bool
	done    bool
	width   int
}

type statsMsg StatsMsg
type workloadDoneMsg struct{}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// NewMonitorModel returns a Bubble Tea model that renders engine stats
// arriving on events; closing the channel ends the program.
func NewMonitorModel(title string, events <-chan StatsMsg) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	return &monitorModel{
		title:   title,
		events:  events,
		spinner: sp,
		width:   80,
	}
}

func (m *monitorModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *monitorModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return workloadDoneMsg{}
		}
		return statsMsg(ev)
	}
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statsMsg:
		m.last = StatsMsg(msg)
		m.started = true
		return m, m.listenForEvent()
	case workloadDoneMsg:
		m.done = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

var countPrinter = message.NewPrinter(language.English)

func statLine(label string, value string) string {
	return labelStyle.Render(runewidth.FillRight(label, 14)) + valueStyle.Render(value)
}

func (m *monitorModel) View() string {
	var sb strings.Builder

	header := titleStyle.Render(m.title)
	if m.done {
		header += "  " + doneStyle.Render("done")
	} else {
		header += "  " + m.spinner.View()
	}
	sb.WriteString(header)
	sb.WriteString("\n")

	st := m.last.Stats
	lines := []string{
		statLine("pending", countPrinter.Sprintf("%d", m.last.Pending)),
		statLine("registered", countPrinter.Sprintf("%d", st.Registered)),
		statLine("drains", countPrinter.Sprintf("%d", st.Drains)),
		statLine("resumed", countPrinter.Sprintf("%d", st.Resumed)),
		statLine("timeouts", countPrinter.Sprintf("%d", st.Timeouts)),
	}
	failures := countPrinter.Sprintf("%d", st.Failures)
	if st.Failures > 0 {
		lines = append(lines, labelStyle.Render(runewidth.FillRight("failures", 14))+failStyle.Render(failures))
	} else {
		lines = append(lines, statLine("failures", failures))
	}
	if m.started {
		lines = append(lines, statLine("elapsed", m.last.Elapsed.Truncate(time.Millisecond).String()))
	}

	sb.WriteString(borderStyle.Render(strings.Join(lines, "\n")))
	sb.WriteString("\n")
	if !m.done {
		sb.WriteString(labelStyle.Render("press q to quit"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Summary renders a one-shot, non-TUI summary of a final snapshot, for
// non-interactive runs.
func Summary(final StatsMsg) string {
	st := final.Stats
	return fmt.Sprintf("registered=%d drains=%d resumed=%d timeouts=%d failures=%d elapsed=%s",
		st.Registered, st.Drains, st.Resumed, st.Timeouts, st.Failures,
		final.Elapsed.Truncate(time.Millisecond))
}
