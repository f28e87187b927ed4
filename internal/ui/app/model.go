package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	pacerdto "breathtrain/internal/modules/pacer/dto"
	sessiondto "breathtrain/internal/modules/session/dto"
	apperrors "breathtrain/internal/platform/errors"
	"breathtrain/internal/ui/components"
	"breathtrain/internal/ui/theme"
	pacerview "breathtrain/internal/ui/views/pacer"
	regimesview "breathtrain/internal/ui/views/regimes"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type sessionPort interface {
	Regimes(ctx context.Context, condition string, stage int) (sessiondto.SessionOutput, error)
	StartSegment(ctx context.Context, regimeID int64, stage int) (sessiondto.StartSegmentOutput, error)
	EndSegment(ctx context.Context, segmentID string, avgCoherence float64) (sessiondto.EndSegmentOutput, error)
	Active(ctx context.Context) (sessiondto.ActiveSegmentOutput, error)
}

type pacerPort interface {
	Plan(ctx context.Context, input pacerdto.BreathsInput) (pacerdto.BreathPlan, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabRegimes tabID = iota
	tabPacer
	tabCount
)

var tabLabels = [tabCount]string{"Regimes", "Pacer"}

// ─── async messages ───────────────────────────────────────────────────────────

type activeLoadedMsg struct {
	active sessiondto.ActiveSegmentOutput
	err    error
}

type segmentStartedMsg struct {
	out  sessiondto.StartSegmentOutput
	rest bool
	err  error
}

type segmentEndedMsg struct {
	out sessiondto.EndSegmentOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Enter   key.Binding
	Start   key.Binding
	Stop    key.Binding
	Reload  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "load regime")),
		Start:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start segment")),
		Stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop pacer")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload regimes")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Enter, k.Reload},
		{k.Start, k.Stop},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the active segment,
// the help overlay and the command palette. Rendering is delegated to sub-views.
type Model struct {
	session sessionPort

	regimeView regimesview.Model
	pacerView  pacerview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	active    sessiondto.ActiveSegmentOutput
	hasActive bool
	status    string
	width     int
	height    int
}

func NewModel(condition string, stage int, session sessionPort, pacer pacerPort) Model {
	var regimesPort regimesview.SessionPort
	if session != nil {
		regimesPort = session
	}
	var pacerPortV pacerview.PacerPort
	if pacer != nil {
		pacerPortV = pacer
	}
	return Model{
		session:    session,
		regimeView: regimesview.New(regimesPort, condition, stage),
		pacerView:  pacerview.New(pacerPortV),
		activeTab:  tabRegimes,
		keys:       defaultKeys(),
		help:       help.New(),
		palette:    components.NewPalette(),
		status:     "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.regimeView.Init(), m.loadActiveCmd())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case activeLoadedMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, apperrors.ErrNoActiveSegment) {
				m.status = "active segment check: " + msg.err.Error()
			}
			m.hasActive = false
		} else {
			m.hasActive = true
			m.active = msg.active
			m.status = "segment recovered: end it with :segment:end <avg-coherence>"
		}
		return m, nil

	case segmentStartedMsg:
		if msg.err != nil {
			m.status = "segment start failed: " + msg.err.Error()
			return m, nil
		}
		m.hasActive = true
		m.active = sessiondto.ActiveSegmentOutput{
			SegmentID: msg.out.SegmentID,
			RegimeID:  msg.out.RegimeID,
			Stage:     msg.out.Stage,
			StartedAt: msg.out.StartedAt,
		}
		if msg.rest {
			m.status = "rest segment started"
			return m, nil
		}
		m.status = "segment started"
		return m, m.pacerView.Start()

	case segmentEndedMsg:
		if msg.err != nil {
			m.status = "segment end failed: " + msg.err.Error()
			return m, nil
		}
		m.hasActive = false
		m.active = sessiondto.ActiveSegmentOutput{}
		m.status = fmt.Sprintf("segment recorded (coherence %.2f)", msg.out.AvgCoherence)
		m.activeTab = tabRegimes
		return m, m.regimeView.Reload()

	case pacerview.FinishedMsg:
		m.status = "regime finished: record it with :segment:end <avg-coherence>"
		return m, nil

	case pacerview.PlanLoadedMsg:
		if msg.Err == nil {
			m.activeTab = tabPacer
			m.status = fmt.Sprintf("loaded %d breaths", msg.Plan.Breaths)
		}

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Command)

	case components.PaletteErrorMsg:
		m.status = msg.Err.Error()

	case components.PaletteCancelMsg:
		m.status = "ready"

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "enter":
			if m.activeTab == tabRegimes {
				if r, ok := m.regimeView.Selected(); ok {
					return m, m.pacerView.Load(r)
				}
			}
		case "r":
			if m.activeTab == tabRegimes {
				return m, m.regimeView.Reload()
			}
		case " ":
			if m.activeTab == tabPacer {
				return m, m.startPacedSegment()
			}
		case "x":
			if m.activeTab == tabPacer && m.pacerView.Running() {
				m.pacerView.Stop()
				m.status = "pacer stopped"
				return m, nil
			}
		}
	}

	// Sub-views always see their own async messages; key input goes to the active tab.
	var cmd tea.Cmd
	switch msg.(type) {
	case tea.KeyMsg:
		if m.activeTab == tabRegimes {
			m.regimeView, cmd = m.regimeView.Update(msg)
		} else {
			m.pacerView, cmd = m.pacerView.Update(msg)
		}
		cmds = append(cmds, cmd)
	default:
		m.regimeView, cmd = m.regimeView.Update(msg)
		cmds = append(cmds, cmd)
		m.pacerView, cmd = m.pacerView.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabPacer:
		content = m.pacerView.View()
	default:
		content = m.regimeView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "breathtrain  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.hasActive {
		label := "● rest"
		if m.active.RegimeID != nil {
			label = fmt.Sprintf("● regime %d", *m.active.RegimeID)
		}
		left = theme.Hot.Render(label) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(cmd components.Command) (tea.Model, tea.Cmd) {
	switch cmd.Kind {
	case components.CmdEndSegment:
		m.pacerView.Stop()
		return m, m.endSegmentCmd(cmd.AvgCoherence)

	case components.CmdRestSegment:
		return m, m.startSegmentCmd(-1, true)

	case components.CmdPacerStart:
		m.activeTab = tabPacer
		return m, m.startPacedSegment()

	case components.CmdPacerStop:
		m.pacerView.Stop()
		m.status = "pacer stopped"

	case components.CmdRegimesReload:
		m.activeTab = tabRegimes
		return m, m.regimeView.Reload()
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	contentH := m.height - 4
	if contentH < 1 {
		contentH = 1
	}
	sz := tea.WindowSizeMsg{Width: m.width, Height: contentH}
	m.regimeView, _ = m.regimeView.Update(sz)
	m.pacerView, _ = m.pacerView.Update(sz)
}

func (m Model) startPacedSegment() tea.Cmd {
	if !m.pacerView.Loaded() {
		return func() tea.Msg { return segmentStartedMsg{err: fmt.Errorf("no regime loaded")} }
	}
	if m.pacerView.Running() {
		return nil
	}
	return m.startSegmentCmd(m.pacerView.RegimeID(), false)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) loadActiveCmd() tea.Cmd {
	return func() tea.Msg {
		if m.session == nil {
			return activeLoadedMsg{err: apperrors.ErrNoActiveSegment}
		}
		active, err := m.session.Active(context.Background())
		return activeLoadedMsg{active: active, err: err}
	}
}

func (m Model) startSegmentCmd(regimeID int64, rest bool) tea.Cmd {
	stage := m.regimeView.Stage()
	return func() tea.Msg {
		if m.session == nil {
			return segmentStartedMsg{err: fmt.Errorf("session adapter not configured")}
		}
		out, err := m.session.StartSegment(context.Background(), regimeID, stage)
		return segmentStartedMsg{out: out, rest: rest, err: err}
	}
}

func (m Model) endSegmentCmd(coherence float64) tea.Cmd {
	return func() tea.Msg {
		if m.session == nil {
			return segmentEndedMsg{err: fmt.Errorf("session adapter not configured")}
		}
		out, err := m.session.EndSegment(context.Background(), "", coherence)
		return segmentEndedMsg{out: out, err: err}
	}
}
