package pacer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	pacerdomain "breathtrain/internal/modules/pacer/domain"
	pacerdto "breathtrain/internal/modules/pacer/dto"
	regimedomain "breathtrain/internal/modules/regime/domain"
	"breathtrain/internal/ui/theme"
)

const tickInterval = 50 * time.Millisecond

// ─── port ────────────────────────────────────────────────────────────────────

type PacerPort interface {
	Plan(ctx context.Context, input pacerdto.BreathsInput) (pacerdto.BreathPlan, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type PlanLoadedMsg struct {
	Plan pacerdto.BreathPlan
	Err  error
}

// FinishedMsg is emitted once the last phase of a running plan has elapsed.
type FinishedMsg struct {
	RegimeID int64
}

type tickMsg time.Time

// ─── position ────────────────────────────────────────────────────────────────

// Position locates elapsedMs inside phases. Fraction is how far into the
// current phase the clock is, in [0, 1). Done is set once every phase has elapsed.
type Position struct {
	Index    int
	Fraction float64
	Breath   int
	Done     bool
}

func PositionAt(phases []pacerdomain.BreathPhase, elapsedMs float64) Position {
	var start float64
	breath := 0
	for i, p := range phases {
		if p.BreathType == pacerdomain.Inhale {
			breath++
		}
		end := start + p.DurationMs
		if elapsedMs < end {
			frac := 0.0
			if p.DurationMs > 0 {
				frac = (elapsedMs - start) / p.DurationMs
			}
			if frac < 0 {
				frac = 0
			}
			return Position{Index: i, Fraction: frac, Breath: breath}
		}
		start = end
	}
	return Position{Index: len(phases) - 1, Fraction: 1, Breath: breath, Done: true}
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port      PacerPort
	plan      pacerdto.BreathPlan
	loaded    bool
	running   bool
	startedAt time.Time
	elapsed   time.Duration
	breath    progress.Model
	overall   progress.Model
	err       error
	width     int
	height    int
}

func New(port PacerPort) Model {
	return Model{
		port:    port,
		breath:  progress.New(progress.WithSolidFill(string(theme.Sapphire)), progress.WithoutPercentage()),
		overall: progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd { return nil }

// Load asks the pacer for a fresh breath plan for regime.
func (m Model) Load(regime regimedomain.Regime) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return PlanLoadedMsg{Err: fmt.Errorf("pacer adapter not configured")}
		}
		plan, err := m.port.Plan(context.Background(), pacerdto.BreathsInput{
			RegimeID:         regime.ID,
			DurationMs:       regime.DurationMs,
			BreathsPerMinute: regime.BreathsPerMinute,
			HoldPos:          string(regime.HoldPos),
			Randomize:        regime.Randomize,
		})
		return PlanLoadedMsg{Plan: plan, Err: err}
	}
}

// Start runs the loaded plan from now.
func (m *Model) Start() tea.Cmd {
	if !m.loaded || m.running {
		return nil
	}
	m.running = true
	m.startedAt = time.Now()
	m.elapsed = 0
	return tick()
}

func (m *Model) Stop() {
	m.running = false
}

func (m Model) Running() bool { return m.running }

func (m Model) Loaded() bool { return m.loaded }

func (m Model) RegimeID() int64 { return m.plan.Regime.ID }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 8
		if w > 72 {
			w = 72
		}
		if w < 10 {
			w = 10
		}
		m.breath.Width = w
		m.overall.Width = w

	case PlanLoadedMsg:
		m.running = false
		m.err = msg.Err
		if msg.Err == nil {
			m.plan = msg.Plan
			m.loaded = true
			m.elapsed = 0
		}

	case tickMsg:
		if !m.running {
			return m, nil
		}
		m.elapsed = time.Time(msg).Sub(m.startedAt)
		if PositionAt(m.plan.Phases, float64(m.elapsed.Milliseconds())).Done {
			m.running = false
			id := m.plan.Regime.ID
			return m, func() tea.Msg { return FinishedMsg{RegimeID: id} }
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	if m.err != nil {
		return theme.Pane.Render(theme.Error.Render("pacer: " + m.err.Error()))
	}
	if !m.loaded {
		return theme.Pane.Render(theme.Muted.Render("Select a regime and press enter to load it."))
	}

	r := m.plan.Regime
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(fmt.Sprintf("%.2f breaths/min", r.BreathsPerMinute)))
	if r.Randomize {
		sb.WriteString(theme.Muted.Render("  randomized"))
	}
	if r.HoldPos != regimedomain.HoldNone {
		sb.WriteString(theme.Muted.Render("  hold " + string(r.HoldPos)))
	}
	sb.WriteString("\n\n")

	pos := PositionAt(m.plan.Phases, float64(m.elapsed.Milliseconds()))
	if len(m.plan.Phases) > 0 {
		phase := m.plan.Phases[pos.Index]
		fill := pos.Fraction
		label := theme.Inhale.Render("Breathe in")
		switch phase.BreathType {
		case pacerdomain.Hold:
			label = theme.Hold.Render("Hold")
			fill = 1
		case pacerdomain.Exhale:
			label = theme.Exhale.Render("Breathe out")
			fill = 1 - pos.Fraction
		}
		if !m.running {
			label = theme.Muted.Render("Ready - press space to start")
			fill = 0
		}
		sb.WriteString(label + "\n")
		sb.WriteString(m.breath.ViewAs(fill) + "\n\n")
	}

	total := m.plan.TotalDurationMs
	done := 0.0
	if total > 0 {
		done = float64(m.elapsed.Milliseconds()) / total
		if done > 1 {
			done = 1
		}
	}
	remaining := time.Duration(total)*time.Millisecond - m.elapsed
	if remaining < 0 {
		remaining = 0
	}
	sb.WriteString(m.overall.ViewAs(done) + "\n")
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("breath %d/%d  remaining %s",
		pos.Breath, m.plan.Breaths, remaining.Round(time.Second))))

	return lipgloss.NewStyle().Width(m.width).Render(theme.Pane.Render(sb.String()))
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
