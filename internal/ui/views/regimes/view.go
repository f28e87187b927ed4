package regimes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	regimedomain "breathtrain/internal/modules/regime/domain"
	sessiondto "breathtrain/internal/modules/session/dto"
	"breathtrain/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type SessionPort interface {
	Regimes(ctx context.Context, condition string, stage int) (sessiondto.SessionOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Session sessiondto.SessionOutput
	Err     error
}

// ─── list item ───────────────────────────────────────────────────────────────

type regimeItem struct {
	slot   int
	regime regimedomain.Regime
}

func (i regimeItem) Title() string {
	return fmt.Sprintf("%d. %.2f breaths/min", i.slot, i.regime.BreathsPerMinute)
}

func (i regimeItem) Description() string {
	parts := []string{(time.Duration(i.regime.DurationMs) * time.Millisecond).String()}
	if i.regime.Randomize {
		parts = append(parts, "randomized")
	}
	if i.regime.HoldPos != regimedomain.HoldNone {
		parts = append(parts, "hold "+string(i.regime.HoldPos))
	}
	return strings.Join(parts, "  ")
}

func (i regimeItem) FilterValue() string { return fmt.Sprintf("%.2f", i.regime.BreathsPerMinute) }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port      SessionPort
	condition string
	stage     int
	list      list.Model
	spinner   spinner.Model
	session   sessiondto.SessionOutput
	loading   bool
	err       error
	width     int
	height    int
}

func New(port SessionPort, condition string, stage int) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Today"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:      port,
		condition: condition,
		stage:     stage,
		list:      l,
		spinner:   sp,
		loading:   true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

// Reload asks for the regimes still pending in today's session.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{Err: fmt.Errorf("session adapter not configured")}
		}
		out, err := m.port.Regimes(context.Background(), m.condition, m.stage)
		return LoadedMsg{Session: out, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width*4/10, m.height)

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil {
			m.list.Title = "Today: " + msg.Err.Error()
			return m, nil
		}
		m.session = msg.Session
		m.list.Title = "Today " + msg.Session.Date
		items := make([]list.Item, len(msg.Session.Regimes))
		for i, r := range msg.Session.Regimes {
			items[i] = regimeItem{slot: i + 1, regime: r}
		}
		cmds = append(cmds, m.list.SetItems(items))

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading today's regimes…")
	}
	listW := m.width * 4 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.renderDetail())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Selected returns the highlighted regime, if any.
func (m Model) Selected() (regimedomain.Regime, bool) {
	if item, ok := m.list.SelectedItem().(regimeItem); ok {
		return item.regime, true
	}
	return regimedomain.Regime{}, false
}

func (m Model) Stage() int { return m.stage }

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) renderDetail() string {
	if m.err != nil {
		return theme.Error.Render(m.err.Error())
	}
	s := m.session
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(fmt.Sprintf("Condition %s  stage %d", m.condition, m.stage)) + "\n\n")
	sb.WriteString(theme.Muted.Render("date:      ") + s.Date + "\n")
	sb.WriteString(theme.Muted.Render("pending:   ") + fmt.Sprintf("%d", len(s.Regimes)) + "\n")
	sb.WriteString(theme.Muted.Render("available: ") + (time.Duration(s.AvailableMs) * time.Millisecond).String() + "\n")
	if s.Generated {
		sb.WriteString(theme.Muted.Render("assigned:  ") + "just now\n")
	}
	if len(s.Regimes) == 0 {
		sb.WriteString("\n" + theme.Hot.Render("Nothing left for today."))
	}
	if r, ok := m.Selected(); ok {
		sb.WriteString(fmt.Sprintf("\n%s%d\n", theme.Muted.Render("regime id: "), r.ID))
	}
	sb.WriteString("\n" + theme.Muted.Render("enter: load in pacer  r: reload"))
	return sb.String()
}
