package components

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"breathtrain/internal/ui/theme"
)

// CommandKind identifies a palette action.
type CommandKind int

const (
	CmdEndSegment CommandKind = iota + 1
	CmdRestSegment
	CmdPacerStart
	CmdPacerStop
	CmdRegimesReload
)

// Command is a parsed palette entry. AvgCoherence is set for CmdEndSegment only.
type Command struct {
	Kind         CommandKind
	AvgCoherence float64
}

// PaletteSubmitMsg is emitted when the user confirms a valid command.
type PaletteSubmitMsg struct{ Command Command }

// PaletteErrorMsg is emitted when the submitted line does not parse.
type PaletteErrorMsg struct{ Err error }

// PaletteCancelMsg is emitted when the user presses esc or submits an empty line.
type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

type commandSpec struct {
	name  string
	usage string
	kind  CommandKind
	args  int
}

var commandTable = []commandSpec{
	{name: "segment:end", usage: "<avg-coherence>", kind: CmdEndSegment, args: 1},
	{name: "segment:rest", kind: CmdRestSegment},
	{name: "pacer:start", kind: CmdPacerStart},
	{name: "pacer:stop", kind: CmdPacerStop},
	{name: "regimes:reload", kind: CmdRegimesReload},
}

func (c commandSpec) hint() string {
	if c.usage == "" {
		return c.name
	}
	return c.name + " " + c.usage
}

// ParseCommand turns a palette line into a Command.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	name := strings.ToLower(fields[0])
	for _, spec := range commandTable {
		if spec.name != name {
			continue
		}
		args := fields[1:]
		if len(args) != spec.args {
			return Command{}, fmt.Errorf("usage: %s", spec.hint())
		}
		cmd := Command{Kind: spec.kind}
		if spec.kind == CmdEndSegment {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return Command{}, fmt.Errorf("avg coherence must be a finite number, got %q", args[0])
			}
			cmd.AvgCoherence = v
		}
		return cmd, nil
	}
	return Command{}, fmt.Errorf("unknown command: %s", fields[0])
}

// matchingCommands returns table entries whose name starts with the typed
// command word. Once arguments are typed only the exact name matches.
func matchingCommands(line string) []commandSpec {
	word := strings.ToLower(strings.TrimLeft(line, " "))
	exact := false
	if i := strings.IndexByte(word, ' '); i >= 0 {
		word, exact = word[:i], true
	}
	var out []commandSpec
	for _, spec := range commandTable {
		if (exact && spec.name == word) || (!exact && strings.HasPrefix(spec.name, word)) {
			out = append(out, spec)
		}
	}
	return out
}

// Palette is a command-palette overlay backed by bubbles/textinput.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
}

// NewPalette creates an inactive Palette ready to be opened.
func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "type a command…"
	ti.CharLimit = 64
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows the palette, clears the input, and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "tab":
			// complete a unique command name and leave room for its argument
			if m := matchingCommands(p.input.Value()); len(m) == 1 && !strings.Contains(p.input.Value(), " ") {
				v := m[0].name
				if m[0].args > 0 {
					v += " "
				}
				p.input.SetValue(v)
				p.input.CursorEnd()
			}
			return p, nil
		case "enter":
			line := strings.TrimSpace(p.input.Value())
			p.close()
			if line == "" {
				return p, func() tea.Msg { return PaletteCancelMsg{} }
			}
			cmd, err := ParseCommand(line)
			if err != nil {
				return p, func() tea.Msg { return PaletteErrorMsg{Err: err} }
			}
			return p, func() tea.Msg { return PaletteSubmitMsg{Command: cmd} }
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	value := p.input.Value()
	matching := matchingCommands(value)

	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command Palette") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	switch {
	case len(matching) > 0:
		sb.WriteString("\n")
		for _, spec := range matching {
			sb.WriteString(hintStyle.Render("  "+spec.hint()) + "\n")
		}
	case strings.TrimSpace(value) != "":
		sb.WriteString("\n" + theme.Error.Render("  no matching command") + "\n")
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}
