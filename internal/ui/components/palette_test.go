package components_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breathtrain/internal/ui/components"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		line    string
		want    components.Command
		wantErr string
	}{
		{name: "end segment", line: "segment:end 1.25", want: components.Command{Kind: components.CmdEndSegment, AvgCoherence: 1.25}},
		{name: "extra spaces", line: "  segment:end   0.5 ", want: components.Command{Kind: components.CmdEndSegment, AvgCoherence: 0.5}},
		{name: "upper case name", line: "PACER:START", want: components.Command{Kind: components.CmdPacerStart}},
		{name: "rest", line: "segment:rest", want: components.Command{Kind: components.CmdRestSegment}},
		{name: "reload", line: "regimes:reload", want: components.Command{Kind: components.CmdRegimesReload}},
		{name: "missing coherence", line: "segment:end", wantErr: "usage: segment:end <avg-coherence>"},
		{name: "extra argument", line: "pacer:stop now", wantErr: "usage: pacer:stop"},
		{name: "not a number", line: "segment:end high", wantErr: "finite number"},
		{name: "nan coherence", line: "segment:end NaN", wantErr: "finite number"},
		{name: "inf coherence", line: "segment:end +Inf", wantErr: "finite number"},
		{name: "unknown", line: "session:start", wantErr: "unknown command: session:start"},
		{name: "empty", line: "   ", wantErr: "empty command"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := components.ParseCommand(tc.line)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func typeInto(p components.Palette, s string) components.Palette {
	for _, r := range s {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return p
}

func TestPaletteSubmitEmitsParsedCommand(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	p.Open()
	p = typeInto(p, "segment:end 2")

	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, p.Visible())
	assert.Equal(t, components.PaletteSubmitMsg{Command: components.Command{Kind: components.CmdEndSegment, AvgCoherence: 2}}, cmd())
}

func TestPaletteSubmitReportsParseError(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	p.Open()
	p = typeInto(p, "segment:end")

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(components.PaletteErrorMsg)
	require.True(t, ok)
	assert.Contains(t, msg.Err.Error(), "usage")
}

func TestPaletteEmptySubmitCancels(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	p.Open()
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, components.PaletteCancelMsg{}, cmd())
}

func TestPaletteTabCompletesUniqueCommand(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	p.Open()
	p = typeInto(p, "segment:e")
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	p = typeInto(p, "3")

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, components.PaletteSubmitMsg{Command: components.Command{Kind: components.CmdEndSegment, AvgCoherence: 3}}, cmd())
}

func TestPaletteTabLeavesAmbiguousPrefix(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	p.Open()
	p = typeInto(p, "pacer:")
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})

	view := p.View()
	assert.Contains(t, view, "pacer:start")
	assert.Contains(t, view, "pacer:stop")
	assert.NotContains(t, view, "segment:rest")
}

func TestPaletteViewFlagsUnknownCommand(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	p.Open()
	p = typeInto(p, "xyz")
	assert.Contains(t, p.View(), "no matching command")
}
