package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Canvas   lipgloss.Style
	Curve    lipgloss.Style
	Panel    lipgloss.Style
	Header   lipgloss.Style
	Section  lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Selected lipgloss.Style
	Graph    lipgloss.Style
	Help     lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Canvas: lipgloss.NewStyle().Foreground(t.Trail).Padding(1, 2),
		Curve:  lipgloss.NewStyle().Foreground(t.Curve),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Border).
			Padding(1, 2).
			Width(46),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		Section:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent).MarginTop(1),
		Label:    lipgloss.NewStyle().Foreground(t.Muted).Width(13),
		Value:    lipgloss.NewStyle().Foreground(t.Text),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Graph:    lipgloss.NewStyle().Foreground(t.Trail).Padding(1, 0),
		Help:     lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		Warning:  lipgloss.NewStyle().Foreground(t.Warning),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

// Bar renders ratio in [0,1] as a fixed-width gauge.
func Bar(ratio float64, width int) string {
	if ratio > 1 {
		ratio = 1
	} else if ratio < 0 || ratio != ratio {
		ratio = 0
	}
	filled := int(ratio*float64(width) + 0.5)
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}
