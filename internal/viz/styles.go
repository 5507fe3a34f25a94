package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

type styles struct {
	header      lipgloss.Style
	panel       lipgloss.Style
	label       lipgloss.Style
	value       lipgloss.Style
	activeParam lipgloss.Style
	help        lipgloss.Style
	running     lipgloss.Style
	paused      lipgloss.Style
	failed      lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		header:      lipgloss.NewStyle().Foreground(t.Accent).Bold(true).MarginBottom(1),
		panel:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Muted).Padding(0, 1),
		label:       lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:       lipgloss.NewStyle().Foreground(t.Text),
		activeParam: lipgloss.NewStyle().Foreground(t.Target).Bold(true),
		help:        lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		running:     lipgloss.NewStyle().Foreground(t.Measured).Bold(true),
		paused:      lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		failed:      lipgloss.NewStyle().Foreground(t.Error).Bold(true),
	}
}

// seriesColor maps a theme color onto the nearest asciigraph palette entry
// for the 256-color codes the default theme uses.
func seriesColor(c lipgloss.Color) asciigraph.AnsiColor {
	switch c {
	case "205":
		return asciigraph.HotPink
	case "49":
		return asciigraph.MediumSpringGreen
	case "#888888":
		return asciigraph.Gray
	case "#88ff88":
		return asciigraph.LightGreen
	case "#00ff00":
		return asciigraph.Lime
	}
	return asciigraph.Default
}

// ProgressBar renders fraction done as a fixed-width bar.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Sparkline renders the last width values with block characters scaled
// to their own range.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	rng := max - min
	if rng == 0 {
		rng = 1
	}

	var result strings.Builder
	for _, v := range values {
		idx := int((v - min) / rng * float64(len(chars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		result.WriteRune(chars[idx])
	}
	return result.String()
}
