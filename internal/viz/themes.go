package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the live view.
type Theme struct {
	Name     string
	Target   lipgloss.Color
	Measured lipgloss.Color
	Accent   lipgloss.Color
	Text     lipgloss.Color
	Muted    lipgloss.Color
	Warning  lipgloss.Color
	Error    lipgloss.Color
}

var (
	ThemeDefault = Theme{
		Name:     "default",
		Target:   lipgloss.Color("205"),
		Measured: lipgloss.Color("49"),
		Accent:   lipgloss.Color("86"),
		Text:     lipgloss.Color("252"),
		Muted:    lipgloss.Color("240"),
		Warning:  lipgloss.Color("214"),
		Error:    lipgloss.Color("196"),
	}

	ThemeRetro = Theme{
		Name:     "retro",
		Target:   lipgloss.Color("#88ff88"),
		Measured: lipgloss.Color("#00ff00"), // green phosphor
		Accent:   lipgloss.Color("#00cc00"),
		Text:     lipgloss.Color("#00ff00"),
		Muted:    lipgloss.Color("#005500"),
		Warning:  lipgloss.Color("#ffff00"),
		Error:    lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:     "minimal",
		Target:   lipgloss.Color("#888888"),
		Measured: lipgloss.Color("#ffffff"),
		Accent:   lipgloss.Color("#0088ff"),
		Text:     lipgloss.Color("#ffffff"),
		Muted:    lipgloss.Color("#888888"),
		Warning:  lipgloss.Color("#ffaa00"),
		Error:    lipgloss.Color("#ff0000"),
	}

	Themes = []Theme{ThemeDefault, ThemeRetro, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeDefault
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
