package tui

import "github.com/charmbracelet/lipgloss"

type uiTheme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	footer      lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	inputPanel  lipgloss.Style
	helpText    lipgloss.Style
	rowKey      lipgloss.Style
	rowValue    lipgloss.Style
	rowPick     lipgloss.Style
	modalFrame  lipgloss.Style
	accent      lipgloss.Style
	user        lipgloss.Style
	council     lipgloss.Style
	member      lipgloss.Style
	chairman    lipgloss.Style
	stageLabel  lipgloss.Style
	severity    map[string]lipgloss.Style
}

func newTheme() uiTheme {
	pink := lipgloss.Color("#ff71ce")
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	amber := lipgloss.Color("#ffd166")
	bg := lipgloss.Color("#120924")
	panelBg := lipgloss.Color("#1b0f35")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		tabActive: lipgloss.NewStyle().
			Background(pink).
			Foreground(lipgloss.Color("#22062f")).
			Bold(true).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#2a184a")).
			Foreground(muted).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(pink).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mint).
			Padding(0, 1),
		helpText: lipgloss.NewStyle().Foreground(muted),
		rowKey:   lipgloss.NewStyle().Foreground(blue),
		rowValue: lipgloss.NewStyle().Foreground(text),
		rowPick:  lipgloss.NewStyle().Foreground(pink).Bold(true),
		modalFrame: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(blue).
			Padding(1, 2),
		accent:     lipgloss.NewStyle().Foreground(mint).Bold(true),
		user:       lipgloss.NewStyle().Foreground(mint).Bold(true),
		council:    lipgloss.NewStyle().Foreground(pink).Bold(true),
		member:     lipgloss.NewStyle().Foreground(blue).Bold(true),
		chairman:   lipgloss.NewStyle().Foreground(amber).Bold(true),
		stageLabel: lipgloss.NewStyle().Foreground(muted).Bold(true),
		severity: map[string]lipgloss.Style{
			"P0-FIRE":   lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4d6d")).Bold(true),
			"P1-URGENT": lipgloss.NewStyle().Foreground(amber).Bold(true),
			"P2-NORMAL": lipgloss.NewStyle().Foreground(blue),
			"P3-LOW":    lipgloss.NewStyle().Foreground(muted),
		},
	}
}

func (t uiTheme) severityStyle(severity string) lipgloss.Style {
	if style, ok := t.severity[severity]; ok {
		return style
	}
	return t.helpText
}
