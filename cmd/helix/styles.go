package main

import "github.com/charmbracelet/lipgloss"

// chatStyles holds the lipgloss styles for the interactive chat.
type chatStyles struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color

	Header    lipgloss.Style
	Badge     lipgloss.Style
	Muted     lipgloss.Style
	Bold      lipgloss.Style
	Prompt    lipgloss.Style
	UserInput lipgloss.Style
	Assistant lipgloss.Style
	Sequence  lipgloss.Style
	StepNum   lipgloss.Style
	Spinner   lipgloss.Style
	Content   lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
}

func defaultStyles() chatStyles {
	primary := lipgloss.Color("63")  // indigo
	accent := lipgloss.Color("212")  // pink
	muted := lipgloss.Color("241")   // gray
	errRed := lipgloss.Color("196")  // red
	okGreen := lipgloss.Color("42")  // green
	warnYel := lipgloss.Color("214") // amber

	return chatStyles{
		Primary: primary,
		Accent:  accent,

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(primary).
			Padding(0, 1),
		Badge: lipgloss.NewStyle().
			Foreground(muted),
		Muted: lipgloss.NewStyle().
			Foreground(muted),
		Bold: lipgloss.NewStyle().
			Bold(true),
		Prompt: lipgloss.NewStyle().
			Foreground(accent),
		UserInput: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Assistant: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Sequence: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(primary).
			PaddingLeft(1),
		StepNum: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),
		Spinner: lipgloss.NewStyle().
			Foreground(accent),
		Content: lipgloss.NewStyle().
			Padding(0, 2),
		Error: lipgloss.NewStyle().
			Foreground(errRed),
		Success: lipgloss.NewStyle().
			Foreground(okGreen),
		Warning: lipgloss.NewStyle().
			Foreground(warnYel),
	}
}
