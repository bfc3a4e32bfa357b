package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Shared colours.
const (
	ColorAccent = lipgloss.Color("5")
	ColorHeader = lipgloss.Color("12")
	ColorLabel  = lipgloss.Color("6")
	ColorMuted  = lipgloss.Color("8")
	ColorError  = lipgloss.Color("9")
	ColorValue  = lipgloss.Color("15")
)

// Terminal size assumed until the first tea.WindowSizeMsg arrives.
const (
	defaultWidth  = 100
	defaultHeight = 24
)

var (
	TitleStyle    = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	HeaderStyle   = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	LabelStyle    = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle    = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	ErrorStyle    = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	SelectedStyle = lipgloss.NewStyle().Reverse(true)
	BoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorMuted).Padding(0, 1)
)

const notAvailable = "N/A"

var printer = message.NewPrinter(language.English)

// formatPopulation renders n with thousands separators.
func formatPopulation(n int64) string {
	return printer.Sprintf("%d", n)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

// fit pads or truncates s to exactly width runes.
func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		if width <= 1 {
			return string(r[:width])
		}
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}

// fitRight is fit with the text right-aligned.
func fitRight(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return fit(s, width)
	}
	return strings.Repeat(" ", width-len(r)) + s
}
