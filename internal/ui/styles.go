package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}).
			Padding(1, 4)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	promptStyle  = lipgloss.NewStyle().Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

// lockSymbol falls back to plain text where the terminal can't render emojis.
func lockSymbol() string {
	if os.Getenv("XDG_SESSION_TYPE") == "tty" {
		return "[locked]"
	}

	switch lipgloss.ColorProfile() {
	case termenv.ANSI, termenv.Ascii:
		return "[locked]"
	default:
		return "🔒"
	}
}

func attemptsText(n int) string {
	if n == 1 {
		return "1 failed attempt"
	}
	return fmt.Sprintf("%d failed attempts", n)
}
