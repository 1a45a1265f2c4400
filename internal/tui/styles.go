package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/lox/when/internal/game"
)

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true)

	LogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	CardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	YearStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	SlotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

var (
	glowBase, _ = colorful.Hex("#FAFAFA")
	glowGold, _ = colorful.Hex("#FFD700")
)

// GlowColor shades a player's name by the glow of their streak tier: white,
// halfway to gold, then gold.
func GlowColor(tier game.StreakTier) lipgloss.Color {
	switch tier.Glow() {
	case "golden":
		return lipgloss.Color(glowGold.Hex())
	case "bright":
		return lipgloss.Color(glowBase.BlendLuv(glowGold, 0.5).Clamped().Hex())
	default:
		return lipgloss.Color(glowBase.Hex())
	}
}
