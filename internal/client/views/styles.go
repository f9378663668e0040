// Package views renders the storefront widgets for the terminal. Each widget
// reads the shared session, cache or gate it was constructed with; none of
// them hold cart state of their own.
package views

import "github.com/charmbracelet/lipgloss"

var (
	colorBrand   = lipgloss.Color("#005BFF")
	colorBadge   = lipgloss.Color("#F91155")
	colorPrice   = lipgloss.Color("#10C44C")
	colorMuted   = lipgloss.Color("#707F8D")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
)

var styles = struct {
	Logo      lipgloss.Style
	NavItem   lipgloss.Style
	Badge     lipgloss.Style
	BadgeWide lipgloss.Style
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Price     lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Success   lipgloss.Style
	Card      lipgloss.Style
	Dialog    lipgloss.Style
	Button    lipgloss.Style
}{
	Logo:      lipgloss.NewStyle().Bold(true).Foreground(colorBrand),
	NavItem:   lipgloss.NewStyle().PaddingLeft(2),
	Badge:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(colorBadge),
	BadgeWide: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(colorBadge).Padding(0, 1),
	Title:     lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(colorMuted),
	Price:     lipgloss.NewStyle().Bold(true).Foreground(colorPrice),
	Error:     lipgloss.NewStyle().Foreground(colorError),
	Warning:   lipgloss.NewStyle().Foreground(colorWarning),
	Success:   lipgloss.NewStyle().Foreground(colorPrice),
	Card: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1).
		Width(cardWidth),
	Dialog: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBrand).
		Padding(0, 1),
	Button: lipgloss.NewStyle().Foreground(colorBrand),
}
