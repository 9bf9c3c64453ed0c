package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"

	"atlas-chat/internal/app"
)

type Theme struct {
	TextPrimary lipgloss.AdaptiveColor
	TextMuted   lipgloss.AdaptiveColor
	Accent      lipgloss.AdaptiveColor
	Border      lipgloss.AdaptiveColor
	BorderHi    lipgloss.AdaptiveColor

	TopBar      lipgloss.Style
	TopBarTitle lipgloss.Style
	Pane        lipgloss.Style
	PaneFocused lipgloss.Style
	PaneTitle   lipgloss.Style
	Footer      lipgloss.Style
	InputBox    lipgloss.Style
	InputBoxF   lipgloss.Style
	Spinner     lipgloss.Style

	RoleYou lipgloss.Style
	RoleAI  lipgloss.Style
	Status  lipgloss.Style

	SessionActive lipgloss.Style
	SessionIdle   lipgloss.Style

	EdgeLabel  lipgloss.Style
	NodeCursor lipgloss.Style
	Detail     lipgloss.Style

	nodeStyles map[app.VisualClass]lipgloss.Style
}

// NodeStyle maps a visual class to its rendering style. Unknown classes get
// the neutral style, so a half-malformed payload still renders.
func (t Theme) NodeStyle(class app.VisualClass) lipgloss.Style {
	if s, ok := t.nodeStyles[class]; ok {
		return s
	}
	return t.nodeStyles[app.ClassNeutral]
}

func NewTheme() Theme {
	if os.Getenv("ATLAS_NO_COLOR") == "1" {
		return newNoColorTheme()
	}

	t := Theme{
		TextPrimary: lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#E6E6E6"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Accent:      lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#7AA2F7"},
		Border:      lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#3B4252"},
		BorderHi:    lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#7AA2F7"},
	}

	t.TopBar = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.TopBarTitle = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.Pane = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border)
	t.PaneFocused = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.BorderHi)
	t.PaneTitle = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)
	t.Footer = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.InputBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border)
	t.InputBoxF = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.BorderHi)
	t.Spinner = lipgloss.NewStyle().Foreground(t.Accent)

	t.RoleYou = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.RoleAI = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#059669", Dark: "#50FA7B"})
	t.Status = lipgloss.NewStyle().Foreground(t.TextMuted).Italic(true)

	t.SessionActive = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.SessionIdle = lipgloss.NewStyle().Foreground(t.TextPrimary)

	t.EdgeLabel = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.NodeCursor = lipgloss.NewStyle().Bold(true)
	t.Detail = lipgloss.NewStyle().Foreground(t.TextMuted)

	// Entity coloring follows the backend's taxonomy: people green,
	// organizations orange, technologies purple, locations red,
	// concepts yellow.
	t.nodeStyles = map[app.VisualClass]lipgloss.Style{
		app.ClassDocument:           lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#8BE9FD"}),
		app.ClassChunk:              lipgloss.NewStyle().Foreground(t.TextMuted),
		app.ClassEntity:             lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#66D9EF"}),
		app.ClassEntityPerson:       lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#059669", Dark: "#50FA7B"}),
		app.ClassEntityOrganization: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FFB86C"}),
		app.ClassEntityTechnology:   lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#BD93F9"}),
		app.ClassEntityLocation:     lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#FF5555"}),
		app.ClassEntityConcept:      lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#CA8A04", Dark: "#F1FA8C"}),
		app.ClassNeutral:            lipgloss.NewStyle().Foreground(t.TextPrimary),
	}

	return t
}

func newNoColorTheme() Theme {
	plain := lipgloss.NewStyle()
	t := Theme{
		TopBar:        plain,
		TopBarTitle:   plain.Bold(true),
		Pane:          plain.Border(lipgloss.NormalBorder()),
		PaneFocused:   plain.Border(lipgloss.ThickBorder()),
		PaneTitle:     plain.Bold(true),
		Footer:        plain,
		InputBox:      plain.Border(lipgloss.NormalBorder()),
		InputBoxF:     plain.Border(lipgloss.ThickBorder()),
		Spinner:       plain,
		RoleYou:       plain.Bold(true),
		RoleAI:        plain.Bold(true),
		Status:        plain,
		SessionActive: plain.Bold(true),
		SessionIdle:   plain,
		EdgeLabel:     plain,
		NodeCursor:    plain.Bold(true),
		Detail:        plain,
		nodeStyles:    map[app.VisualClass]lipgloss.Style{app.ClassNeutral: plain},
	}
	return t
}
