package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Quit       key.Binding
	Enter      key.Binding
	FocusNext  key.Binding
	NewChat    key.Binding
	Dismiss    key.Binding
	OpenNode   key.Binding
	ClearGraph key.Binding
	Help       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send / select"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss selection"),
		),
		OpenNode: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open node source"),
		),
		ClearGraph: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear graph"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "help"),
		),
	}
}

type helpModel struct {
	keys  keyMap
	theme Theme
}

func newHelpModel(theme Theme) helpModel {
	return helpModel{keys: defaultKeyMap(), theme: theme}
}

func (h helpModel) View() string {
	var b strings.Builder

	b.WriteString(h.theme.TopBarTitle.Render("atlas help"))
	b.WriteString("\n\n")

	b.WriteString(h.theme.PaneTitle.Render("keys"))
	b.WriteString("\n")
	for _, k := range []key.Binding{
		h.keys.Enter, h.keys.FocusNext, h.keys.NewChat,
		h.keys.Dismiss, h.keys.OpenNode, h.keys.ClearGraph, h.keys.Quit,
	} {
		fmt.Fprintf(&b, "  %-8s %s\n", k.Help().Key, k.Help().Desc)
	}

	b.WriteString("\n")
	b.WriteString(h.theme.PaneTitle.Render("commands"))
	b.WriteString("\n")
	b.WriteString("  /new               start a new chat\n")
	b.WriteString("  /entities <query>  search with entity annotations\n")
	b.WriteString("  /graph <name>      load the subgraph around an entity\n")
	b.WriteString("  /clear-graph       clear this chat's graph panel\n")
	b.WriteString("  /help              show this help\n")

	b.WriteString("\n")
	b.WriteString(h.theme.Footer.Render("press any key to close"))
	return b.String()
}

func (h helpModel) FooterLine() string {
	return h.theme.Footer.Render("enter send | tab pane | ctrl+n new chat | ctrl+h help | ctrl+c quit")
}
