package tui

import (
	"fmt"
	"strings"

	"atlas-chat/internal/app"
)

type urlOpener interface {
	Open(url string) error
}

// SelectionController tracks the single selected node of a rendered graph.
// At most one node is selected at a time; activating another node replaces
// the selection. Selection is interaction-local state and never persisted.
type SelectionController struct {
	selected *app.Node
}

// Activate is the primary activation (click/enter) on a node.
func (c *SelectionController) Activate(n app.Node) {
	node := n
	c.selected = &node
}

// Dismiss clears the selection.
func (c *SelectionController) Dismiss() {
	c.selected = nil
}

func (c *SelectionController) Selected() (app.Node, bool) {
	if c.selected == nil {
		return app.Node{}, false
	}
	return *c.selected, true
}

// SecondaryActivate dispatches the type-conditioned side effect of a
// secondary activation. It never alters the selection and never fails:
// opening is best-effort and a node without an action is a no-op.
func SecondaryActivate(n app.Node, opener urlOpener) {
	switch n.Type {
	case app.NodeDocument:
		if n.Document != nil && n.Document.SourceURL != "" && opener != nil {
			_ = opener.Open(n.Document.SourceURL)
		}
	case app.NodeChunk:
		// Hook for an expanded chunk preview. The preview text is already
		// carried on the node; no viewer exists yet.
	case app.NodeEntity:
		// Entities have no secondary action.
	}
}

// graphPane renders a session's graph snapshot and drives cursor movement,
// selection and secondary activation over it.
type graphPane struct {
	theme  Theme
	opener urlOpener
	sel    SelectionController
	cursor int
}

func newGraphPane(theme Theme, opener urlOpener) graphPane {
	return graphPane{theme: theme, opener: opener}
}

func (g *graphPane) MoveCursor(delta int, snap *app.Snapshot) {
	n := 0
	if snap != nil {
		n = len(snap.Nodes)
	}
	if n == 0 {
		g.cursor = 0
		return
	}
	g.cursor += delta
	if g.cursor < 0 {
		g.cursor = 0
	}
	if g.cursor >= n {
		g.cursor = n - 1
	}
}

// ActivateCursor selects the node under the cursor.
func (g *graphPane) ActivateCursor(snap *app.Snapshot) {
	if snap == nil || g.cursor < 0 || g.cursor >= len(snap.Nodes) {
		return
	}
	g.sel.Activate(snap.Nodes[g.cursor])
}

// OpenSelected runs the secondary activation against the selected node, or
// the node under the cursor when nothing is selected.
func (g *graphPane) OpenSelected(snap *app.Snapshot) {
	if n, ok := g.sel.Selected(); ok {
		SecondaryActivate(n, g.opener)
		return
	}
	if snap != nil && g.cursor >= 0 && g.cursor < len(snap.Nodes) {
		SecondaryActivate(snap.Nodes[g.cursor], g.opener)
	}
}

func (g *graphPane) Dismiss() {
	g.sel.Dismiss()
}

// View renders the panel body. The caller only invokes it when the snapshot
// is present; an absent snapshot suppresses the panel entirely.
func (g *graphPane) View(snap *app.Snapshot, width, height int, focused bool) string {
	var b strings.Builder

	title := fmt.Sprintf("Graph · %d nodes · %d edges", len(snap.Nodes), len(snap.Edges))
	b.WriteString(g.theme.PaneTitle.Render(title))
	b.WriteString("\n")

	if snap.Empty() {
		b.WriteString(g.theme.Status.Render("(empty graph)"))
		return g.frame(b.String(), width, height, focused)
	}

	selected, hasSel := g.sel.Selected()
	for i, n := range snap.Nodes {
		style := g.theme.NodeStyle(app.ClassFor(n))
		marker := "  "
		if focused && i == g.cursor {
			marker = g.theme.NodeCursor.Render("> ")
		}
		label := style.Render("● " + n.Label)
		if hasSel && selected.ID == n.ID {
			label += g.theme.Status.Render(" [selected]")
		}
		b.WriteString(marker + label + "\n")
	}

	if len(snap.Edges) > 0 {
		b.WriteString("\n")
		for _, e := range snap.Edges {
			line := fmt.Sprintf("%s —%s→ %s", e.Source, e.Label, e.Target)
			b.WriteString("  " + g.theme.EdgeLabel.Render(line) + "\n")
		}
	}

	if hasSel {
		b.WriteString("\n")
		b.WriteString(g.detailCard(selected))
	}

	return g.frame(b.String(), width, height, focused)
}

// detailCard shows the attribute variant matching the node's type.
func (g *graphPane) detailCard(n app.Node) string {
	var b strings.Builder
	b.WriteString(g.theme.PaneTitle.Render(n.Label))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", g.theme.Detail.Render("type: "+displayType(n)))
	switch {
	case n.Document != nil:
		url := n.Document.SourceURL
		if url == "" {
			url = "(no source url)"
		}
		b.WriteString(g.theme.Detail.Render("source: " + url))
	case n.Chunk != nil:
		fmt.Fprintf(&b, "%s\n", g.theme.Detail.Render(fmt.Sprintf("ordinal: %d", n.Chunk.Ord)))
		if n.Chunk.Preview != "" {
			b.WriteString(g.theme.Detail.Render(n.Chunk.Preview))
		}
	case n.Entity != nil:
		b.WriteString(g.theme.Detail.Render("name: " + n.Entity.Name))
	}
	b.WriteString("\n")
	b.WriteString(g.theme.Footer.Render("esc dismiss · o open"))
	return b.String()
}

func displayType(n app.Node) string {
	if n.Type == app.NodeUnknown {
		return "unknown"
	}
	if n.Type == app.NodeEntity && n.EntityType != "" {
		return fmt.Sprintf("entity (%s)", n.EntityType)
	}
	return string(n.Type)
}

func (g *graphPane) frame(content string, width, height int, focused bool) string {
	pane := g.theme.Pane
	if focused {
		pane = g.theme.PaneFocused
	}
	return pane.Width(width).Height(height).Render(clipLines(content, height))
}

func clipLines(s string, max int) string {
	if max <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	return strings.Join(lines[:max], "\n")
}
