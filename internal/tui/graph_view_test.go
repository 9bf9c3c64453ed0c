package tui

import (
	"testing"

	"atlas-chat/internal/app"
)

type recordingOpener struct {
	opened []string
}

func (r *recordingOpener) Open(url string) error {
	r.opened = append(r.opened, url)
	return nil
}

func TestAtMostOneSelection(t *testing.T) {
	var c SelectionController

	if _, ok := c.Selected(); ok {
		t.Fatalf("fresh controller must have no selection")
	}

	nodes := []app.Node{
		{ID: "a", Label: "A", Type: app.NodeEntity},
		{ID: "b", Label: "B", Type: app.NodeDocument},
		{ID: "c", Label: "C", Type: app.NodeChunk},
	}
	for _, n := range nodes {
		c.Activate(n)
	}

	got, ok := c.Selected()
	if !ok {
		t.Fatalf("expected a selection after activations")
	}
	if got.ID != "c" {
		t.Fatalf("selection must equal the last activated node, got %q", got.ID)
	}

	c.Dismiss()
	if _, ok := c.Selected(); ok {
		t.Fatalf("dismiss must clear the selection")
	}
}

func TestSecondaryActivationOpensDocumentURL(t *testing.T) {
	opener := &recordingOpener{}
	n := app.Node{
		ID:       "d1",
		Type:     app.NodeDocument,
		Document: &app.DocumentAttrs{SourceURL: "https://example.org/doc.pdf"},
	}
	SecondaryActivate(n, opener)
	if len(opener.opened) != 1 || opener.opened[0] != "https://example.org/doc.pdf" {
		t.Fatalf("expected the source url to be opened, got %v", opener.opened)
	}
}

func TestSecondaryActivationNoURLDoesNothing(t *testing.T) {
	opener := &recordingOpener{}
	SecondaryActivate(app.Node{ID: "d2", Type: app.NodeDocument, Document: &app.DocumentAttrs{}}, opener)
	if len(opener.opened) != 0 {
		t.Fatalf("document without a source url must be a no-op, got %v", opener.opened)
	}
}

func TestSecondaryActivationChunkAndEntityAreNoOps(t *testing.T) {
	opener := &recordingOpener{}
	SecondaryActivate(app.Node{ID: "c1", Type: app.NodeChunk, Chunk: &app.ChunkAttrs{Preview: "…"}}, opener)
	SecondaryActivate(app.Node{ID: "e1", Type: app.NodeEntity, Entity: &app.EntityAttrs{Name: "Ada"}}, opener)
	if len(opener.opened) != 0 {
		t.Fatalf("chunk/entity secondary activation must not open anything, got %v", opener.opened)
	}
}

func TestSecondaryActivationDoesNotChangeSelection(t *testing.T) {
	opener := &recordingOpener{}
	g := newGraphPane(NewTheme(), opener)
	snap := &app.Snapshot{Nodes: []app.Node{
		{ID: "e1", Label: "Ada", Type: app.NodeEntity, Entity: &app.EntityAttrs{Name: "Ada"}},
		{ID: "d1", Label: "Doc", Type: app.NodeDocument, Document: &app.DocumentAttrs{SourceURL: "https://x"}},
	}}

	g.ActivateCursor(snap) // select "e1"
	g.OpenSelected(snap)

	sel, ok := g.sel.Selected()
	if !ok || sel.ID != "e1" {
		t.Fatalf("secondary activation must not change the selection, got %+v ok=%v", sel, ok)
	}
}

func TestGraphCursorClamped(t *testing.T) {
	g := newGraphPane(NewTheme(), nil)
	snap := &app.Snapshot{Nodes: []app.Node{{ID: "a"}, {ID: "b"}}}

	g.MoveCursor(-3, snap)
	if g.cursor != 0 {
		t.Fatalf("cursor underflow: %d", g.cursor)
	}
	g.MoveCursor(10, snap)
	if g.cursor != 1 {
		t.Fatalf("cursor overflow: %d", g.cursor)
	}
	g.MoveCursor(1, nil)
	if g.cursor != 0 {
		t.Fatalf("cursor with absent snapshot should reset, got %d", g.cursor)
	}
}

func TestEmptySnapshotRendersChrome(t *testing.T) {
	g := newGraphPane(NewTheme(), nil)
	out := g.View(&app.Snapshot{}, 38, 10, false)
	if out == "" {
		t.Fatalf("present-but-empty snapshot must still render the panel")
	}
}
