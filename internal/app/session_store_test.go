package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*SessionStore, *FileStateStore) {
	t.Helper()
	state := NewFileStateStore(t.TempDir())
	return NewSessionStore(state, NewLogger(nil), defaultTitleLimit), state
}

func TestNewStoreStartsWithOneEmptySession(t *testing.T) {
	store, _ := newTestStore(t)
	sums := store.Summaries()
	if len(sums) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sums))
	}
	if sums[0].Title != defaultSessionTitle {
		t.Fatalf("expected default title, got %q", sums[0].Title)
	}
	if sums[0].MessageCount != 0 {
		t.Fatalf("expected empty session, got %d messages", sums[0].MessageCount)
	}
}

func TestCorruptStateFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	state := NewFileStateStore(dir)
	if err := os.MkdirAll(filepath.Dir(state.Path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(state.Path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt blob: %v", err)
	}

	store := NewSessionStore(state, NewLogger(nil), defaultTitleLimit)
	if got := len(store.Summaries()); got != 1 {
		t.Fatalf("expected fallback single session, got %d", got)
	}
}

func TestCreateSessionMakesNewActive(t *testing.T) {
	store, _ := newTestStore(t)
	first := store.EnsureActiveSession()
	second := store.CreateSession()

	if second.ID == first.ID {
		t.Fatalf("create must mint a new session")
	}
	active, ok := store.ActiveSession()
	if !ok || active.ID != second.ID {
		t.Fatalf("new session should be active")
	}
	if store.ActiveIndex() != 1 {
		t.Fatalf("expected active index 1, got %d", store.ActiveIndex())
	}
}

func TestSelectSessionBounds(t *testing.T) {
	store, _ := newTestStore(t)
	store.CreateSession()
	if err := store.SelectSession(0); err != nil {
		t.Fatalf("select 0: %v", err)
	}
	if err := store.SelectSession(5); err == nil {
		t.Fatalf("expected out-of-range error")
	}
	if store.ActiveIndex() != 0 {
		t.Fatalf("failed select must not move the pointer")
	}
}

func TestTitleDerivedFromFirstUserMessage(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.EnsureActiveSession()

	store.AppendMessage(sess.ID, ChatMessage{Role: RoleUser, Text: "Explain quantum entanglement in depth"})
	got, _ := store.SessionByID(sess.ID)
	if len([]rune(got.Title)) != defaultTitleLimit {
		t.Fatalf("title should be cut to %d runes, got %d (%q)", defaultTitleLimit, len([]rune(got.Title)), got.Title)
	}
	if got.Title != string([]rune("Explain quantum entanglement in depth")[:defaultTitleLimit]) {
		t.Fatalf("unexpected title %q", got.Title)
	}

	// Assistant messages never change the title.
	store.AppendMessage(sess.ID, ChatMessage{Role: RoleAssistant, Text: "It is a correlation…"})
	after, _ := store.SessionByID(sess.ID)
	if after.Title != got.Title {
		t.Fatalf("assistant message changed title: %q -> %q", got.Title, after.Title)
	}
}

func TestShortFirstMessageKeptWhole(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.EnsureActiveSession()
	store.AppendMessage(sess.ID, ChatMessage{Role: RoleUser, Text: "hi there"})
	got, _ := store.SessionByID(sess.ID)
	if got.Title != "hi there" {
		t.Fatalf("expected %q, got %q", "hi there", got.Title)
	}
}

func TestUpdateGraphReplacesWholesale(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.EnsureActiveSession()

	store.UpdateGraph(sess.ID, &Snapshot{Nodes: []Node{{ID: "old", Type: NodeEntity}}})
	store.UpdateGraph(sess.ID, &Snapshot{Nodes: []Node{{ID: "new", Type: NodeEntity}}})

	got, _ := store.SessionByID(sess.ID)
	if got.Graph == nil || len(got.Graph.Nodes) != 1 || got.Graph.Nodes[0].ID != "new" {
		t.Fatalf("expected only the new snapshot, got %+v", got.Graph)
	}

	store.ClearGraph(sess.ID)
	got, _ = store.SessionByID(sess.ID)
	if got.Graph != nil {
		t.Fatalf("expected cleared snapshot")
	}
}

func TestUnknownSessionMutationsAreNoOps(t *testing.T) {
	store, _ := newTestStore(t)
	store.AppendMessage("nope", ChatMessage{Role: RoleUser, Text: "lost"})
	store.UpdateGraph("nope", &Snapshot{})
	if sums := store.Summaries(); sums[0].MessageCount != 0 {
		t.Fatalf("mutation leaked into a real session")
	}
}

func TestStatePersistsAcrossStores(t *testing.T) {
	dir := t.TempDir()
	state := NewFileStateStore(dir)

	store := NewSessionStore(state, NewLogger(nil), defaultTitleLimit)
	sess := store.EnsureActiveSession()
	store.AppendMessage(sess.ID, ChatMessage{Role: RoleUser, Text: "persistent question"})
	store.UpdateGraph(sess.ID, &Snapshot{Nodes: []Node{{ID: "e1", Label: "Ada", Type: NodeEntity, EntityType: "PERSON", Entity: &EntityAttrs{Name: "Ada"}}}})

	reloaded := NewSessionStore(NewFileStateStore(dir), NewLogger(nil), defaultTitleLimit)
	sums := reloaded.Summaries()
	if len(sums) != 1 || sums[0].MessageCount != 1 {
		t.Fatalf("state did not survive reload: %+v", sums)
	}
	if !sums[0].HasGraph {
		t.Fatalf("graph snapshot did not survive reload")
	}
	if sums[0].Title != "persistent question" {
		t.Fatalf("title did not survive reload: %q", sums[0].Title)
	}
}

func TestIdempotentReload(t *testing.T) {
	dir := t.TempDir()
	state := NewFileStateStore(dir)

	in := []PersistedSession{
		{
			Title: "persistent question",
			Messages: []PersistedMessage{
				{Role: "user", Text: "persistent question"},
				{Role: "assistant", Text: "1. [abcd1234#0]\n   an answer"},
			},
			GraphData: []Element{
				{Group: "nodes", Data: ElementData{ID: "e1", Label: "Ada", Type: "entity", EntityType: "PERSON", Name: "Ada"}, Classes: "entity-person"},
			},
		},
		{Title: "New chat", Messages: []PersistedMessage{}},
	}
	if err := state.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	first, err := os.ReadFile(state.Path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	loaded, err := state.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := state.Save(loaded); err != nil {
		t.Fatalf("second save: %v", err)
	}
	second, err := os.ReadFile(state.Path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("save -> load -> save changed the serialized record:\n%s\n---\n%s", first, second)
	}
}

func TestLoadMissingStateIsNil(t *testing.T) {
	state := NewFileStateStore(t.TempDir())
	got, err := state.Load()
	if err != nil {
		t.Fatalf("missing state must not error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing state, got %v", got)
	}
}
