package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Searcher is the slice of the retrieval backend the dispatcher needs.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	SearchWithEntities(ctx context.Context, q string, k int) (*EntityResponse, error)
	Subgraph(ctx context.Context, name string) (*GraphPayload, error)
}

type TurnKind int

const (
	TurnSearch TurnKind = iota
	TurnEntities
	TurnSubgraph
)

// Turn carries the identity of the session it was dispatched against.
// Completions always target this captured session, never the session that
// happens to be active when the network call resolves.
type Turn struct {
	SessionID    string
	Kind         TurnKind
	Query        string
	IncludeGraph bool
}

const (
	previewLimit  = 280
	noResultsText = "No results found for this query."
)

// Dispatcher executes query turns. Every begun turn commits exactly one
// assistant message; failures are downgraded to chat text and never
// propagate to the UI shell.
type Dispatcher struct {
	client          Searcher
	store           *SessionStore
	log             *Logger
	topK            int
	extendedRanking bool
}

func NewDispatcher(client Searcher, store *SessionStore, log *Logger, topK int, extendedRanking bool) *Dispatcher {
	if log == nil {
		log = NewLogger(nil)
	}
	if topK <= 0 {
		topK = 5
	}
	return &Dispatcher{client: client, store: store, log: log, topK: topK, extendedRanking: extendedRanking}
}

// Pending reports whether the session has a turn in flight, so the UI can
// refuse further submissions for it.
func (d *Dispatcher) Pending(sessionID string) bool {
	return d.store.Pending(sessionID)
}

// BeginTurn starts a search turn: it rejects empty queries, enforces
// at-most-one in-flight turn per session, and optimistically appends the
// user message before any network activity. The returned Turn must be
// passed to ResolveTurn exactly once.
func (d *Dispatcher) BeginTurn(sessionID, query string, includeGraph bool) (*Turn, bool) {
	return d.begin(sessionID, query, TurnSearch, includeGraph)
}

// BeginEntityTurn starts an entity-annotated search turn.
func (d *Dispatcher) BeginEntityTurn(sessionID, query string) (*Turn, bool) {
	return d.begin(sessionID, query, TurnEntities, false)
}

// BeginSubgraphTurn starts a subgraph-by-entity turn.
func (d *Dispatcher) BeginSubgraphTurn(sessionID, name string) (*Turn, bool) {
	return d.begin(sessionID, name, TurnSubgraph, true)
}

func (d *Dispatcher) begin(sessionID, query string, kind TurnKind, includeGraph bool) (*Turn, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false
	}
	if !d.store.beginPending(sessionID) {
		return nil, false
	}
	userText := query
	switch kind {
	case TurnEntities:
		userText = "/entities " + query
	case TurnSubgraph:
		userText = "/graph " + query
	}
	d.store.AppendMessage(sessionID, ChatMessage{Role: RoleUser, Text: userText})
	d.log.Info("turn dispatched", map[string]interface{}{"session_id": sessionID, "kind": int(kind)})
	return &Turn{SessionID: sessionID, Kind: kind, Query: query, IncludeGraph: includeGraph}, true
}

// ResolveTurn performs the turn's single network call and commits the
// outcome to the captured session. It never returns an error: transport
// failures, bad statuses and contract violations all become one
// assistant message, and any failure clears the session's graph snapshot.
func (d *Dispatcher) ResolveTurn(ctx context.Context, t *Turn) {
	defer d.store.endPending(t.SessionID)

	var (
		text string
		snap *Snapshot
		err  error
	)
	switch t.Kind {
	case TurnEntities:
		text, err = d.resolveEntities(ctx, t)
	case TurnSubgraph:
		text, snap, err = d.resolveSubgraph(ctx, t)
	default:
		text, snap, err = d.resolveSearch(ctx, t)
	}

	if err != nil {
		d.log.Error("turn failed", map[string]interface{}{"session_id": t.SessionID, "error": err.Error()})
		text = fmt.Sprintf("Sorry, the query failed: %v", err)
		snap = nil
	}

	d.store.AppendMessage(t.SessionID, ChatMessage{Role: RoleAssistant, Text: text})
	d.store.UpdateGraph(t.SessionID, snap)
}

func (d *Dispatcher) resolveSearch(ctx context.Context, t *Turn) (string, *Snapshot, error) {
	resp, err := d.client.Search(ctx, SearchRequest{
		Query:           t.Query,
		TopK:            d.topK,
		ExtendedRanking: d.extendedRanking,
		WithGraph:       t.IncludeGraph,
	})
	if err != nil {
		return "", nil, err
	}

	var snap *Snapshot
	if resp.Graph != nil && (len(resp.Graph.Nodes) > 0 || len(resp.Graph.Edges) > 0) {
		snap, err = DecodeSnapshot(*resp.Graph)
		if err != nil {
			return "", nil, err
		}
	}
	return formatHits(resp.Hits), snap, nil
}

func (d *Dispatcher) resolveEntities(ctx context.Context, t *Turn) (string, error) {
	resp, err := d.client.SearchWithEntities(ctx, t.Query, d.topK)
	if err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return noResultsText, nil
	}
	var b strings.Builder
	for i, r := range resp.Results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, truncateText(r.Text, previewLimit))
		if len(r.Entities) > 0 {
			parts := make([]string, 0, len(r.Entities))
			for _, e := range r.Entities {
				parts = append(parts, fmt.Sprintf("%s [%s]", e.Name, e.Label))
			}
			fmt.Fprintf(&b, "   entities: %s\n", strings.Join(parts, ", "))
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (d *Dispatcher) resolveSubgraph(ctx context.Context, t *Turn) (string, *Snapshot, error) {
	payload, err := d.client.Subgraph(ctx, t.Query)
	if err != nil {
		return "", nil, err
	}
	if len(payload.Nodes) == 0 && len(payload.Edges) == 0 {
		return fmt.Sprintf("No graph found for %q.", t.Query), nil, nil
	}
	snap, err := DecodeSnapshot(*payload)
	if err != nil {
		return "", nil, err
	}
	text := fmt.Sprintf("Loaded subgraph for %q: %d nodes, %d edges.", t.Query, len(snap.Nodes), len(snap.Edges))
	return text, snap, nil
}

// formatHits renders ranked hits as a numbered list. Each entry carries a
// short content-addressed citation tag so an answer can be traced back to
// its chunk.
func formatHits(hits []Hit) string {
	if len(hits) == 0 {
		return noResultsText
	}
	var b strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. [%s]", i+1, citationTag(h, i))
		if h.Title != "" {
			fmt.Fprintf(&b, " %s", h.Title)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "   %s\n", truncateText(h.Text, previewLimit))
	}
	return strings.TrimRight(b.String(), "\n")
}

// citationTag derives a stable tag from the hit's content hash and ordinal,
// e.g. "3fba1c42#0". Hits without a backend-provided hash are hashed here.
func citationTag(h Hit, fallbackOrd int) string {
	sum := h.SHA256
	if sum == "" {
		digest := sha256.Sum256([]byte(h.Text))
		sum = hex.EncodeToString(digest[:])
	}
	if len(sum) > 8 {
		sum = sum[:8]
	}
	ord := fallbackOrd
	if h.Ord != nil {
		ord = *h.Ord
	}
	return fmt.Sprintf("%s#%d", sum, ord)
}

func truncateText(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}
