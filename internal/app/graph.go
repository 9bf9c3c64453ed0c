package app

import (
	"fmt"
)

// NodeType tags which attribute variant a node carries.
type NodeType string

const (
	NodeDocument NodeType = "document"
	NodeChunk    NodeType = "chunk"
	NodeEntity   NodeType = "entity"
	// NodeUnknown covers payload nodes with a missing or unrecognized type.
	// They still render, with the neutral visual class.
	NodeUnknown NodeType = ""
)

// DocumentAttrs, ChunkAttrs and EntityAttrs are the per-type attribute
// variants. Exactly one of them is populated on a Node, matching its Type.
type DocumentAttrs struct {
	SourceURL string
}

type ChunkAttrs struct {
	Ord     int
	Preview string
}

type EntityAttrs struct {
	// Name is the entity's canonical name, which may differ from Label.
	Name string
}

type Node struct {
	ID         string
	Label      string
	Type       NodeType
	EntityType string // set only when Type == NodeEntity

	Document *DocumentAttrs
	Chunk    *ChunkAttrs
	Entity   *EntityAttrs
}

// Edge is directed. Cycles are allowed; the backend decides topology.
type Edge struct {
	Source string
	Target string
	Label  string
}

// Snapshot is the complete replacement-unit of graph state for a session.
// A nil *Snapshot means "no graph" (panel hidden); an empty Snapshot is a
// present-but-empty graph (panel shown with an empty canvas).
type Snapshot struct {
	Nodes []Node
	Edges []Edge
}

func (s *Snapshot) Empty() bool {
	return s == nil || (len(s.Nodes) == 0 && len(s.Edges) == 0)
}

// GraphPayload is the raw graph shape returned by the retrieval backend.
type GraphPayload struct {
	Nodes []NodePayload `json:"nodes"`
	Edges []EdgePayload `json:"edges"`
}

type NodePayload struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	EntityType string `json:"entity_type,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
	Ord        int    `json:"ord,omitempty"`
	Preview    string `json:"preview,omitempty"`
	Name       string `json:"name,omitempty"`
}

type EdgePayload struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// DecodeSnapshot validates a backend graph payload and produces a Snapshot.
// A node with a missing or unknown type decodes as NodeUnknown rather than
// failing; an edge referencing a node id absent from the same payload is a
// contract violation and fails the whole decode.
func DecodeSnapshot(p GraphPayload) (*Snapshot, error) {
	snap := &Snapshot{}
	seen := make(map[string]bool, len(p.Nodes))
	for _, np := range p.Nodes {
		if np.ID == "" {
			return nil, fmt.Errorf("graph payload: node with empty id")
		}
		if seen[np.ID] {
			continue
		}
		seen[np.ID] = true
		snap.Nodes = append(snap.Nodes, decodeNode(np))
	}
	for _, ep := range p.Edges {
		if !seen[ep.Source] || !seen[ep.Target] {
			return nil, fmt.Errorf("graph payload: edge %q -> %q references a node not in the payload", ep.Source, ep.Target)
		}
		snap.Edges = append(snap.Edges, Edge{Source: ep.Source, Target: ep.Target, Label: ep.Label})
	}
	return snap, nil
}

func decodeNode(np NodePayload) Node {
	n := Node{ID: np.ID, Label: np.Label}
	switch NodeType(np.Type) {
	case NodeDocument:
		n.Type = NodeDocument
		n.Document = &DocumentAttrs{SourceURL: np.SourceURL}
	case NodeChunk:
		n.Type = NodeChunk
		n.Chunk = &ChunkAttrs{Ord: np.Ord, Preview: np.Preview}
	case NodeEntity:
		n.Type = NodeEntity
		n.EntityType = np.EntityType
		name := np.Name
		if name == "" {
			name = np.Label
		}
		n.Entity = &EntityAttrs{Name: name}
	default:
		n.Type = NodeUnknown
	}
	if n.Label == "" {
		n.Label = n.ID
	}
	return n
}

// VisualClass names the rendering style of an element. The mapping from
// class to concrete colors lives in the TUI layer.
type VisualClass string

const (
	ClassDocument           VisualClass = "document"
	ClassChunk              VisualClass = "chunk"
	ClassEntity             VisualClass = "entity"
	ClassEntityPerson       VisualClass = "entity-person"
	ClassEntityOrganization VisualClass = "entity-organization"
	ClassEntityTechnology   VisualClass = "entity-technology"
	ClassEntityLocation     VisualClass = "entity-location"
	ClassEntityConcept      VisualClass = "entity-concept"
	ClassNeutral            VisualClass = "neutral"
	ClassEdge               VisualClass = "edge"
)

var entityClasses = map[string]VisualClass{
	"PERSON":       ClassEntityPerson,
	"ORGANIZATION": ClassEntityOrganization,
	"TECHNOLOGY":   ClassEntityTechnology,
	"LOCATION":     ClassEntityLocation,
	"CONCEPT":      ClassEntityConcept,
}

// ClassFor selects a node's visual class from its attributes alone.
func ClassFor(n Node) VisualClass {
	switch n.Type {
	case NodeDocument:
		return ClassDocument
	case NodeChunk:
		return ClassChunk
	case NodeEntity:
		if c, ok := entityClasses[n.EntityType]; ok {
			return c
		}
		return ClassEntity
	default:
		return ClassNeutral
	}
}

// Element is the flat visualization form of a node or edge. It is also the
// unit of the persisted graphData layout, so its JSON shape must stay
// stable across load/save cycles.
type Element struct {
	Group   string      `json:"group"` // "nodes" or "edges"
	Data    ElementData `json:"data"`
	Classes string      `json:"classes,omitempty"`
}

type ElementData struct {
	ID         string `json:"id,omitempty"`
	Label      string `json:"label,omitempty"`
	Type       string `json:"type,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
	Ord        int    `json:"ord,omitempty"`
	Preview    string `json:"preview,omitempty"`
	Name       string `json:"name,omitempty"`
	Source     string `json:"source,omitempty"`
	Target     string `json:"target,omitempty"`
}

// Elements flattens the snapshot into renderable elements, nodes first.
// Consumers must not depend on the order.
func (s *Snapshot) Elements() []Element {
	if s == nil {
		return nil
	}
	out := make([]Element, 0, len(s.Nodes)+len(s.Edges))
	for _, n := range s.Nodes {
		d := ElementData{ID: n.ID, Label: n.Label, Type: string(n.Type), EntityType: n.EntityType}
		switch {
		case n.Document != nil:
			d.SourceURL = n.Document.SourceURL
		case n.Chunk != nil:
			d.Ord = n.Chunk.Ord
			d.Preview = n.Chunk.Preview
		case n.Entity != nil:
			d.Name = n.Entity.Name
		}
		out = append(out, Element{Group: "nodes", Data: d, Classes: string(ClassFor(n))})
	}
	for _, e := range s.Edges {
		out = append(out, Element{
			Group:   "edges",
			Data:    ElementData{Source: e.Source, Target: e.Target, Label: e.Label},
			Classes: string(ClassEdge),
		})
	}
	return out
}

// SnapshotFromElements rebuilds a Snapshot from a flat element list, the
// inverse of Elements. Used when loading persisted state and when decoding
// the backend's subgraph-by-entity response. Edge endpoint validation
// applies the same contract as DecodeSnapshot.
func SnapshotFromElements(elems []Element) (*Snapshot, error) {
	p := GraphPayload{}
	for _, el := range elems {
		d := el.Data
		isEdge := el.Group == "edges" || (el.Group == "" && d.Source != "" && d.Target != "")
		if isEdge {
			p.Edges = append(p.Edges, EdgePayload{Source: d.Source, Target: d.Target, Label: d.Label})
			continue
		}
		p.Nodes = append(p.Nodes, NodePayload{
			ID:         d.ID,
			Label:      d.Label,
			Type:       d.Type,
			EntityType: d.EntityType,
			SourceURL:  d.SourceURL,
			Ord:        d.Ord,
			Preview:    d.Preview,
			Name:       d.Name,
		})
	}
	return DecodeSnapshot(p)
}
