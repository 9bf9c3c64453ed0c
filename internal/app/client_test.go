package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSearchSendsRequestShape(t *testing.T) {
	var gotBody SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(SearchResponse{
			Hits:  []Hit{{Text: "a hit", SHA256: "deadbeef"}},
			Graph: &GraphPayload{Nodes: []NodePayload{{ID: "n1", Type: "entity"}}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Search(context.Background(), SearchRequest{Query: "q", TopK: 7, WithGraph: true})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotBody.Query != "q" || gotBody.TopK != 7 || !gotBody.WithGraph {
		t.Fatalf("request body mismatch: %+v", gotBody)
	}
	if len(resp.Hits) != 1 || resp.Graph == nil {
		t.Fatalf("response mismatch: %+v", resp)
	}
}

func TestClientSurfacesBackendDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "No similar chunks found"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Search(context.Background(), SearchRequest{Query: "q", TopK: 5})
	if err == nil {
		t.Fatalf("expected error on 404")
	}
	if got := err.Error(); got != "backend error: status 404: No similar chunks found" {
		t.Fatalf("unexpected error text: %q", got)
	}
}

func TestClientMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Search(context.Background(), SearchRequest{Query: "q"}); err == nil {
		t.Fatalf("expected malformed-response error")
	}
}

func TestClientSubgraphDecodesFlatElements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subgraph" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("name"); got != "Ada" {
			t.Errorf("unexpected name %q", got)
		}
		w.Write([]byte(`{"elements":[
			{"data":{"id":"e1","label":"Ada","type":"entity","entity_type":"PERSON"}},
			{"data":{"id":"c1","label":"chunk 0","type":"chunk","ord":0,"preview":"Ada was…"}},
			{"data":{"source":"c1","target":"e1","label":"MENTIONS"}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	payload, err := c.Subgraph(context.Background(), "Ada")
	if err != nil {
		t.Fatalf("subgraph: %v", err)
	}
	if len(payload.Nodes) != 2 || len(payload.Edges) != 1 {
		t.Fatalf("element split wrong: %d nodes, %d edges", len(payload.Nodes), len(payload.Edges))
	}
	if payload.Edges[0].Label != "MENTIONS" {
		t.Fatalf("edge label lost: %+v", payload.Edges[0])
	}
}

func TestClientSearchWithEntities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search_with_entities" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("k"); got != "5" {
			t.Errorf("unexpected k %q", got)
		}
		json.NewEncoder(w).Encode(EntityResponse{Results: []EntityResult{
			{Text: "text", Entities: []EntityRef{{Name: "Ada", Label: "PERSON"}}},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.SearchWithEntities(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("entities: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Entities[0].Name != "Ada" {
		t.Fatalf("response mismatch: %+v", resp)
	}
}
