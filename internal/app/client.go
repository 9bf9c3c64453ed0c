package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the ATLAS retrieval backend. The backend is opaque: it
// ranks chunks, synthesizes nothing, and optionally returns a knowledge
// graph alongside the hits.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

type SearchRequest struct {
	Query           string `json:"q"`
	TopK            int    `json:"top_k"`
	ExtendedRanking bool   `json:"use_extended_ranking"`
	WithGraph       bool   `json:"with_graph"`
}

type Hit struct {
	Text       string   `json:"text"`
	Score      *float64 `json:"score,omitempty"`
	ChunkID    string   `json:"chunk_id,omitempty"`
	DocumentID string   `json:"document_id,omitempty"`
	SHA256     string   `json:"sha256,omitempty"`
	Ord        *int     `json:"ord,omitempty"`
	Title      string   `json:"title,omitempty"`
}

type SearchResponse struct {
	Hits  []Hit         `json:"hits"`
	Graph *GraphPayload `json:"graph,omitempty"`
}

type EntityRef struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type EntityResult struct {
	Text     string      `json:"text"`
	Entities []EntityRef `json:"entities"`
}

type EntityResponse struct {
	Results []EntityResult `json:"results"`
}

func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out SearchResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchWithEntities(ctx context.Context, q string, k int) (*EntityResponse, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("k", strconv.Itoa(k))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search_with_entities?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var out EntityResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type subgraphResponse struct {
	Elements []Element `json:"elements"`
}

// Subgraph fetches the neighborhood of one entity as a flat element list.
func (c *Client) Subgraph(ctx context.Context, name string) (*GraphPayload, error) {
	params := url.Values{}
	params.Set("name", name)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/subgraph?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var out subgraphResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	p := GraphPayload{}
	for _, el := range out.Elements {
		d := el.Data
		if el.Group == "edges" || (el.Group == "" && d.Source != "" && d.Target != "") {
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
	return &p, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}

	if resp.StatusCode >= 300 {
		// The backend reports errors as {"detail": "..."}.
		var errResp struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(body, &errResp)
		if errResp.Detail != "" {
			return fmt.Errorf("backend error: status %d: %s", resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("backend error: status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("malformed backend response: %w", err)
	}
	return nil
}
