package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ============================================================================
// Raw Payload Types
// ============================================================================

// GraphData is the payload supplied by data sources
type GraphData struct {
	Nodes []RawNode `json:"nodes"`
	Links []RawLink `json:"links"`
}

// RawNode is one account as it arrives from a data source
type RawNode struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	ENS     string `json:"ens,omitempty"`
	Fname   string `json:"fname,omitempty"`
	Address string `json:"address,omitempty"`
	Img     string `json:"img,omitempty"`
	Pfp     string `json:"pfp,omitempty"`
	Fid     string `json:"fid,omitempty"`
}

// RawLink is one vouch as it arrives from a data source
type RawLink struct {
	ID        string   `json:"id,omitempty"`
	Source    Endpoint `json:"source"`
	Target    Endpoint `json:"target"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// Endpoint is a link end. Payloads may carry either a bare node id or an
// embedded node object; both decode to the id.
type Endpoint struct {
	ID string
}

// UnmarshalJSON accepts "id", 42 or {"id": "..."}
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		e.ID = ""
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &e.ID)
	case '{':
		var obj struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("failed to decode endpoint object: %w", err)
		}
		if len(obj.ID) == 0 {
			e.ID = ""
			return nil
		}
		return e.UnmarshalJSON(obj.ID)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported endpoint %s: %w", string(data), err)
		}
		e.ID = n.String()
		return nil
	}
}

// MarshalJSON always writes the bare id
func (e Endpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ID)
}

// ============================================================================
// Canonical Model Types
// ============================================================================

// Node is a normalized account
type Node struct {
	ID                string `json:"id"`
	Address           string `json:"address,omitempty"`
	Handle            string `json:"handle,omitempty"`
	NamingServiceName string `json:"naming_service_name,omitempty"`
	Label             string `json:"label,omitempty"`
	Fid               string `json:"fid,omitempty"`
	ImageURL          string `json:"image_url,omitempty"`
	Index             int    `json:"index"`
}

// Link is a normalized vouch with both endpoints bound to model nodes
type Link struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	SourceIndex int    `json:"source_index"`
	TargetIndex int    `json:"target_index"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}

// Touches reports whether either endpoint is the given node
func (l Link) Touches(nodeID string) bool {
	return l.Source == nodeID || l.Target == nodeID
}

// Other returns the endpoint opposite to nodeID
func (l Link) Other(nodeID string) string {
	if l.Source == nodeID {
		return l.Target
	}
	return l.Source
}

// DroppedLink records a link excluded during normalization
type DroppedLink struct {
	LinkID string `json:"link_id"`
	Reason error  `json:"-"`
}

// Stats summarizes a model
type Stats struct {
	NodeCount    int     `json:"node_count"`
	LinkCount    int     `json:"link_count"`
	DroppedLinks int     `json:"dropped_links"`
	Density      float64 `json:"density"`
}
