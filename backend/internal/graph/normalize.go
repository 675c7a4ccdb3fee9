package graph

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "vouch-graph/backend/pkg/errors"
	"vouch-graph/backend/pkg/logger"
)

// Model is the canonical in-memory graph. It never aliases the payload it
// was built from.
type Model struct {
	Nodes    []Node
	Links    []Link
	Dropped  []DroppedLink
	Shadowed []string

	index  map[string]int
	degree []int
}

// Normalize builds a Model from a payload. A nil payload yields an empty
// model. Links with unknown endpoints are dropped and logged; a repeated node
// id replaces the earlier node in its slot.
func Normalize(data *GraphData, log *zap.Logger) *Model {
	if log == nil {
		log = logger.Get()
	}

	m := &Model{
		Nodes: []Node{},
		Links: []Link{},
		index: make(map[string]int),
	}
	if data == nil {
		return m
	}

	for _, raw := range data.Nodes {
		node := nodeFromRaw(raw)
		if existing, ok := m.index[node.ID]; ok {
			node.Index = existing
			m.Nodes[existing] = node
			m.Shadowed = append(m.Shadowed, node.ID)
			log.Warn("Duplicate node id shadows earlier node",
				zap.Error(apperrors.NewDuplicateNode(node.ID)),
				zap.Int("index", existing),
			)
			continue
		}
		node.Index = len(m.Nodes)
		m.index[node.ID] = node.Index
		m.Nodes = append(m.Nodes, node)
	}

	m.degree = make([]int, len(m.Nodes))
	for i, raw := range data.Links {
		id := raw.ID
		if id == "" {
			id = fmt.Sprintf("link-%d", i)
		}

		si, sok := m.index[raw.Source.ID]
		ti, tok := m.index[raw.Target.ID]
		if !sok || !tok {
			missing := raw.Source.ID
			if sok {
				missing = raw.Target.ID
			}
			reason := apperrors.NewDanglingLink(id, missing)
			m.Dropped = append(m.Dropped, DroppedLink{LinkID: id, Reason: reason})
			log.Warn("Dropping link with unknown endpoint", zap.Error(reason))
			continue
		}

		m.Links = append(m.Links, Link{
			ID:          id,
			Source:      raw.Source.ID,
			Target:      raw.Target.ID,
			SourceIndex: si,
			TargetIndex: ti,
			Timestamp:   raw.Timestamp,
		})
		m.degree[si]++
		m.degree[ti]++
	}

	log.Debug("Graph normalized",
		zap.Int("nodes", len(m.Nodes)),
		zap.Int("links", len(m.Links)),
		zap.Int("dropped", len(m.Dropped)),
		zap.Int("shadowed", len(m.Shadowed)),
	)

	return m
}

func nodeFromRaw(raw RawNode) Node {
	image := raw.Img
	if image == "" {
		image = raw.Pfp
	}
	return Node{
		ID:                raw.ID,
		Address:           strings.TrimSpace(raw.Address),
		Handle:            raw.Fname,
		NamingServiceName: raw.ENS,
		Label:             raw.Name,
		Fid:               raw.Fid,
		ImageURL:          image,
	}
}

// NodeByID looks up a node by id
func (m *Model) NodeByID(id string) (Node, bool) {
	i, ok := m.index[id]
	if !ok {
		return Node{}, false
	}
	return m.Nodes[i], true
}

// IndexOf returns the slot of a node id, or -1
func (m *Model) IndexOf(id string) int {
	if i, ok := m.index[id]; ok {
		return i
	}
	return -1
}

// Has reports whether a node id is part of the model
func (m *Model) Has(id string) bool {
	_, ok := m.index[id]
	return ok
}

// Degree is the number of link ends attached to a node
func (m *Model) Degree(id string) int {
	i, ok := m.index[id]
	if !ok {
		return 0
	}
	return m.degree[i]
}

// Stats summarizes the model
func (m *Model) Stats() Stats {
	s := Stats{
		NodeCount:    len(m.Nodes),
		LinkCount:    len(m.Links),
		DroppedLinks: len(m.Dropped),
	}
	if n := len(m.Nodes); n > 1 {
		s.Density = float64(len(m.Links)) / float64(n*(n-1))
	}
	return s
}
