// Package render turns composed frames into pixels: a terminal character
// canvas, an SVG document, and the viewport transforms both share.
package render

// NodeRadius is the drawn radius of a node in world units
const NodeRadius = 6.0

// NodeView is one node as drawn in a frame
type NodeView struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	AvatarURL   string  `json:"avatarUrl,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Color       string  `json:"color"`
	Selected    bool    `json:"selected,omitempty"`
	Highlighted bool    `json:"highlighted,omitempty"`
	Pinned      bool    `json:"pinned,omitempty"`
}

// LinkView is one link as drawn in a frame
type LinkView struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	X1          float64 `json:"x1"`
	Y1          float64 `json:"y1"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	Color       string  `json:"color"`
	Width       float64 `json:"width"`
	Highlighted bool    `json:"highlighted,omitempty"`
}

// Frame is everything needed to draw one tick
type Frame struct {
	Tick   uint64     `json:"tick"`
	Alpha  float64    `json:"alpha"`
	Nodes  []NodeView `json:"nodes"`
	Links  []LinkView `json:"links"`
	Banner string     `json:"banner,omitempty"`
	Mode   string     `json:"mode,omitempty"`
}

// Node looks up a node by id
func (f Frame) Node(id string) (NodeView, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}

// Bounds returns the world-space box enclosing every node, padded by the
// node radius. An empty frame has a zero box.
func (f Frame) Bounds() (minX, minY, maxX, maxY float64) {
	for i, n := range f.Nodes {
		if i == 0 {
			minX, maxX, minY, maxY = n.X, n.X, n.Y, n.Y
			continue
		}
		minX = min(minX, n.X)
		maxX = max(maxX, n.X)
		minY = min(minY, n.Y)
		maxY = max(maxY, n.Y)
	}
	if len(f.Nodes) == 0 {
		return 0, 0, 0, 0
	}
	return minX - NodeRadius, minY - NodeRadius, maxX + NodeRadius, maxY + NodeRadius
}
