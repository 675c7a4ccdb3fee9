// Package interaction holds the selection state machine and the style
// functions the renderer reads on every frame.
package interaction

import (
	"sync"

	"go.uber.org/zap"

	"vouch-graph/backend/internal/constants"
	"vouch-graph/backend/internal/graph"
	"vouch-graph/backend/pkg/logger"
)

// Palette holds the colors and widths used by the style functions
type Palette struct {
	CurrentUser   string
	Selected      string
	Connected     string
	NodeDefault   string
	LinkHighlight string
	LinkDefault   string
	WidthActive   float64
	WidthDefault  float64
}

// DefaultPalette returns the standard colors
func DefaultPalette() Palette {
	return Palette{
		CurrentUser:   constants.ColorCurrentUser,
		Selected:      constants.ColorSelected,
		Connected:     constants.ColorConnected,
		NodeDefault:   constants.ColorNodeDefault,
		LinkHighlight: constants.ColorLinkHighlight,
		LinkDefault:   constants.ColorLinkDefault,
		WidthActive:   constants.LinkWidthHighlight,
		WidthDefault:  constants.LinkWidthDefault,
	}
}

// Selection is a copy of the current selection. Both sets are empty exactly
// when SelectedNodeID is empty.
type Selection struct {
	SelectedNodeID   string
	HighlightedNodes map[string]struct{}
	HighlightedLinks map[string]struct{}
}

// HasSelection reports whether a node is selected
func (s Selection) HasSelection() bool {
	return s.SelectedNodeID != ""
}

// IsNodeHighlighted reports whether id is in the highlighted node set
func (s Selection) IsNodeHighlighted(id string) bool {
	_, ok := s.HighlightedNodes[id]
	return ok
}

// IsLinkHighlighted reports whether id is in the highlighted link set
func (s Selection) IsLinkHighlighted(id string) bool {
	_, ok := s.HighlightedLinks[id]
	return ok
}

// Controller owns the selection for one graph
type Controller struct {
	mu          sync.RWMutex
	model       *graph.Model
	selected    string
	nodes       map[string]struct{}
	links       map[string]struct{}
	currentUser string
	palette     Palette
	logger      *zap.Logger
}

// Option configures a Controller
type Option func(*Controller)

// WithPalette overrides the default colors
func WithPalette(p Palette) Option {
	return func(c *Controller) { c.palette = p }
}

// WithCurrentUser sets the id (or fid) of the signed-in user
func WithCurrentUser(id string) Option {
	return func(c *Controller) { c.currentUser = id }
}

// WithLogger overrides the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates a controller for model with nothing selected
func NewController(model *graph.Model, opts ...Option) *Controller {
	c := &Controller{
		model:   model,
		nodes:   map[string]struct{}{},
		links:   map[string]struct{}{},
		palette: DefaultPalette(),
		logger:  logger.Named("interaction"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnNodeClick toggles the selection. Clicking the selected node clears it;
// clicking any other node selects it and highlights its neighbourhood. Ids
// outside the model are ignored.
func (c *Controller) OnNodeClick(id string) Selection {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == nil || !c.model.Has(id) {
		c.logger.Debug("Ignoring click on unknown node", zap.String("node_id", id))
		return c.selectionLocked()
	}

	if c.selected == id {
		c.clearLocked()
		return c.selectionLocked()
	}

	c.selected = id
	c.nodes = map[string]struct{}{id: {}}
	c.links = map[string]struct{}{}
	for _, l := range c.model.Links {
		if !l.Touches(id) {
			continue
		}
		c.links[l.ID] = struct{}{}
		c.nodes[l.Other(id)] = struct{}{}
	}

	return c.selectionLocked()
}

// Reset clears the selection and binds the controller to a new model
func (c *Controller) Reset(model *graph.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
	c.clearLocked()
}

// SetCurrentUser replaces the signed-in user
func (c *Controller) SetCurrentUser(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentUser = id
}

// Selection returns a copy of the current selection
func (c *Controller) Selection() Selection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selectionLocked()
}

func (c *Controller) clearLocked() {
	c.selected = ""
	c.nodes = map[string]struct{}{}
	c.links = map[string]struct{}{}
}

func (c *Controller) selectionLocked() Selection {
	sel := Selection{
		SelectedNodeID:   c.selected,
		HighlightedNodes: make(map[string]struct{}, len(c.nodes)),
		HighlightedLinks: make(map[string]struct{}, len(c.links)),
	}
	for id := range c.nodes {
		sel.HighlightedNodes[id] = struct{}{}
	}
	for id := range c.links {
		sel.HighlightedLinks[id] = struct{}{}
	}
	return sel
}

// ============================================================================
// Style functions
// ============================================================================

// IsCurrentUser reports whether id belongs to the signed-in user
func (c *Controller) IsCurrentUser(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isCurrentUserLocked(id)
}

func (c *Controller) isCurrentUserLocked(id string) bool {
	if c.currentUser == "" {
		return false
	}
	if id == c.currentUser {
		return true
	}
	if c.model == nil {
		return false
	}
	node, ok := c.model.NodeByID(id)
	return ok && node.Fid != "" && node.Fid == c.currentUser
}

// NodeColor is the fill for node id
func (c *Controller) NodeColor(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.isCurrentUserLocked(id):
		return c.palette.CurrentUser
	case id == c.selected && c.selected != "":
		return c.palette.Selected
	}
	if _, ok := c.nodes[id]; ok {
		return c.palette.Connected
	}
	return c.palette.NodeDefault
}

// LinkColor is the stroke for link id
func (c *Controller) LinkColor(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.links[id]; ok {
		return c.palette.LinkHighlight
	}
	return c.palette.LinkDefault
}

// LinkWidth is the stroke width for link id
func (c *Controller) LinkWidth(id string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.links[id]; ok {
		return c.palette.WidthActive
	}
	return c.palette.WidthDefault
}
