package constants

import "time"

// Layout constants
const (
	// DefaultLinkDistance is the rest length the link force pulls endpoints towards
	DefaultLinkDistance = 100.0
	// DefaultChargeStrength is the many-body strength; negative values repel
	DefaultChargeStrength = -200.0
	// DragAlphaTarget is the energy the simulation is reheated towards while dragging
	DragAlphaTarget = 0.3
	// BarnesHutThreshold is the node count above which the charge force is approximated
	BarnesHutThreshold = 200
)

// Name resolution constants
const (
	// DefaultResolveTimeout bounds one reverse lookup
	DefaultResolveTimeout = 3000 * time.Millisecond
	// DefaultResolveConcurrency bounds simultaneous lookups for one graph
	DefaultResolveConcurrency = 8
	// PlaceholderAvatarURL is formatted with the first character of a display name
	PlaceholderAvatarURL = "https://via.placeholder.com/50?text=%s"
)

// Palette colors
const (
	ColorCurrentUser   = "#ff3e00"
	ColorSelected      = "#8b5cf6"
	ColorConnected     = "#a78bfa"
	ColorNodeDefault   = "#94a3b8"
	ColorLinkHighlight = "#8b5cf6"
	ColorLinkDefault   = "#e2e8f0"
)

// Link widths
const (
	LinkWidthHighlight = 3.0
	LinkWidthDefault   = 1.0
)

// Viewport constants
const (
	MinZoom = 0.1
	MaxZoom = 4.0
	// LabelZoomThreshold is the zoom above which every node gets a label
	LabelZoomThreshold = 1.2
)
