// Package layout runs the force-directed simulation that positions graph
// nodes.
//
// The simulation follows the usual alpha-cooling scheme: every tick moves
// alpha towards alphaTarget, applies the link, many-body and centering
// forces to node velocities and integrates. Once alpha falls below alphaMin
// the tick loop idles until something reheats it, such as a drag.
package layout

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"vouch-graph/backend/internal/constants"
	"vouch-graph/backend/internal/graph"
	"vouch-graph/backend/internal/metrics"
	"vouch-graph/backend/pkg/logger"
)

const (
	alphaMin      = 0.001
	velocityDecay = 0.4
	theta         = 0.9
)

// alphaDecay cools alpha from 1 to alphaMin in about 300 ticks
var alphaDecay = 1 - math.Pow(alphaMin, 1.0/300)

// Simulation owns node positions for one graph. All methods are safe for
// concurrent use.
type Simulation struct {
	mu sync.Mutex

	ids     []string
	index   map[string]int
	bodies  []*body
	springs []spring

	alpha       float64
	alphaTarget float64
	tick        uint64
	dragging    map[string]struct{}

	center         r2.Vec
	linkDistance   float64
	chargeStrength float64
	tickInterval   time.Duration
	rng            *rand.Rand

	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSub     int

	wake    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	running bool

	logger *zap.Logger
}

// Option configures a Simulation
type Option func(*Simulation)

// WithSize centers the layout in a width x height canvas
func WithSize(width, height float64) Option {
	return func(s *Simulation) {
		if width > 0 && height > 0 {
			s.center = r2.Vec{X: width / 2, Y: height / 2}
		}
	}
}

// WithLinkDistance sets the link rest length
func WithLinkDistance(d float64) Option {
	return func(s *Simulation) {
		if d > 0 {
			s.linkDistance = d
		}
	}
}

// WithChargeStrength sets the many-body strength
func WithChargeStrength(strength float64) Option {
	return func(s *Simulation) { s.chargeStrength = strength }
}

// WithTickInterval sets the tick loop period
func WithTickInterval(d time.Duration) Option {
	return func(s *Simulation) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithRand sets the random source used for placement and jiggle
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulation) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithLogger overrides the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a simulation for model with nodes placed on a spiral around the
// center. A nil model yields an empty simulation.
func New(model *graph.Model, opts ...Option) *Simulation {
	s := &Simulation{
		index:          make(map[string]int),
		alpha:          1,
		dragging:       make(map[string]struct{}),
		center:         r2.Vec{X: 400, Y: 300},
		linkDistance:   constants.DefaultLinkDistance,
		chargeStrength: constants.DefaultChargeStrength,
		tickInterval:   16 * time.Millisecond,
		subscribers:    make(map[int]func(Snapshot)),
		wake:           make(chan struct{}, 1),
		logger:         logger.Named("layout"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if model == nil {
		return s
	}

	s.ids = make([]string, len(model.Nodes))
	s.bodies = make([]*body, len(model.Nodes))
	for i, n := range model.Nodes {
		s.ids[i] = n.ID
		s.index[n.ID] = i
		p := phyllotaxis(i, s.center)
		p.X += (s.rng.Float64() - 0.5) * 2
		p.Y += (s.rng.Float64() - 0.5) * 2
		s.bodies[i] = &body{pos: p}
	}

	s.springs = make([]spring, 0, len(model.Links))
	for _, l := range model.Links {
		ds := float64(model.Degree(l.Source))
		dt := float64(model.Degree(l.Target))
		s.springs = append(s.springs, spring{
			source:   l.SourceIndex,
			target:   l.TargetIndex,
			strength: 1 / math.Max(1, math.Min(ds, dt)),
			bias:     ds / (ds + dt),
		})
	}

	return s
}

// Len returns the number of nodes
func (s *Simulation) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

// Alpha returns the current energy
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Settled reports whether the simulation has cooled below alphaMin and
// nothing is holding it warm
func (s *Simulation) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha < alphaMin && s.alphaTarget < alphaMin
}

// Step advances the simulation by one tick and publishes the result
func (s *Simulation) Step() Snapshot {
	s.mu.Lock()
	s.stepLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	metrics.LayoutTicks.Inc()
	metrics.LayoutAlpha.Set(snap.Alpha)
	s.publish(snap)
	return snap
}

// Settle steps until the simulation cools or maxTicks ticks have run
func (s *Simulation) Settle(maxTicks int) Snapshot {
	for i := 0; i < maxTicks && !s.Settled(); i++ {
		s.Step()
	}
	return s.Snapshot()
}

func (s *Simulation) stepLocked() {
	s.alpha += (s.alphaTarget - s.alpha) * alphaDecay
	s.tick++

	applyLinks(s.bodies, s.springs, s.linkDistance, s.alpha, s.rng)
	if len(s.bodies) > constants.BarnesHutThreshold {
		if err := applyChargeApprox(s.bodies, s.chargeStrength, s.alpha, theta, s.rng); err != nil {
			s.logger.Warn("Barnes-Hut failed, using exact charge", zap.Error(err))
			applyCharge(s.bodies, s.chargeStrength, s.alpha, s.rng)
		}
	} else {
		applyCharge(s.bodies, s.chargeStrength, s.alpha, s.rng)
	}
	applyCenter(s.bodies, s.center)

	for _, b := range s.bodies {
		if b.pinned {
			b.pos = b.fixed
			b.vel = r2.Vec{}
			continue
		}
		b.vel = r2.Scale(1-velocityDecay, b.vel)
		b.pos = r2.Add(b.pos, b.vel)
	}
}

// Restart sets alpha and wakes an idle tick loop
func (s *Simulation) Restart(alpha float64) {
	s.mu.Lock()
	s.alpha = alpha
	s.mu.Unlock()
	s.signal()
}

func (s *Simulation) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// ============================================================================
// Drag
// ============================================================================

// DragStart pins id at its current position. The first active drag reheats
// the simulation so neighbours follow the pointer.
func (s *Simulation) DragStart(id string) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	b := s.bodies[i]
	b.pinned = true
	b.fixed = b.pos
	first := len(s.dragging) == 0
	s.dragging[id] = struct{}{}
	if first {
		s.alphaTarget = constants.DragAlphaTarget
	}
	s.mu.Unlock()

	if first {
		s.signal()
	}
}

// DragMove moves the pin of a dragged node
func (s *Simulation) DragMove(id string, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dragging[id]; !ok {
		return
	}
	s.bodies[s.index[id]].fixed = r2.Vec{X: x, Y: y}
}

// DragEnd releases id. When no drag remains alpha decays naturally.
func (s *Simulation) DragEnd(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dragging[id]; !ok {
		return
	}
	delete(s.dragging, id)
	s.bodies[s.index[id]].pinned = false
	if len(s.dragging) == 0 {
		s.alphaTarget = 0
	}
}

// ============================================================================
// Tick loop
// ============================================================================

// Start launches the tick loop. It is a no-op if the loop is running.
func (s *Simulation) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	done := s.done
	interval := s.tickInterval
	s.mu.Unlock()

	go s.run(ctx, done, interval)
}

func (s *Simulation) run(ctx context.Context, done chan struct{}, interval time.Duration) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if s.Settled() {
			s.logger.Debug("Layout settled", zap.Uint64("tick", s.Snapshot().Tick))
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step()
		case <-s.wake:
		}
	}
}

// Stop halts the tick loop and waits for it to exit
func (s *Simulation) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the tick loop is active
func (s *Simulation) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
