// Package view mounts one graph at a time: it normalizes the payload, runs the
// layout, resolves display names in the background and composes frames for
// whatever surface is drawing them.
package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"vouch-graph/backend/internal/graph"
	"vouch-graph/backend/internal/identity"
	"vouch-graph/backend/internal/interaction"
	"vouch-graph/backend/internal/layout"
	"vouch-graph/backend/internal/metrics"
	"vouch-graph/backend/internal/names"
	"vouch-graph/backend/internal/source"
	"vouch-graph/backend/pkg/logger"
)

// AvatarSource finds an avatar for a social handle. An empty URL means none.
type AvatarSource interface {
	AvatarURL(ctx context.Context, handle string) (string, error)
}

// maxNotices bounds the retained notice history
const maxNotices = 100

// View is safe for concurrent use. Load, SetResolutionMode and Close are
// serialized against each other.
type View struct {
	seq sync.Mutex // serializes lifecycle changes
	mu  sync.RWMutex

	model    *graph.Model
	sim      *layout.Simulation
	ctrl     *interaction.Controller
	resolver *names.Resolver
	display  map[string]names.Result
	banner   string
	notices  []names.Notice
	mode     names.Mode
	still    bool

	graphCtx      context.Context
	graphCancel   context.CancelFunc
	resolveCancel context.CancelFunc
	resolveDone   chan struct{}
	round         uint64

	identity     identity.Client
	avatars      AvatarSource
	resolverOpts []names.Option
	layoutOpts   []layout.Option
	ctrlOpts     []interaction.Option
	logger       *zap.Logger
}

// Option configures a View
type Option func(*View)

// WithResolverOptions passes options to every resolver the view creates
func WithResolverOptions(opts ...names.Option) Option {
	return func(v *View) { v.resolverOpts = append(v.resolverOpts, opts...) }
}

// WithLayoutOptions passes options to every simulation the view creates
func WithLayoutOptions(opts ...layout.Option) Option {
	return func(v *View) { v.layoutOpts = append(v.layoutOpts, opts...) }
}

// WithControllerOptions passes options to the interaction controller
func WithControllerOptions(opts ...interaction.Option) Option {
	return func(v *View) { v.ctrlOpts = append(v.ctrlOpts, opts...) }
}

// WithIdentity sets the current-user capability. nil means nobody is signed in.
func WithIdentity(c identity.Client) Option {
	return func(v *View) { v.identity = c }
}

// WithAvatarSource enables avatar discovery for nodes without an image
func WithAvatarSource(a AvatarSource) Option {
	return func(v *View) { v.avatars = a }
}

// WithMode sets the initial resolution mode
func WithMode(m names.Mode) Option {
	return func(v *View) { v.mode = m }
}

// WithoutAnimation leaves the simulation loop stopped. Callers advance the
// layout themselves through Simulation().Settle.
func WithoutAnimation() Option {
	return func(v *View) { v.still = true }
}

// WithLogger overrides the logger
func WithLogger(l *zap.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.logger = l
		}
	}
}

// New creates an empty view
func New(opts ...Option) *View {
	v := &View{
		display: map[string]names.Result{},
		logger:  logger.Named("view"),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.ctrl = interaction.NewController(nil, append([]interaction.Option{interaction.WithLogger(v.logger)}, v.ctrlOpts...)...)
	return v
}

// LoadFrom fetches a payload and loads it
func (v *View) LoadFrom(ctx context.Context, f source.Fetcher) error {
	data, err := f.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch graph: %w", err)
	}
	v.Load(ctx, data)
	return nil
}

// Load replaces the mounted graph. The previous simulation is stopped and its
// pending resolutions are cancelled before the new graph starts. The graph
// runs until ctx is done, Load is called again or the view is closed. A nil
// payload mounts an empty graph.
func (v *View) Load(ctx context.Context, data *graph.GraphData) {
	v.seq.Lock()
	defer v.seq.Unlock()

	v.teardown()

	model := graph.Normalize(data, v.logger)
	if n := len(model.Dropped); n > 0 {
		metrics.DroppedLinks.Add(float64(n))
	}
	currentUser := identity.Resolve(ctx, v.identity)

	graphCtx, graphCancel := context.WithCancel(ctx)
	sim := layout.New(model, v.layoutOpts...)

	v.mu.Lock()
	v.model = model
	v.sim = sim
	v.display = map[string]names.Result{}
	v.banner = ""
	v.notices = nil
	v.graphCtx = graphCtx
	v.graphCancel = graphCancel
	v.mu.Unlock()

	v.ctrl.Reset(model)
	v.ctrl.SetCurrentUser(currentUser)

	stats := model.Stats()
	v.logger.Info("Graph loaded",
		zap.Int("nodes", stats.NodeCount),
		zap.Int("links", stats.LinkCount),
		zap.Int("dropped_links", stats.DroppedLinks),
		zap.Int("shadowed_nodes", len(model.Shadowed)),
		zap.Bool("current_user", currentUser != ""),
	)

	if !v.still {
		sim.Start(graphCtx)
	}
	v.startResolution()
}

// teardown stops the mounted graph. Callers hold seq.
func (v *View) teardown() {
	v.stopResolution()

	v.mu.Lock()
	sim, cancel := v.sim, v.graphCancel
	v.graphCancel = nil
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sim != nil {
		sim.Stop()
	}
}

// startResolution begins a resolution round for every node. Callers hold seq.
func (v *View) startResolution() {
	v.mu.Lock()
	v.round++
	round := v.round
	ctx, cancel := context.WithCancel(v.graphCtx)
	done := make(chan struct{})
	v.resolveCancel = cancel
	v.resolveDone = done
	v.banner = ""
	v.notices = nil
	opts := append([]names.Option{
		names.WithLogger(v.logger),
		names.WithMode(v.mode),
	}, v.resolverOpts...)
	opts = append(opts, names.WithNoticeSink(v.noticeSink(round)))
	v.resolver = names.NewResolver(opts...)
	resolver := v.resolver
	nodes := append([]graph.Node(nil), v.model.Nodes...)
	v.mu.Unlock()

	go func() {
		defer close(done)
		start := time.Now()
		if err := resolver.ResolveAll(ctx, nodes, v.applier(ctx, round)); err != nil {
			v.logger.Debug("Resolution round abandoned", zap.Uint64("round", round), zap.Error(err))
			return
		}
		v.logger.Debug("Resolution round complete",
			zap.Uint64("round", round),
			zap.Int("nodes", len(nodes)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()
}

// stopResolution cancels the running round and waits for it. Callers hold seq.
func (v *View) stopResolution() {
	v.mu.Lock()
	cancel, done := v.resolveCancel, v.resolveDone
	v.resolveCancel, v.resolveDone = nil, nil
	v.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// applier returns the callback that stores results of one round. Results
// from a superseded round are discarded.
func (v *View) applier(ctx context.Context, round uint64) func(names.Result) {
	return func(res names.Result) {
		if v.avatars != nil {
			res = v.discoverAvatar(ctx, res)
		}

		v.mu.Lock()
		defer v.mu.Unlock()
		if round != v.round || ctx.Err() != nil {
			return
		}
		v.display[res.NodeID] = res
	}
}

func (v *View) discoverAvatar(ctx context.Context, res names.Result) names.Result {
	v.mu.RLock()
	node, ok := v.model.NodeByID(res.NodeID)
	v.mu.RUnlock()
	if !ok || node.ImageURL != "" || node.Handle == "" {
		return res
	}

	url, err := v.avatars.AvatarURL(ctx, node.Handle)
	if err != nil {
		v.logger.Debug("Avatar discovery failed", zap.String("node_id", node.ID), zap.Error(err))
		return res
	}
	if url != "" {
		res.AvatarURL = url
	}
	return res
}

func (v *View) noticeSink(round uint64) names.NoticeSink {
	return func(n names.Notice) {
		v.mu.Lock()
		defer v.mu.Unlock()
		if round != v.round {
			return
		}
		if v.banner == "" {
			v.banner = fmt.Sprintf("Some names could not be resolved (%s)", n)
		}
		if len(v.notices) < maxNotices {
			v.notices = append(v.notices, n)
		}
	}
}

// SetResolutionMode switches between naming lookups and plain addresses and
// re-resolves every node.
func (v *View) SetResolutionMode(m names.Mode) {
	v.seq.Lock()
	defer v.seq.Unlock()

	v.mu.Lock()
	changed := v.mode != m
	v.mode = m
	mounted := v.model != nil && v.graphCtx != nil && v.graphCtx.Err() == nil
	v.mu.Unlock()

	if !changed || !mounted {
		return
	}
	v.logger.Info("Resolution mode changed", zap.String("mode", m.String()))
	v.stopResolution()
	v.startResolution()
}

// ToggleResolutionMode flips the mode and returns the new mode's name
func (v *View) ToggleResolutionMode() string {
	next := names.ModeAddresses
	if v.Mode() == names.ModeAddresses {
		next = names.ModeLookup
	}
	v.SetResolutionMode(next)
	return next.String()
}

// Mode returns the current resolution mode
func (v *View) Mode() names.Mode {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mode
}

// WaitResolved blocks until the current resolution round settles or ctx is done
func (v *View) WaitResolved(ctx context.Context) error {
	v.mu.RLock()
	done := v.resolveDone
	v.mu.RUnlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the mounted graph
func (v *View) Close() {
	v.seq.Lock()
	defer v.seq.Unlock()
	v.teardown()
}

// ============================================================================
// Accessors and input
// ============================================================================

// Model returns the mounted model, or nil before the first Load
func (v *View) Model() *graph.Model {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.model
}

// Simulation returns the mounted simulation, or nil before the first Load
func (v *View) Simulation() *layout.Simulation {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.sim
}

// Controller returns the selection controller
func (v *View) Controller() *interaction.Controller {
	return v.ctrl
}

// Banner returns the degraded-resolution message, or "" when every lookup
// succeeded so far
func (v *View) Banner() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.banner
}

// Notices returns the failure notices of the current round
func (v *View) Notices() []names.Notice {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]names.Notice(nil), v.notices...)
}

// DisplayName returns the resolved name for id, falling back to the id
func (v *View) DisplayName(id string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if res, ok := v.display[id]; ok {
		return res.DisplayName
	}
	return id
}

// Click forwards a node click to the selection controller
func (v *View) Click(id string) {
	v.ctrl.OnNodeClick(id)
}

// DragStart pins a node under the pointer
func (v *View) DragStart(id string) {
	if sim := v.Simulation(); sim != nil {
		sim.DragStart(id)
	}
}

// DragMove moves a dragged node to world coordinates
func (v *View) DragMove(id string, x, y float64) {
	if sim := v.Simulation(); sim != nil {
		sim.DragMove(id, x, y)
	}
}

// DragEnd releases a dragged node
func (v *View) DragEnd(id string) {
	if sim := v.Simulation(); sim != nil {
		sim.DragEnd(id)
	}
}
