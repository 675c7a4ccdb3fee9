// Package names turns graph nodes into display names.
//
// Resolution walks a fixed priority chain: naming-service name, social
// handle, pre-known label, chain address, and finally the node id. Only a
// well-formed address reaches the network, and that lookup is bounded by a
// deadline. Failures never abort resolution; they fall back to a shortened
// address and are reported on a notice sink.
package names

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vouch-graph/backend/internal/constants"
	"vouch-graph/backend/internal/graph"
	"vouch-graph/backend/internal/metrics"
	apperrors "vouch-graph/backend/pkg/errors"
	"vouch-graph/backend/pkg/logger"
)

// Lookup is a reverse lookup provider. An empty name with a nil error means
// the address has no registered name.
type Lookup interface {
	LookupAddress(ctx context.Context, address string) (string, error)
}

// Mode selects whether valid addresses are looked up or shown shortened.
type Mode int32

const (
	// ModeLookup queries the provider for valid addresses
	ModeLookup Mode = iota
	// ModeAddresses never touches the network
	ModeAddresses
)

func (m Mode) String() string {
	if m == ModeAddresses {
		return "addresses"
	}
	return "lookup"
}

// Source names the rule that produced a display name
type Source string

const (
	SourceNamingService Source = "naming_service"
	SourceHandle        Source = "handle"
	SourceLabel         Source = "label"
	SourceLookup        Source = "lookup"
	SourceShortAddress  Source = "short_address"
	SourceID            Source = "id"
)

// Result is the display data for one node
type Result struct {
	NodeID      string
	DisplayName string
	AvatarURL   string
	Source      Source
}

// Notice reports a degraded resolution. It never blocks rendering.
type Notice struct {
	NodeID  string
	Address string
	Err     error
	At      time.Time
}

func (n Notice) String() string {
	return fmt.Sprintf("%s: %v", n.NodeID, n.Err)
}

// NoticeSink receives notices. It may be called from several goroutines.
type NoticeSink func(Notice)

// Resolver resolves display names for nodes
type Resolver struct {
	lookup      Lookup
	timeout     time.Duration
	concurrency int
	mode        atomic.Int32
	notify      NoticeSink
	logger      *zap.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLookup sets the reverse lookup provider. A nil provider disables lookups.
func WithLookup(l Lookup) Option {
	return func(r *Resolver) { r.lookup = l }
}

// WithTimeout bounds each lookup
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithConcurrency bounds simultaneous resolutions in ResolveAll
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithNoticeSink sets where failure notices are delivered
func WithNoticeSink(sink NoticeSink) Option {
	return func(r *Resolver) { r.notify = sink }
}

// WithMode sets the initial resolution mode
func WithMode(m Mode) Option {
	return func(r *Resolver) { r.mode.Store(int32(m)) }
}

// WithLogger overrides the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver with the default deadline and fan-out
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		timeout:     constants.DefaultResolveTimeout,
		concurrency: constants.DefaultResolveConcurrency,
		logger:      logger.Named("names"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the current resolution mode
func (r *Resolver) Mode() Mode {
	return Mode(r.mode.Load())
}

// SetMode switches resolution mode for subsequent resolutions
func (r *Resolver) SetMode(m Mode) {
	r.mode.Store(int32(m))
}

// Resolve produces the display name for one node. It always returns a
// non-empty name.
func (r *Resolver) Resolve(ctx context.Context, node graph.Node) Result {
	name, source := r.displayName(ctx, node)
	metrics.NameResolutions.WithLabelValues(string(source)).Inc()
	return Result{
		NodeID:      node.ID,
		DisplayName: name,
		AvatarURL:   AvatarURL(node.ImageURL, name),
		Source:      source,
	}
}

func (r *Resolver) displayName(ctx context.Context, node graph.Node) (string, Source) {
	switch {
	case node.NamingServiceName != "":
		return node.NamingServiceName, SourceNamingService
	case node.Handle != "":
		return node.Handle, SourceHandle
	case node.Label != "":
		return node.Label, SourceLabel
	case node.Address != "":
		return r.resolveAddress(ctx, node)
	case node.ID != "":
		return node.ID, SourceID
	}
	return "?", SourceID
}

func (r *Resolver) resolveAddress(ctx context.Context, node graph.Node) (string, Source) {
	short := ShortenAddress(node.Address)

	if !IsValidAddress(node.Address) {
		r.logger.Debug("Skipping lookup for malformed address",
			zap.String("node_id", node.ID),
			zap.Error(apperrors.NewInvalidAddress(node.Address)),
		)
		return short, SourceShortAddress
	}
	if r.lookup == nil || r.Mode() == ModeAddresses {
		return short, SourceShortAddress
	}

	start := time.Now()
	name, err := r.lookupWithDeadline(ctx, node.Address)
	metrics.LookupDuration.Observe(time.Since(start).Seconds())

	if err == nil && name != "" {
		return name, SourceLookup
	}

	var cancelled *apperrors.ErrContextCancelled
	if errors.As(err, &cancelled) {
		// The graph was replaced or torn down; nobody is waiting for a notice
		return short, SourceShortAddress
	}

	reason := "error"
	var timeout *apperrors.ErrResolutionTimeout
	switch {
	case err == nil:
		reason = "empty"
		err = apperrors.NewResolutionFailed(node.Address, nil)
	case errors.As(err, &timeout):
		reason = "timeout"
	default:
		err = apperrors.NewResolutionFailed(node.Address, err)
	}
	metrics.LookupFailures.WithLabelValues(reason).Inc()

	r.logger.Warn("Name lookup degraded to address",
		zap.String("node_id", node.ID),
		zap.String("reason", reason),
		zap.Error(err),
	)
	r.report(Notice{NodeID: node.ID, Address: node.Address, Err: err, At: time.Now()})

	return short, SourceShortAddress
}

// lookupWithDeadline races the provider against the deadline. The provider
// context is cancelled as soon as either side settles, so an abandoned call
// stops doing work.
func (r *Resolver) lookupWithDeadline(parent context.Context, address string) (string, error) {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	type outcome struct {
		name string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		name, err := r.lookup.LookupAddress(ctx, address)
		done <- outcome{name: name, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil && ctx.Err() != nil {
			return "", r.deadlineError(parent, address)
		}
		return o.name, o.err
	case <-ctx.Done():
		return "", r.deadlineError(parent, address)
	}
}

func (r *Resolver) deadlineError(parent context.Context, address string) error {
	if err := parent.Err(); err != nil {
		return apperrors.NewContextCancelled("resolve "+address, err)
	}
	return apperrors.NewResolutionTimeout(address, r.timeout)
}

func (r *Resolver) report(n Notice) {
	if r.notify != nil {
		r.notify(n)
	}
}

// ResolveAll resolves every node concurrently, bounded by the configured
// fan-out, handing each result to apply as it settles. apply may be called
// from several goroutines. Results are not applied once ctx is done.
func (r *Resolver) ResolveAll(ctx context.Context, nodes []graph.Node, apply func(Result)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, node := range nodes {
		node := node
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res := r.Resolve(gctx, node)
			if gctx.Err() != nil {
				return nil
			}
			apply(res)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}

// AvatarURL returns the node image, or a placeholder keyed by the first
// character of the display name.
func AvatarURL(imageURL, displayName string) string {
	if imageURL != "" {
		return imageURL
	}
	initial := "?"
	for _, c := range displayName {
		initial = string(c)
		break
	}
	return fmt.Sprintf(constants.PlaceholderAvatarURL, url.QueryEscape(initial))
}
