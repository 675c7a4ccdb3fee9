package names

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vouch-graph/backend/internal/graph"
	apperrors "vouch-graph/backend/pkg/errors"
)

const validAddress = "0x1234567890abcdef1234567890abcdef12345678"

// Mock implementations for testing

type mockLookup struct {
	calls     atomic.Int32
	name      string
	err       error
	block     bool
	abandoned atomic.Bool
	lookupFn  func(ctx context.Context, address string) (string, error)
}

func (m *mockLookup) LookupAddress(ctx context.Context, address string) (string, error) {
	m.calls.Add(1)
	if m.lookupFn != nil {
		return m.lookupFn(ctx, address)
	}
	if m.block {
		<-ctx.Done()
		m.abandoned.Store(true)
		return "", ctx.Err()
	}
	return m.name, m.err
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeRecorder) sink(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *noticeRecorder) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

func newTestResolver(lookup Lookup, rec *noticeRecorder, opts ...Option) *Resolver {
	base := []Option{
		WithLookup(lookup),
		WithLogger(zap.NewNop()),
		WithTimeout(50 * time.Millisecond),
	}
	if rec != nil {
		base = append(base, WithNoticeSink(rec.sink))
	}
	return NewResolver(append(base, opts...)...)
}

func TestResolve_PriorityOrder(t *testing.T) {
	lookup := &mockLookup{name: "looked.eth"}
	r := newTestResolver(lookup, nil)
	ctx := context.Background()

	tests := []struct {
		name       string
		node       graph.Node
		wantName   string
		wantSource Source
	}{
		{
			name:       "naming service wins over everything",
			node:       graph.Node{ID: "u1", NamingServiceName: "alice.eth", Handle: "alice", Label: "Alice", Address: validAddress},
			wantName:   "alice.eth",
			wantSource: SourceNamingService,
		},
		{
			name:       "handle wins over label and address",
			node:       graph.Node{ID: "u2", Handle: "bob", Label: "Bob", Address: validAddress},
			wantName:   "bob",
			wantSource: SourceHandle,
		},
		{
			name:       "label wins over address",
			node:       graph.Node{ID: "u3", Label: "User 3", Address: validAddress},
			wantName:   "User 3",
			wantSource: SourceLabel,
		},
		{
			name:       "valid address is looked up",
			node:       graph.Node{ID: "u4", Address: validAddress},
			wantName:   "looked.eth",
			wantSource: SourceLookup,
		},
		{
			name:       "id is the last resort",
			node:       graph.Node{ID: "u5"},
			wantName:   "u5",
			wantSource: SourceID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(ctx, tt.node)
			assert.Equal(t, tt.wantName, res.DisplayName)
			assert.Equal(t, tt.wantSource, res.Source)
			assert.Equal(t, tt.node.ID, res.NodeID)
		})
	}

	assert.Equal(t, int32(1), lookup.calls.Load(), "only the address-only node reaches the provider")
}

func TestResolve_InvalidAddressSkipsNetwork(t *testing.T) {
	lookup := &mockLookup{name: "never.eth"}
	rec := &noticeRecorder{}
	r := newTestResolver(lookup, rec)

	res := r.Resolve(context.Background(), graph.Node{ID: "x", Address: "0xNOTVALID"})

	assert.Equal(t, "0xNOTV…ALID", res.DisplayName)
	assert.Equal(t, SourceShortAddress, res.Source)
	assert.Equal(t, int32(0), lookup.calls.Load())
	assert.Empty(t, rec.all())
}

func TestResolve_TimeoutFallsBackOnce(t *testing.T) {
	lookup := &mockLookup{block: true}
	rec := &noticeRecorder{}
	r := newTestResolver(lookup, rec)

	start := time.Now()
	res := r.Resolve(context.Background(), graph.Node{ID: "slow", Address: validAddress})
	elapsed := time.Since(start)

	assert.Equal(t, ShortenAddress(validAddress), res.DisplayName)
	assert.Less(t, elapsed, 50*time.Millisecond+250*time.Millisecond)

	notices := rec.all()
	require.Len(t, notices, 1)
	assert.Equal(t, "slow", notices[0].NodeID)
	var timeout *apperrors.ErrResolutionTimeout
	assert.ErrorAs(t, notices[0].Err, &timeout)

	assert.Eventually(t, lookup.abandoned.Load, time.Second, 5*time.Millisecond, "provider call must be cancelled")
}

func TestResolve_EmptyAndErrorFallback(t *testing.T) {
	tests := []struct {
		name   string
		lookup *mockLookup
	}{
		{"empty result", &mockLookup{name: ""}},
		{"provider error", &mockLookup{err: fmt.Errorf("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &noticeRecorder{}
			r := newTestResolver(tt.lookup, rec)

			res := r.Resolve(context.Background(), graph.Node{ID: "n", Address: validAddress})

			assert.Equal(t, "0x1234…5678", res.DisplayName)
			notices := rec.all()
			require.Len(t, notices, 1)
			var failed *apperrors.ErrResolutionFailed
			assert.ErrorAs(t, notices[0].Err, &failed)
			assert.Equal(t, validAddress, failed.Address)
		})
	}
}

func TestResolve_NoProviderOrAddressMode(t *testing.T) {
	rec := &noticeRecorder{}
	node := graph.Node{ID: "n", Address: validAddress}

	withoutProvider := newTestResolver(nil, rec)
	assert.Equal(t, "0x1234…5678", withoutProvider.Resolve(context.Background(), node).DisplayName)

	lookup := &mockLookup{name: "n.eth"}
	addresses := newTestResolver(lookup, rec, WithMode(ModeAddresses))
	assert.Equal(t, "0x1234…5678", addresses.Resolve(context.Background(), node).DisplayName)
	assert.Equal(t, int32(0), lookup.calls.Load())

	addresses.SetMode(ModeLookup)
	assert.Equal(t, "n.eth", addresses.Resolve(context.Background(), node).DisplayName)
	assert.Empty(t, rec.all())
}

func TestResolve_CancelledParentIsSilent(t *testing.T) {
	lookup := &mockLookup{block: true}
	rec := &noticeRecorder{}
	r := newTestResolver(lookup, rec, WithTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res := r.Resolve(ctx, graph.Node{ID: "gone", Address: validAddress})
	assert.Equal(t, "0x1234…5678", res.DisplayName)
	assert.Empty(t, rec.all())
}

func TestResolve_Avatar(t *testing.T) {
	r := newTestResolver(nil, nil)

	withImage := r.Resolve(context.Background(), graph.Node{ID: "a", ImageURL: "https://img/a.png"})
	assert.Equal(t, "https://img/a.png", withImage.AvatarURL)

	placeholder := r.Resolve(context.Background(), graph.Node{ID: "bob", Handle: "zed"})
	assert.Equal(t, "https://via.placeholder.com/50?text=z", placeholder.AvatarURL)

	assert.Equal(t, "https://via.placeholder.com/50?text=%C3%A9", AvatarURL("", "éa"))
}

func TestResolveAll_AppliesEveryNodeWithinBound(t *testing.T) {
	var inFlight, peak atomic.Int32
	lookup := &mockLookup{lookupFn: func(ctx context.Context, address string) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return "name-" + address[len(address)-2:], nil
	}}
	r := newTestResolver(lookup, nil, WithConcurrency(3), WithTimeout(time.Second))

	var nodes []graph.Node
	for i := 0; i < 12; i++ {
		nodes = append(nodes, graph.Node{ID: fmt.Sprintf("n%d", i), Address: fmt.Sprintf("0x%040x", i)})
	}

	var mu sync.Mutex
	got := map[string]string{}
	err := r.ResolveAll(context.Background(), nodes, func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		got[res.NodeID] = res.DisplayName
	})

	require.NoError(t, err)
	assert.Len(t, got, 12)
	assert.Equal(t, "name-0b", got["n11"])
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestResolveAll_StopsApplyingAfterCancel(t *testing.T) {
	lookup := &mockLookup{block: true}
	r := newTestResolver(lookup, nil, WithTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	applied := 0
	err := r.ResolveAll(ctx, []graph.Node{{ID: "a", Address: validAddress}, {ID: "b"}}, func(Result) { applied++ })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, applied)
}
