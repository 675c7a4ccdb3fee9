package source

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"vouch-graph/backend/internal/graph"
)

// Static returns the four-account sample graph. user4 carries a malformed
// address on purpose.
func Static() *graph.GraphData {
	return &graph.GraphData{
		Nodes: []graph.RawNode{
			{ID: "user1", Address: "0x1234567890abcdef1234567890abcdef12345678", Pfp: "https://via.placeholder.com/50?text=U1"},
			{ID: "user2", Address: "0xabcdef1234567890abcdef1234567890abcdef12", Pfp: "https://via.placeholder.com/50?text=U2"},
			{ID: "user3", Address: "0x7890abcdef1234567890abcdef1234567890abcd", Pfp: "https://via.placeholder.com/50?text=U3"},
			{ID: "user4", Address: "0x4567890abcdef1234567890abcdef1234567890", Pfp: "https://via.placeholder.com/50?text=U4"},
		},
		Links: []graph.RawLink{
			{Source: graph.Endpoint{ID: "user1"}, Target: graph.Endpoint{ID: "user2"}},
			{Source: graph.Endpoint{ID: "user2"}, Target: graph.Endpoint{ID: "user3"}},
			{Source: graph.Endpoint{ID: "user3"}, Target: graph.Endpoint{ID: "user1"}},
			{Source: graph.Endpoint{ID: "user1"}, Target: graph.Endpoint{ID: "user4"}},
		},
	}
}

// StaticFetcher serves Static
type StaticFetcher struct{}

// Fetch implements Fetcher
func (StaticFetcher) Fetch(ctx context.Context) (*graph.GraphData, error) {
	return Static(), nil
}

const mockHistory = 30 * 24 * time.Hour

// Random builds a graph of n accounts with social handles and m vouches
// between distinct accounts, timestamped within the last 30 days.
func Random(rng *rand.Rand, n, m int, now time.Time) *graph.GraphData {
	data := &graph.GraphData{
		Nodes: make([]graph.RawNode, 0, n),
		Links: make([]graph.RawLink, 0, m),
	}

	for i := 1; i <= n; i++ {
		node := graph.RawNode{
			ID:    fmt.Sprintf("user%d", i),
			Name:  fmt.Sprintf("User %d", i),
			Fname: fmt.Sprintf("user%d.eth", i),
			Fid:   fmt.Sprintf("%d", 1000+i),
		}
		if i%5 == 0 {
			node.Img = "/placeholder.svg?height=100&width=100"
		}
		data.Nodes = append(data.Nodes, node)
	}

	if n < 2 {
		return data
	}
	for i := 1; i <= m; i++ {
		source := rng.Intn(n) + 1
		target := rng.Intn(n-1) + 1
		if target >= source {
			target++
		}
		data.Links = append(data.Links, graph.RawLink{
			ID:        fmt.Sprintf("link%d", i),
			Source:    graph.Endpoint{ID: fmt.Sprintf("user%d", source)},
			Target:    graph.Endpoint{ID: fmt.Sprintf("user%d", target)},
			Timestamp: now.Add(-time.Duration(rng.Int63n(int64(mockHistory)))).UnixMilli(),
		})
	}
	return data
}

// RandomFetcher serves a fresh Random graph on every fetch
type RandomFetcher struct {
	Nodes int
	Links int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomFetcher creates a RandomFetcher seeded from the clock
func NewRandomFetcher(nodes, links int) *RandomFetcher {
	return &RandomFetcher{Nodes: nodes, Links: links, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Fetch implements Fetcher
func (f *RandomFetcher) Fetch(ctx context.Context) (*graph.GraphData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rng == nil {
		f.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return Random(f.rng, f.Nodes, f.Links, time.Now()), nil
}
