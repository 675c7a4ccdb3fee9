package layout

// Position is the placement of one node at a given tick
type Position struct {
	ID     string
	X, Y   float64
	Pinned bool
}

// Snapshot is an immutable view of the simulation after a tick. Positions
// follow the node order of the model the simulation was built from.
type Snapshot struct {
	Tick      uint64
	Alpha     float64
	Positions []Position
	index     map[string]int
}

// Position looks up a node by id
func (s Snapshot) Position(id string) (Position, bool) {
	i, ok := s.index[id]
	if !ok {
		return Position{}, false
	}
	return s.Positions[i], true
}

// Snapshot returns a copy of the current state
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulation) snapshotLocked() Snapshot {
	positions := make([]Position, len(s.bodies))
	for i, b := range s.bodies {
		positions[i] = Position{ID: s.ids[i], X: b.pos.X, Y: b.pos.Y, Pinned: b.pinned}
	}
	// index is never written after New, so sharing it keeps snapshots immutable
	return Snapshot{Tick: s.tick, Alpha: s.alpha, Positions: positions, index: s.index}
}

// OnTick registers fn to receive every published snapshot. fn runs on the
// ticking goroutine and must not block. The returned func unsubscribes.
func (s *Simulation) OnTick(fn func(Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Simulation) publish(snap Snapshot) {
	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
