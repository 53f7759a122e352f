// internal/store/memory.go
//
// In-memory store of parsed games, used by the HTTP API so a game parsed
// once can be fetched again by its id.
//
// Characteristics:
//   - Stores game.Game values keyed by ID in a map; a later game with the
//     same ID replaces the earlier one.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/robalobadob/cubes/internal/game"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for parsed games.
type Store interface {
	// Save persists or replaces a game.
	Save(ctx context.Context, g game.Game) error

	// Get retrieves a game by ID or returns ErrNotFound.
	Get(ctx context.Context, id uint32) (game.Game, error)

	// List returns all games ordered by ID.
	List(ctx context.Context) ([]game.Game, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex         // guards games map
	games map[uint32]game.Game // keyed by Game.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{games: make(map[uint32]game.Game)}
}

// Save copies the pulls so later changes to the caller's slices are not visible.
func (m *memory) Save(ctx context.Context, g game.Game) error {
	g = clone(g)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
	return nil
}

func (m *memory) Get(ctx context.Context, id uint32) (game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[id]; ok {
		return clone(g), nil
	}
	return game.Game{}, ErrNotFound
}

func (m *memory) List(ctx context.Context) ([]game.Game, error) {
	m.mu.RLock()
	out := make([]game.Game, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, clone(g))
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func clone(g game.Game) game.Game {
	pulls := make([]game.Pull, len(g.Pulls))
	for i, p := range g.Pulls {
		pulls[i] = append(game.Pull(nil), p...)
	}
	return game.Game{ID: g.ID, Pulls: pulls}
}
