package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cubes/internal/game"
)

func TestMemory_SaveGet(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	g, err := game.Parse("Game 3: 1 red; 2 blue")
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, g))

	got, err := st.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	// mutating the caller's copy does not leak into the store
	g.Pulls[0][0].Count = 99
	got, err = st.Get(ctx, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Pulls[0][0].Count)
}

func TestMemory_NotFound(t *testing.T) {
	_, err := NewMemoryStore().Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ListSortedAndReplaced(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	for _, line := range []string{"Game 9: 1 red", "Game 2: 1 green", "Game 9: 5 blue"} {
		g, err := game.Parse(line)
		require.NoError(t, err)
		require.NoError(t, st.Save(ctx, g))
	}

	list, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Game 2: 1 green", list[0].String())
	assert.Equal(t, "Game 9: 5 blue", list[1].String())
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id uint32) {
			defer wg.Done()
			_ = st.Save(ctx, game.Game{ID: id, Pulls: []game.Pull{{{Count: id, Color: game.Red}}}})
			_, _ = st.List(ctx)
		}(uint32(i))
	}
	wg.Wait()

	list, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 50)
}
