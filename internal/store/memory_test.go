package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Conceptual-Machines/talea-api/internal/models"
	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "violin-1", true},
		{"dotted", "piece.viola_2", true},
		{"empty", "", false},
		{"leading dash", "-x", false},
		{"slash", "a/b", false},
		{"space", "a b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStreamName)
			}
		})
	}
}

func TestMemoryStore_LoadSaveDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Load(ctx, "violin-1")
	assert.ErrorIs(t, err, ErrStreamNotFound)

	require.NoError(t, s.Save(ctx, "violin-1", rhythm.State{NextAttack: 9, NextSegment: 3}))
	got, err := s.Load(ctx, "violin-1")
	require.NoError(t, err)
	assert.Equal(t, rhythm.State{NextAttack: 9, NextSegment: 3}, got)

	assert.ErrorIs(t, s.Save(ctx, "violin-1", rhythm.State{NextAttack: -1}), rhythm.ErrInvalidState)

	rows, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "violin-1", rows[0].Name)

	require.NoError(t, s.Delete(ctx, "violin-1"))
	assert.ErrorIs(t, s.Delete(ctx, "violin-1"), ErrStreamNotFound)
}

func TestMemoryStore_IDsNotReusedAfterDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	require.NoError(t, st.Save(ctx, "a", rhythm.State{}))
	require.NoError(t, st.Save(ctx, "b", rhythm.State{}))
	require.NoError(t, st.Delete(ctx, "a"))
	require.NoError(t, st.Save(ctx, "c", rhythm.State{}))

	rows, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].Name)
	assert.Equal(t, "c", rows[1].Name)
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
	assert.Equal(t, uint(3), rows[1].ID)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	next, err := s.Update(ctx, "cello", func(st rhythm.State) (rhythm.State, error) {
		assert.Equal(t, rhythm.State{}, st)
		return rhythm.State{NextAttack: 4, NextSegment: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, rhythm.State{NextAttack: 4, NextSegment: 1}, next)

	boom := errors.New("boom")
	_, err = s.Update(ctx, "cello", func(rhythm.State) (rhythm.State, error) {
		return rhythm.State{NextAttack: 100}, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Load(ctx, "cello")
	require.NoError(t, err)
	assert.Equal(t, rhythm.State{NextAttack: 4, NextSegment: 1}, got)

	_, err = s.Update(ctx, "bad name", func(st rhythm.State) (rhythm.State, error) { return st, nil })
	assert.ErrorIs(t, err, ErrInvalidStreamName)
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "shared", func(st rhythm.State) (rhythm.State, error) {
				st.NextAttack += 3
				st.NextSegment++
				return st, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Load(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, rhythm.State{NextAttack: 3 * workers, NextSegment: workers}, got)
}

func TestMemoryStore_GenerationLogCapped(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.logCap = 3

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordGeneration(ctx, &models.GenerationLog{
			Stream:    fmt.Sprintf("s%d", i),
			Source:    "json",
			Segments:  i,
			RequestID: fmt.Sprintf("req-%d", i),
		}))
	}

	logs := s.Generations()
	require.Len(t, logs, 3)
	assert.Equal(t, "s2", logs[0].Stream)
	assert.Equal(t, "s4", logs[2].Stream)
	assert.False(t, logs[0].CreatedAt.IsZero())
	assert.NoError(t, s.Ping(ctx))
}
