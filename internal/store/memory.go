package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Conceptual-Machines/talea-api/internal/models"
	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
)

const defaultLogCapacity = 1000

// MemoryStore is a process-local StateStore
type MemoryStore struct {
	mu      sync.Mutex
	streams map[string]*models.StreamState
	logs    []models.GenerationLog
	logCap  int

	// last IDs handed out; never reused after a delete
	streamSeq uint
	logSeq    uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		streams: make(map[string]*models.StreamState),
		logCap:  defaultLogCapacity,
	}
}

func (s *MemoryStore) Load(_ context.Context, name string) (rhythm.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.streams[name]
	if !ok {
		return rhythm.State{}, ErrStreamNotFound
	}
	return row.State(), nil
}

func (s *MemoryStore) Save(_ context.Context, name string, state rhythm.State) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := state.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(name, state)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.streams[name]; !ok {
		return ErrStreamNotFound
	}
	delete(s.streams, name)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.StreamState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.StreamState, 0, len(s.streams))
	for _, row := range s.streams {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, name string, fn func(rhythm.State) (rhythm.State, error)) (rhythm.State, error) {
	if err := ValidateName(name); err != nil {
		return rhythm.State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current rhythm.State
	if row, ok := s.streams[name]; ok {
		current = row.State()
	}
	next, err := fn(current)
	if err != nil {
		return current, err
	}
	s.put(name, next)
	return next, nil
}

// put stores state under name; the caller holds mu
func (s *MemoryStore) put(name string, state rhythm.State) {
	now := time.Now()
	row, ok := s.streams[name]
	if !ok {
		s.streamSeq++
		row = &models.StreamState{ID: s.streamSeq, Name: name, CreatedAt: now}
		s.streams[name] = row
	}
	row.SetState(state)
	row.UpdatedAt = now
}

// RecordGeneration keeps the most recent entries up to the store's capacity
func (s *MemoryStore) RecordGeneration(_ context.Context, entry *models.GenerationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.logSeq++
	entry.ID = s.logSeq
	s.logs = append(s.logs, *entry)
	if over := len(s.logs) - s.logCap; over > 0 {
		s.logs = append([]models.GenerationLog(nil), s.logs[over:]...)
	}
	return nil
}

// Generations returns the recorded entries, oldest first
func (s *MemoryStore) Generations() []models.GenerationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.GenerationLog(nil), s.logs...)
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
