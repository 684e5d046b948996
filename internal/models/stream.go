package models

import (
	"time"

	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
)

// StreamState is the persisted cursor of a named stream
type StreamState struct {
	ID          uint      `gorm:"primarykey" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	NextAttack  int       `gorm:"not null;default:0" json:"next_attack"`
	NextSegment int       `gorm:"not null;default:0" json:"next_segment"`
}

// State returns the cursor
func (s *StreamState) State() rhythm.State {
	return rhythm.State{NextAttack: s.NextAttack, NextSegment: s.NextSegment}
}

// SetState overwrites the cursor
func (s *StreamState) SetState(st rhythm.State) {
	s.NextAttack = st.NextAttack
	s.NextSegment = st.NextSegment
}

// GenerationLog records one rhythm call
type GenerationLog struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Stream        string    `gorm:"index" json:"stream"`
	Source        string    `gorm:"not null" json:"source"` // "json", "dsl", "midi"
	Segments      int       `gorm:"not null" json:"segments"`
	SlotsConsumed int       `gorm:"not null" json:"slots_consumed"`
	Leaves        int       `gorm:"not null" json:"leaves"`
	Tuplets       int       `gorm:"not null" json:"tuplets"`
	Duration      string    `json:"duration"` // total written duration, "n/d"
	DurationMS    int       `gorm:"not null" json:"duration_ms"`
	RequestID     string    `gorm:"index" json:"request_id"`
	UserID        string    `gorm:"index" json:"user_id"`
}
