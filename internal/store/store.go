package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Conceptual-Machines/talea-api/internal/models"
	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
)

var (
	ErrStreamNotFound    = errors.New("stream not found")
	ErrInvalidStreamName = errors.New("invalid stream name")
)

var streamNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// StateStore keeps the cursor of named streams between requests
type StateStore interface {
	// Load returns ErrStreamNotFound for unknown streams
	Load(ctx context.Context, name string) (rhythm.State, error)
	Save(ctx context.Context, name string, state rhythm.State) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]models.StreamState, error)

	// Update runs fn on the current cursor (the zero state for unknown streams) and
	// stores its result. Concurrent updates of one stream are serialized and nothing
	// is stored when fn fails
	Update(ctx context.Context, name string, fn func(rhythm.State) (rhythm.State, error)) (rhythm.State, error)

	RecordGeneration(ctx context.Context, entry *models.GenerationLog) error
	Ping(ctx context.Context) error
}

// ValidateName rejects names that cannot be used in a URL path segment
func ValidateName(name string) error {
	if !streamNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidStreamName, name)
	}
	return nil
}
