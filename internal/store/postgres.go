package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/talea-api/internal/models"
	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore keeps stream state in the stream_states table
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, name string) (rhythm.State, error) {
	var row models.StreamState
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rhythm.State{}, ErrStreamNotFound
	}
	if err != nil {
		return rhythm.State{}, fmt.Errorf("failed to load stream %s: %w", name, err)
	}
	return row.State(), nil
}

func (s *PostgresStore) Save(ctx context.Context, name string, state rhythm.State) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := state.Validate(); err != nil {
		return err
	}
	row := models.StreamState{Name: name}
	row.SetState(state)
	if err := upsert(s.db.WithContext(ctx), &row); err != nil {
		return fmt.Errorf("failed to save stream %s: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&models.StreamState{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete stream %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStreamNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.StreamState, error) {
	var rows []models.StreamState
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}
	return rows, nil
}

// Update locks the stream's row for the duration of fn. A missing row is inserted
// first so that concurrent first calls on a new stream queue on the same lock
func (s *PostgresStore) Update(ctx context.Context, name string, fn func(rhythm.State) (rhythm.State, error)) (rhythm.State, error) {
	if err := ValidateName(name); err != nil {
		return rhythm.State{}, err
	}

	var out rhythm.State
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&models.StreamState{Name: name}).Error
		if err != nil {
			return err
		}

		var row models.StreamState
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", name).
			First(&row).Error
		if err != nil {
			return err
		}

		next, err := fn(row.State())
		if err != nil {
			return err
		}
		row.SetState(next)
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

func (s *PostgresStore) RecordGeneration(ctx context.Context, entry *models.GenerationLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func upsert(tx *gorm.DB, row *models.StreamState) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"next_attack", "next_segment", "updated_at"}),
	}).Create(row).Error
}
