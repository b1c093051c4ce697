// Package postgres persists Function records through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pratai-api/internal/core/functions"
)

// New opens the database and migrates the functions table.
func New(dsn string, lg zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&functions.Function{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	lg.Info().Msg("database ready")
	return db, nil
}

type Store struct {
	db *gorm.DB
	lg zerolog.Logger
}

var _ functions.Store = (*Store)(nil)

func NewStore(db *gorm.DB, lg zerolog.Logger) *Store {
	return &Store{
		db: db,
		lg: lg.With().Str("adapter", "postgres").Logger(),
	}
}

func (s *Store) Create(ctx context.Context, fn *functions.Function) error {
	if err := s.db.WithContext(ctx).Create(fn).Error; err != nil {
		return fmt.Errorf("create function record: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*functions.Function, error) {
	var fn functions.Function
	err := s.db.WithContext(ctx).First(&fn, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, functions.ErrNotFound
		}
		return nil, fmt.Errorf("get function record: %w", err)
	}
	return &fn, nil
}

func (s *Store) List(ctx context.Context) ([]functions.Function, error) {
	var fns []functions.Function
	if err := s.db.WithContext(ctx).Find(&fns).Error; err != nil {
		return nil, fmt.Errorf("list function records: %w", err)
	}
	return fns, nil
}

// Delete is idempotent: removing an id that was never persisted succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Delete(&functions.Function{}, "id = ?", id).Error
	if err != nil {
		return fmt.Errorf("delete function record: %w", err)
	}
	return nil
}
