package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/riserecover/server/models"
)

// GormBackend stores values in the kv_entries table of a MySQL or Postgres database.
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend uses db, which must already have the kv_entries table.
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

func (g *GormBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var entry models.KVEntry
	err := g.db.WithContext(ctx).Where("kv_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return entry.Value, nil
}

func (g *GormBackend) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now()
	// Atomic upsert so the full record is replaced in a single statement.
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"kv_value": value, "updated_at": now}),
	}).Create(&models.KVEntry{Key: key, Value: value, CreatedAt: now, UpdatedAt: now}).Error
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (g *GormBackend) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
