// Package auditstore records a durable audit trail of mutating RPC calls
// (who changed which redirect or vanity path, and when) in a SQLite
// database via GORM. It is a supplement alongside, not a replacement
// for, the [store.Backend] contract: nothing in the redirect hot path
// touches it.
package auditstore

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry is one recorded mutation.
type Entry struct {
	ID        uint   `gorm:"primaryKey"`
	Time      int64  `gorm:"index"`
	Caller    string `gorm:"index"` // RPC client identity, e.g. from metadata
	Operation string `gorm:"index"` // "set_redirect", "rem_vanity", ...
	Key       string `gorm:"index"` // Id or vanity path, textual form
	Detail    string // operation-specific extra (e.g. destination URL)
}

// Store is a SQLite-backed audit sink.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the audit database under dataDir and
// runs its migration.
func Open(ctx context.Context, dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "audit.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("auditstore: open: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("auditstore: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record appends an audit entry. Time is filled in if zero.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.Time == 0 {
		e.Time = time.Now().Unix()
	}
	return s.db.WithContext(ctx).Create(&e).Error
}

// ForKey returns every recorded entry for the given key, newest first.
func (s *Store) ForKey(ctx context.Context, key string) ([]Entry, error) {
	var entries []Entry
	result := s.db.WithContext(ctx).
		Where("key = ?", key).
		Order("time DESC").
		Find(&entries)
	return entries, result.Error
}

// Since returns every recorded entry at or after t, oldest first.
func (s *Store) Since(ctx context.Context, t time.Time) ([]Entry, error) {
	var entries []Entry
	result := s.db.WithContext(ctx).
		Where("time >= ?", t.Unix()).
		Order("time ASC").
		Find(&entries)
	return entries, result.Error
}
