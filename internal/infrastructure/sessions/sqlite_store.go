package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

// dbSession is the on-device persisted session row. A single row with
// a fixed key holds the current session.
type dbSession struct {
	Key       string `gorm:"primaryKey;column:key"`
	UserJSON  string `gorm:"column:user_json"`
	Token     string `gorm:"column:token"`
	UpdatedAt time.Time
}

func (dbSession) TableName() string { return "sessions" }

const currentSessionKey = "current"

// SQLiteStore implements domain.SessionSink on a local SQLite file,
// the on-device persistence path.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the session database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err := db.AutoMigrate(&dbSession{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SetAuth implements domain.SessionSink.
func (s *SQLiteStore) SetAuth(ctx context.Context, user *domain.User, token string) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal session user: %w", err)
	}

	row := dbSession{
		Key:       currentSessionKey,
		UserJSON:  string(userJSON),
		Token:     token,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

// Current implements domain.SessionSink.
func (s *SQLiteStore) Current(ctx context.Context) (*domain.User, string, error) {
	var row dbSession
	err := s.db.WithContext(ctx).First(&row, "key = ?", currentSessionKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", domain.ErrSessionMissing
		}
		return nil, "", err
	}

	var user domain.User
	if err := json.Unmarshal([]byte(row.UserJSON), &user); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal session user: %w", err)
	}
	return &user, row.Token, nil
}

// Clear implements domain.SessionSink.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Delete(&dbSession{}, "key = ?", currentSessionKey).Error
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ domain.SessionSink = (*SQLiteStore)(nil)
