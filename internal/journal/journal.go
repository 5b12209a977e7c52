// Package journal persists a local audit trail of settled alert mutations:
// what the operator did, whether the backend confirmed it, and the resulting
// version. The journal is advisory; write failures never block triage.
package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry records one settled mutation.
type Entry struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UUID    string `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	AlertID string `gorm:"index" json:"alert_id"`
	Action  string `gorm:"type:varchar(32)" json:"action"`
	Outcome string `gorm:"type:varchar(32)" json:"outcome"`
	Detail  string `gorm:"type:text" json:"detail"`
	Version int64  `json:"version"`

	CreatedAt time.Time `json:"created_at"`
}

// Outcome values recorded per entry.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeConflict  = "conflict"
	OutcomeFailed    = "failed"
)

// Store wraps the journal database.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// Open connects to the journal database and runs migrations. A DSN starting
// with postgres:// selects the postgres driver; anything else is treated as a
// sqlite path.
func Open(dsn string, log zerolog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal schema: %w", err)
	}

	return &Store{db: db, logger: log.With().Str("component", "journal").Logger()}, nil
}

// RecordMutation appends one settled mutation. Implements the coordinator's
// JournalRecorder interface.
func (s *Store) RecordMutation(alertID, action, outcome, detail string, version int64) error {
	entry := &Entry{
		UUID:    uuid.New().String(),
		AlertID: alertID,
		Action:  action,
		Outcome: outcome,
		Detail:  detail,
		Version: version,
	}
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record mutation: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	var entries []Entry
	if err := s.db.Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ForAlert returns all entries for one alert, oldest first.
func (s *Store) ForAlert(alertID string) ([]Entry, error) {
	var entries []Entry
	if err := s.db.Where("alert_id = ?", alertID).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
