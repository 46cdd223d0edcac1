// Package database is the relational collaborator around the pure
// generation core: it holds the five input collections, persists
// generated assignments, and tracks API keys and run history.
package database

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// APIKey represents the api_keys table.
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"key"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents per-key, per-day usage of the generation endpoints.
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	DatesCovered int    `gorm:"default:0" json:"dates_covered"`
	Assignments  int    `gorm:"default:0" json:"assignments"`
}

// AdminUser represents the admin_users table.
type AdminUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// InitDB opens the database and migrates the schema. DATABASE_URL selects
// Postgres; otherwise a SQLite file at dataPath is used.
func InitDB(databaseURL, dataPath string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if databaseURL != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  databaseURL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		if dataPath == "" {
			dataPath = "dispatch.db"
		}
		db, err = gorm.Open(sqlite.Open(dataPath), &gorm.Config{})
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&APIKey{}, &APIUsage{}, &AdminUser{},
		&Employee{}, &ShiftDefinition{}, &DutyPattern{}, &EmployeePattern{},
		&StaffingRequirement{}, &ScheduleAssignment{}, &GenerationRun{},
	); err != nil {
		return nil, err
	}

	logrus.WithField("driver", db.Dialector.Name()).Info("database ready")
	return db, nil
}
