// Package db provides GORM-based database operations for aura-core.
package db

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: Daily summary journal
		{
			ID: "001_daily_summaries",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&SummaryRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("daily_summaries")
			},
		},

		// Migration 002: Local mood journal
		{
			ID: "002_mood_records",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&MoodRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("mood_records")
			},
		},
	})

	return m.Migrate()
}
