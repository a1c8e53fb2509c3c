// Package migrations provides database migrations using gormigrate.
package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrations returns all database migrations.
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		createCustomersTable(),
		createReservationsTable(),
		addReservationExclusion(),
	}
}

// Run executes all pending migrations.
func Run(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, Migrations())
	return m.Migrate()
}

// Pending reports the IDs of migrations not yet applied.
func Pending(db *gorm.DB) ([]string, error) {
	var applied []string
	if db.Migrator().HasTable(gormigrate.DefaultOptions.TableName) {
		err := db.Table(gormigrate.DefaultOptions.TableName).
			Pluck(gormigrate.DefaultOptions.IDColumnName, &applied).Error
		if err != nil {
			return nil, err
		}
	}

	done := make(map[string]bool, len(applied))
	for _, id := range applied {
		done[id] = true
	}

	var pending []string
	for _, m := range Migrations() {
		if !done[m.ID] {
			pending = append(pending, m.ID)
		}
	}

	return pending, nil
}

// Rollback rolls back the last migration.
func Rollback(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, Migrations())
	return m.RollbackLast()
}
