package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createReservationsTable creates the reservations table and the indexes
// behind the overlap and availability queries.
func createReservationsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_create_reservations",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS reservations (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					customer_id UUID NOT NULL REFERENCES customers(id),
					arrival_date DATE NOT NULL,
					departure_date DATE NOT NULL,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

					CONSTRAINT chk_reservations_range CHECK (departure_date >= arrival_date)
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_reservations_customer_id ON reservations(customer_id);",
				"CREATE INDEX IF NOT EXISTS idx_reservations_dates ON reservations(arrival_date, departure_date);",
			}
			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS reservations;").Error
		},
	}
}
