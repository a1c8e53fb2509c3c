package postgres

import (
	"time"

	"reservation-service/internal/domain"
)

// CustomerModel is the GORM model for the customers table.
type CustomerModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	FullName  string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for CustomerModel.
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts CustomerModel to domain.Customer.
func (m *CustomerModel) ToDomain() *domain.Customer {
	return &domain.Customer{
		ID:       m.ID,
		Email:    m.Email,
		FullName: m.FullName,
	}
}

// ReservationModel is the GORM model for the reservations table.
// Dates are stored as DATE columns; the time part is always midnight UTC.
type ReservationModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	CustomerID    string    `gorm:"type:uuid;not null;index"`
	ArrivalDate   time.Time `gorm:"type:date;not null"`
	DepartureDate time.Time `gorm:"type:date;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for ReservationModel.
func (ReservationModel) TableName() string {
	return "reservations"
}

// ToDomain converts ReservationModel to domain.Reservation.
func (m *ReservationModel) ToDomain() *domain.Reservation {
	return &domain.Reservation{
		ID:            m.ID,
		CustomerID:    m.CustomerID,
		ArrivalDate:   domain.DateOf(m.ArrivalDate),
		DepartureDate: domain.DateOf(m.DepartureDate),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ReservationFromDomain creates a ReservationModel from domain.Reservation.
func ReservationFromDomain(r *domain.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		ArrivalDate:   r.ArrivalDate.Time(),
		DepartureDate: r.DepartureDate.Time(),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// overlapRow is the scan target of the overlap audit query.
type overlapRow struct {
	FirstID      string
	SecondID     string
	OverlapStart time.Time
	OverlapEnd   time.Time
}
