package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"reservation-service/internal/domain"
)

// ErrEmailTaken is returned when a customer update collides with another customer's email.
var ErrEmailTaken = errors.New("email already belongs to another customer")

// CustomerRepository implements domain.CustomerRepository using PostgreSQL.
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new PostgreSQL customer repository.
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// UpsertByEmail inserts the customer or refreshes the full name of the one
// already registered with that email. It is safe to call concurrently for
// the same email.
func (r *CustomerRepository) UpsertByEmail(ctx context.Context, email, fullName string) (string, error) {
	var id string
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO customers (id, email, full_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE
		SET full_name = EXCLUDED.full_name,
		    updated_at = EXCLUDED.updated_at
		RETURNING id::text
	`, uuid.NewString(), email, fullName, time.Now().UTC(), time.Now().UTC()).Scan(&id).Error
	if err != nil {
		return "", fmt.Errorf("upserting customer: %w", translateError(err))
	}

	return id, nil
}

// GetByID retrieves a customer by ID, or nil when absent.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	var model CustomerModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting customer by id: %w", translateError(err))
	}

	return model.ToDomain(), nil
}

// Update rewrites email and full name of an existing customer.
func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	result := r.db.WithContext(ctx).
		Model(&CustomerModel{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"email":      c.Email,
			"full_name":  c.FullName,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("updating customer %s: %w", c.ID, ErrEmailTaken)
		}
		return fmt.Errorf("updating customer: %w", translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("updating customer %s: %w", c.ID, domain.ErrNotFound)
	}

	return nil
}
