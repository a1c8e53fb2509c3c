package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"reservation-service/internal/domain"
)

// CustomerService resolves the guest a reservation belongs to.
// Customer writes are not covered by the date locks; the upsert is idempotent instead.
type CustomerService struct {
	repo    domain.CustomerRepository
	timeout time.Duration
	logger  *zap.Logger
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(repo domain.CustomerRepository, timeout time.Duration, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		repo:    repo,
		timeout: timeout,
		logger:  logger,
	}
}

// Upsert returns the ID of the customer registered under email, creating it
// when absent and refreshing the full name otherwise.
func (s *CustomerService) Upsert(ctx context.Context, email, fullName string) (string, error) {
	email = domain.NormalizeEmail(email)

	id, err := withStoreTimeout(ctx, s.timeout, func(ctx context.Context) (string, error) {
		return s.repo.UpsertByEmail(ctx, email, fullName)
	})
	if err != nil {
		return "", fmt.Errorf("upserting customer: %w", err)
	}

	s.logger.Debug("customer resolved",
		zap.String("customer_id", id),
	)

	return id, nil
}

// UpdateContact rewrites email and full name of an existing customer.
func (s *CustomerService) UpdateContact(ctx context.Context, customerID, email, fullName string) error {
	customer, err := withStoreTimeout(ctx, s.timeout, func(ctx context.Context) (*domain.Customer, error) {
		return s.repo.GetByID(ctx, customerID)
	})
	if err != nil {
		return fmt.Errorf("loading customer %s: %w", customerID, err)
	}
	if customer == nil {
		return fmt.Errorf("customer %s does not exist", customerID)
	}

	customer.Email = domain.NormalizeEmail(email)
	customer.FullName = fullName

	if err := execWithStoreTimeout(ctx, s.timeout, func(ctx context.Context) error {
		return s.repo.Update(ctx, customer)
	}); err != nil {
		return fmt.Errorf("updating customer %s: %w", customerID, err)
	}

	return nil
}
