package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"reservation-service/internal/domain"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	codeExclusionViolation = "23P01"
	codeUniqueViolation    = "23505"
	codeQueryCanceled      = "57014"
)

// translateError maps driver errors onto domain sentinels while keeping the
// original error in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeExclusionViolation:
			return fmt.Errorf("%w: constraint %s: %w", domain.ErrConflict, pgErr.ConstraintName, err)
		case codeQueryCanceled:
			return fmt.Errorf("%w: %w", domain.ErrStoreTimeout, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrStoreTimeout, err)
	}

	return err
}

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
