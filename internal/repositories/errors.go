package repositories

import (
	"context"
	"errors"
	"fmt"
	"net"

	apperr "featurestore/internal/errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// classify maps gorm, pgx and network errors onto the store error taxonomy.
// Postgres errors that are neither constraint violations nor connection
// problems are returned wrapped as-is.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.ErrNotFound, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.ErrStoreTimeout, fmt.Errorf("%s: %w", op, err))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.UniqueViolation:
			return apperr.Wrap(apperr.ErrConstraintViolation, fmt.Errorf("%s: %w", op, err))
		}
		if pgerrcode.IsConnectionException(pgErr.Code) || pgerrcode.IsOperatorIntervention(pgErr.Code) {
			return apperr.Wrap(apperr.ErrStoreUnavailable, fmt.Errorf("%s: %w", op, err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.Wrap(apperr.ErrStoreTimeout, fmt.Errorf("%s: %w", op, err))
	}

	return apperr.Wrap(apperr.ErrStoreUnavailable, fmt.Errorf("%s: %w", op, err))
}
