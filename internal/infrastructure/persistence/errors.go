package persistence

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
)

// Postgres SQLSTATE codes the stock engine reacts to.
const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// classifyError maps driver errors onto domain errors. Errors it does not
// recognise are returned unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
			return stock.ErrContention
		case pgUniqueViolation:
			return uniqueViolation(pgErr.ConstraintName + " " + pgErr.Message)
		case pgCheckViolation:
			return stock.NewValidationError("constraint %s violated", pgErr.ConstraintName)
		}
		return err
	}

	// sqlite reports constraint and locking problems as plain messages
	msg := err.Error()
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "database table is locked"):
		return stock.ErrContention
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return uniqueViolation(msg)
	case strings.Contains(msg, "CHECK constraint failed"):
		return stock.NewValidationError("%s", msg)
	}
	return err
}

func uniqueViolation(detail string) error {
	switch {
	case strings.Contains(detail, "purchase_line_id"):
		// a second lot for the same purchase line means the document was posted twice
		return stock.ErrAlreadyFinalized
	case strings.Contains(detail, "doc_no"):
		return shared.NewDomainError("ALREADY_EXISTS", "A purchase with this supplier and document number already exists")
	case strings.Contains(detail, "name"):
		return shared.NewDomainError("ALREADY_EXISTS", "A material with this name already exists")
	}
	return shared.ErrAlreadyExists
}
