package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("record not found")

// ConstraintError reports a write rejected by an integrity constraint
// (SQLSTATE class 23: foreign key, not null, unique, check).
type ConstraintError struct {
	Code       string
	Constraint string
	Column     string
	Detail     string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("constraint %s violated (%s)", e.Constraint, e.Code)
	}
	return fmt.Sprintf("constraint violated (%s): %s", e.Code, e.Detail)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

const (
	codeNotNull    = "23502"
	codeForeignKey = "23503"
	codeUnique     = "23505"
	codeCheck      = "23514"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) == 5 && pgErr.Code[:2] == "23" {
		return &ConstraintError{
			Code:       pgErr.Code,
			Constraint: pgErr.ConstraintName,
			Column:     pgErr.ColumnName,
			Detail:     pgErr.Detail,
			Err:        err,
		}
	}
	return err
}
