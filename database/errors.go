package database

import (
	"CareDesk/apperrors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// MySQL error numbers.
const (
	myDuplicateEntry     = 1062
	myRowIsReferenced    = 1451
	myNoReferencedRow    = 1452
	myCheckViolated      = 3819
	myRowIsReferencedOld = 1217
	myNoReferencedRowOld = 1216
)

// TranslateWriteError classifies an insert or update failure. A foreign key
// violation here means the referenced row does not exist.
func TranslateWriteError(err error, what string) error {
	return translate(err, what, false)
}

// TranslateDeleteError classifies a delete failure. A foreign key violation
// here means dependents still reference the row.
func TranslateDeleteError(err error, what string) error {
	return translate(err, what, true)
}

// IsNotFound reports whether err is gorm's record-not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func translate(err error, what string, deleting bool) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		return apperrors.NotFound("%s not found", what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperrors.Duplicate("%s already exists", what)
		case pgForeignKeyViolation:
			return foreignKey(what, deleting)
		case pgCheckViolation:
			return apperrors.InvalidValue("%s violates %s", what, pgErr.ConstraintName)
		}
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case myDuplicateEntry:
			return apperrors.Duplicate("%s already exists", what)
		case myRowIsReferenced, myRowIsReferencedOld, myNoReferencedRow, myNoReferencedRowOld:
			return foreignKey(what, deleting)
		case myCheckViolated:
			return apperrors.InvalidValue("%s violates a check constraint", what)
		}
	}

	return errors.Wrapf(err, "%s", what)
}

func foreignKey(what string, deleting bool) error {
	if deleting {
		return apperrors.ReferenceInUse("%s is still referenced", what)
	}
	return apperrors.ReferenceNotFound("%s references a missing row", what)
}
