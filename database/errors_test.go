package database

import (
	"CareDesk/apperrors"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslatePostgres(t *testing.T) {
	fk := errors.Wrap(&pgconn.PgError{Code: pgForeignKeyViolation}, "insert")
	assert.True(t, errors.Is(TranslateWriteError(fk, "appointment"), apperrors.ErrReferenceNotFound))
	assert.True(t, errors.Is(TranslateDeleteError(fk, "patient"), apperrors.ErrReferenceInUse))

	dup := &pgconn.PgError{Code: pgUniqueViolation}
	assert.True(t, errors.Is(TranslateWriteError(dup, "patient"), apperrors.ErrDuplicate))

	check := &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "chk_pharmacy_stock"}
	assert.True(t, errors.Is(TranslateWriteError(check, "medicine"), apperrors.ErrInvalidValue))
}

func TestTranslateMySQL(t *testing.T) {
	assert.True(t, errors.Is(TranslateWriteError(&mysqldriver.MySQLError{Number: myNoReferencedRow}, "bill"), apperrors.ErrReferenceNotFound))
	assert.True(t, errors.Is(TranslateDeleteError(&mysqldriver.MySQLError{Number: myRowIsReferenced}, "doctor"), apperrors.ErrReferenceInUse))
	assert.True(t, errors.Is(TranslateWriteError(&mysqldriver.MySQLError{Number: myDuplicateEntry}, "role"), apperrors.ErrDuplicate))
}

func TestTranslatePassthrough(t *testing.T) {
	assert.NoError(t, TranslateWriteError(nil, "x"))
	assert.True(t, errors.Is(TranslateWriteError(gorm.ErrRecordNotFound, "bill"), apperrors.ErrNotFound))

	other := errors.New("connection reset")
	err := TranslateWriteError(other, "bill")
	assert.Equal(t, apperrors.Kind(""), apperrors.KindOf(err))
	assert.True(t, errors.Is(err, other))
}
