package sqlerr

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/deppfellow/go-users-api/internal/errs"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCode(t *testing.T) {
	assert.Equal(t, UniqueViolation, MapCode("23505"))
	assert.Equal(t, ForeignKeyViolation, MapCode("23503"))
	assert.Equal(t, NotNullViolation, MapCode("23502"))
	assert.Equal(t, CheckViolation, MapCode("23514"))
	assert.Equal(t, ConnectionFailure, MapCode("08006"))
	assert.Equal(t, Other, MapCode("42P01"))
}

func TestMapSeverity(t *testing.T) {
	assert.Equal(t, SeverityFatal, MapSeverity("FATAL"))
	assert.Equal(t, SeverityWarning, MapSeverity("warning"))
	assert.Equal(t, SeverityError, MapSeverity("something else"))
}

func TestNormalize_Postgres(t *testing.T) {
	pgErr := &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "users_email_key"`,
		TableName:      "users",
		ConstraintName: "users_email_key",
	}

	err := Normalize(pkgerrors.WithStack(pgErr))

	var sqlErr *Error
	require.ErrorAs(t, err, &sqlErr)
	assert.Equal(t, UniqueViolation, sqlErr.Code)
	assert.Equal(t, "users", sqlErr.TableName)
	assert.ErrorIs(t, err, pgErr)
}

func TestNormalize_MySQL(t *testing.T) {
	myErr := &mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry 'a@b.c' for key 'users.users_email_key'",
	}

	var sqlErr *Error
	require.ErrorAs(t, Normalize(myErr), &sqlErr)
	assert.Equal(t, UniqueViolation, sqlErr.Code)
	assert.Equal(t, "users_email_key", sqlErr.ConstraintName)
	assert.Equal(t, "1062", sqlErr.DatabaseCode)

	require.ErrorAs(t, Normalize(&mysql.MySQLError{Number: 1048, Message: "Column 'name' cannot be null"}), &sqlErr)
	assert.Equal(t, NotNullViolation, sqlErr.Code)
	assert.Equal(t, "name", sqlErr.ColumnName)
}

func TestNormalize_SQLite(t *testing.T) {
	liteErr := sqlite3.Error{
		Code:         sqlite3.ErrConstraint,
		ExtendedCode: sqlite3.ErrConstraintUnique,
	}

	var sqlErr *Error
	require.ErrorAs(t, Normalize(liteErr), &sqlErr)
	assert.Equal(t, UniqueViolation, sqlErr.Code)
}

func TestNormalize_PassesThroughUnknown(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, Normalize(plain))
	assert.Nil(t, Normalize(nil))
	assert.Equal(t, Other, ErrCode(plain))
}

func TestNormalize_DoesNotWrapTwice(t *testing.T) {
	first := Normalize(&pgconn.PgError{Code: "23503"})
	assert.Same(t, first, Normalize(first))
	assert.Equal(t, ForeignKeyViolation, ErrCode(first))
}

func TestHandleError_UniqueViolation(t *testing.T) {
	err := HandleError(&pgconn.PgError{
		Code:           "23505",
		TableName:      "users",
		ConstraintName: "users_email_key",
	})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "USER_ALREADY_EXISTS", httpErr.Code)
	assert.Equal(t, "A User with this Email already exists", httpErr.Message)
}

func TestHandleError_NotNullViolation(t *testing.T) {
	err := HandleError(&pgconn.PgError{Code: "23502", TableName: "users", ColumnName: "name"})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "USER_REQUIRED", httpErr.Code)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "name", httpErr.Errors[0].Field)
}

func TestHandleError_NoRows(t *testing.T) {
	var httpErr *errs.HTTPError
	require.ErrorAs(t, HandleError(sql.ErrNoRows), &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}

func TestHandleError_Fallbacks(t *testing.T) {
	original := errs.NewNotFoundError("gone", false, nil)
	assert.Same(t, original, HandleError(original))

	var httpErr *errs.HTTPError
	require.ErrorAs(t, HandleError(errors.New("boom")), &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, "Internal Server Error", httpErr.Message)
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	assert.Equal(t, "email", extractColumnForUniqueViolation("users_email_key"))
	assert.Equal(t, "email", extractColumnForUniqueViolation("unique_users_email"))
	assert.Equal(t, "", extractColumnForUniqueViolation("pk"))
}
