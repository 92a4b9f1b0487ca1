// Package sqlerr classifies database driver errors.
//
// PostgreSQL (pgx), MySQL and SQLite each report constraint and
// connection failures in their own shape. Normalize turns any of them
// into a single *Error carrying a driver-independent Code, so callers
// can log a stable error class and HandleError can turn it into an
// HTTP error.
package sqlerr

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// Code is a driver-independent error class.
type Code string

const (
	Other               Code = "other"
	UniqueViolation     Code = "unique_violation"
	ForeignKeyViolation Code = "foreign_key_violation"
	NotNullViolation    Code = "not_null_violation"
	CheckViolation      Code = "check_violation"
	ConnectionFailure   Code = "connection_failure"
)

// Severity mirrors the PostgreSQL severity levels. MySQL and SQLite errors
// are always reported as SeverityError.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// Error is a classified database error. The original driver error is
// reachable through Unwrap.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string
	driverErr      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Severity, e.DatabaseCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// MapCode maps a PostgreSQL SQLSTATE to a Code.
func MapCode(sqlState string) Code {
	switch sqlState {
	case "23505":
		return UniqueViolation
	case "23503":
		return ForeignKeyViolation
	case "23502":
		return NotNullViolation
	case "23514":
		return CheckViolation
	}

	// Class 08: connection exception.
	if strings.HasPrefix(sqlState, "08") {
		return ConnectionFailure
	}

	return Other
}

// MapSeverity maps a PostgreSQL severity string to a Severity.
func MapSeverity(severity string) Severity {
	switch Severity(strings.ToUpper(severity)) {
	case SeverityFatal:
		return SeverityFatal
	case SeverityPanic:
		return SeverityPanic
	case SeverityWarning:
		return SeverityWarning
	case SeverityNotice:
		return SeverityNotice
	case SeverityDebug:
		return SeverityDebug
	case SeverityInfo:
		return SeverityInfo
	case SeverityLog:
		return SeverityLog
	default:
		return SeverityError
	}
}

// MySQL server error numbers.
const (
	mysqlDupEntry           = 1062
	mysqlBadNull            = 1048
	mysqlNoDefault          = 1364
	mysqlRowIsReferenced    = 1451
	mysqlNoReferencedRow    = 1452
	mysqlRowIsReferencedOld = 1217
	mysqlNoReferencedRowOld = 1216
	mysqlCheckViolated      = 3819
	mysqlAccessDenied       = 1045
)

func mapMySQLNumber(number uint16) Code {
	switch number {
	case mysqlDupEntry:
		return UniqueViolation
	case mysqlBadNull, mysqlNoDefault:
		return NotNullViolation
	case mysqlRowIsReferenced, mysqlNoReferencedRow, mysqlRowIsReferencedOld, mysqlNoReferencedRowOld:
		return ForeignKeyViolation
	case mysqlCheckViolated:
		return CheckViolation
	case mysqlAccessDenied:
		return ConnectionFailure
	default:
		return Other
	}
}

var (
	// Duplicate entry 'a@b.c' for key 'users.users_email_key'
	mysqlKeyPattern = regexp.MustCompile(`for key '(?:[^'.]+\.)?([^']+)'`)
	// Column 'name' cannot be null
	mysqlColumnPattern = regexp.MustCompile(`Column '([^']+)'`)
	// UNIQUE constraint failed: users.email
	sqliteTargetPattern = regexp.MustCompile(`constraint failed: (\w+)\.(\w+)`)
)

// ConvertPgError converts a pgconn.PgError into an Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// ConvertMySQLError converts a go-sql-driver MySQLError into an Error.
// MySQL does not report table or column separately, so both are recovered
// from the message where possible.
func ConvertMySQLError(src *mysql.MySQLError) *Error {
	out := &Error{
		Code:         mapMySQLNumber(src.Number),
		Severity:     SeverityError,
		DatabaseCode: fmt.Sprintf("%d", src.Number),
		Message:      src.Message,
		driverErr:    src,
	}

	if m := mysqlKeyPattern.FindStringSubmatch(src.Message); len(m) > 1 {
		out.ConstraintName = m[1]
	}
	if m := mysqlColumnPattern.FindStringSubmatch(src.Message); len(m) > 1 {
		out.ColumnName = m[1]
	}

	return out
}

// ConvertSQLiteError converts a go-sqlite3 Error into an Error.
func ConvertSQLiteError(src sqlite3.Error) *Error {
	out := &Error{
		Code:         Other,
		Severity:     SeverityError,
		DatabaseCode: fmt.Sprintf("%d", int(src.ExtendedCode)),
		Message:      src.Error(),
		driverErr:    src,
	}

	switch src.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		out.Code = UniqueViolation
	case sqlite3.ErrConstraintForeignKey:
		out.Code = ForeignKeyViolation
	case sqlite3.ErrConstraintNotNull:
		out.Code = NotNullViolation
	case sqlite3.ErrConstraintCheck:
		out.Code = CheckViolation
	}

	if src.Code == sqlite3.ErrCantOpen {
		out.Code = ConnectionFailure
	}

	if m := sqliteTargetPattern.FindStringSubmatch(out.Message); len(m) > 2 {
		out.TableName = m[1]
		out.ColumnName = m[2]
	}

	return out
}

// Normalize returns err classified as an *Error when the driver reported a
// recognizable failure, and err unchanged otherwise. Already normalized
// errors are not wrapped twice.
func Normalize(err error) error {
	if err == nil {
		return nil
	}

	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ConvertPgError(pgErr)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return ConvertMySQLError(myErr)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return ConvertSQLiteError(liteErr)
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Code: UniqueViolation, Severity: SeverityError, Message: err.Error(), driverErr: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &Error{Code: ForeignKeyViolation, Severity: SeverityError, Message: err.Error(), driverErr: err}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &Error{Code: CheckViolation, Severity: SeverityError, Message: err.Error(), driverErr: err}
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, mysql.ErrInvalidConn), isConnectError(err):
		return &Error{Code: ConnectionFailure, Severity: SeverityError, Message: err.Error(), driverErr: err}
	}

	return err
}

func isConnectError(err error) bool {
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
