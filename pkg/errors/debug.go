package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pgCheckViolation  = "23514"
	pgUniqueViolation = "23505"
)

// ErrorDump flattens an error chain and any database error inside it for logging.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	DBCode       string `json:"db_code,omitempty"`
	DBConstraint string `json:"db_constraint,omitempty"`
	DBTable      string `json:"db_table,omitempty"`
	DBColumn     string `json:"db_column,omitempty"`
	DBDetail     string `json:"db_detail,omitempty"`
	DBMessage    string `json:"db_message,omitempty"`
}

// Fields renders the dump as logger fields, skipping empty values.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_chain": d.Chain,
	}
	add := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	add("error_code", string(d.Code))
	add("db_code", d.DBCode)
	add("db_constraint", d.DBConstraint)
	add("db_table", d.DBTable)
	add("db_column", d.DBColumn)
	add("db_detail", d.DBDetail)
	add("db_message", d.DBMessage)
	return fields
}

// IsCheckViolation reports whether a CHECK constraint rejected the write,
// on Postgres (either driver) or SQLite.
func IsCheckViolation(err error) bool {
	d := Dump(err)
	return d.DBCode == pgCheckViolation
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.DBCode = pgxErr.Code
		d.DBConstraint = pgxErr.ConstraintName
		d.DBTable = pgxErr.TableName
		d.DBColumn = pgxErr.ColumnName
		d.DBDetail = pgxErr.Detail
		d.DBMessage = pgxErr.Message
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.DBCode = string(pqErr.Code)
		d.DBConstraint = pqErr.Constraint
		d.DBTable = pqErr.Table
		d.DBColumn = pqErr.Column
		d.DBDetail = pqErr.Detail
		d.DBMessage = pqErr.Message
		return d
	}

	dumpSQLite(err, &d)
	return d
}

// dumpSQLite maps the sqlite3 driver's text errors onto Postgres codes so dev
// mode and tests classify constraint failures the same way.
func dumpSQLite(err error, d *ErrorDump) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := e.Error()
		switch {
		case strings.HasPrefix(msg, "CHECK constraint failed"):
			d.DBCode = pgCheckViolation
		case strings.HasPrefix(msg, "UNIQUE constraint failed"):
			d.DBCode = pgUniqueViolation
		default:
			continue
		}
		d.DBMessage = msg
		if _, name, ok := strings.Cut(msg, ": "); ok {
			d.DBConstraint = name
		}
		return
	}
}
