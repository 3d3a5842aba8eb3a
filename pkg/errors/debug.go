package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrorDump is the log-only view of an error chain. None of it reaches clients.
type ErrorDump struct {
	TopMessage string
	Code       Code
	Chain      []string
	// Kind names a gorm sentinel found in the chain, e.g. "duplicated_key".
	Kind string
	DB   *DBError
}

// DBError carries the driver fields of a Postgres error.
type DBError struct {
	Code       string
	Constraint string
	Table      string
	Column     string
	Detail     string
	Message    string
}

var gormKinds = []struct {
	err  error
	kind string
}{
	{gorm.ErrRecordNotFound, "record_not_found"},
	{gorm.ErrDuplicatedKey, "duplicated_key"},
	{gorm.ErrForeignKeyViolated, "foreign_key_violated"},
	{gorm.ErrCheckConstraintViolated, "check_constraint_violated"},
	{gorm.ErrInvalidTransaction, "invalid_transaction"},
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
	for _, k := range gormKinds {
		if errors.Is(err, k.err) {
			d.Kind = k.kind
			break
		}
	}
	d.DB = dbError(err)
	return d
}

func dbError(err error) *DBError {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &DBError{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &DBError{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}

// Fields flattens the dump into log fields, skipping empty values.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error": d.TopMessage}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if len(d.Chain) > 1 {
		fields["error_chain"] = d.Chain
	}
	if d.Kind != "" {
		fields["error_kind"] = d.Kind
	}
	if d.DB != nil {
		for k, v := range map[string]string{
			"pg_code":       d.DB.Code,
			"pg_constraint": d.DB.Constraint,
			"pg_table":      d.DB.Table,
			"pg_column":     d.DB.Column,
			"pg_detail":     d.DB.Detail,
			"pg_message":    d.DB.Message,
		} {
			if v != "" {
				fields[k] = v
			}
		}
	}
	return fields
}
