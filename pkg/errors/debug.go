package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// LogFields flattens err into structured log fields: the typed code and
// reason, the unwrap chain, and any postgres diagnostics from either driver.
// Empty values are omitted.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}

	fields := map[string]any{"error": err.Error()}
	if typed := As(err); typed != nil {
		fields["error_code"] = string(typed.Code())
		if reason := typed.Reason(); reason != "" {
			fields["error_reason"] = string(reason)
		}
		if details, ok := typed.Details().(map[string]any); ok {
			if step, ok := details["step"]; ok {
				fields["step"] = step
			}
		}
	}

	var chain []string
	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T: %v", e, e))
	}
	if len(chain) > 0 {
		fields["error_chain"] = chain
	}

	for key, value := range postgresFields(err) {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}

func postgresFields(err error) map[string]string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return map[string]string{
			"pg_code":       pgErr.Code,
			"pg_constraint": pgErr.ConstraintName,
			"pg_table":      pgErr.TableName,
			"pg_detail":     pgErr.Detail,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return map[string]string{
			"pg_code":       string(pqErr.Code),
			"pg_constraint": pqErr.Constraint,
			"pg_table":      pqErr.Table,
			"pg_detail":     pqErr.Detail,
		}
	}
	return nil
}
