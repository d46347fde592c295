package utils

import (
	"database/sql"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var decimalZero, _ = primitive.ParseDecimal128("0")

// DecimalZero is the Decimal128 rendering of 0, used for null money columns.
func DecimalZero() primitive.Decimal128 { return decimalZero }

// Dec128 converts a decimal column scanned as its string form (the sqlserver
// driver hands DECIMAL/NUMERIC values over as exact strings) into Decimal128.
// Null becomes 0; a malformed value is an error so the row can be skipped.
func Dec128(ns sql.NullString) (primitive.Decimal128, error) {
	if !ns.Valid || ns.String == "" {
		return decimalZero, nil
	}
	d, err := primitive.ParseDecimal128(ns.String)
	if err != nil {
		return decimalZero, fmt.Errorf("parse decimal %q: %w", ns.String, err)
	}
	return d, nil
}

// DecReader parses the decimal columns of one row, keeping the first failure
// for the caller to check once the row is assembled.
type DecReader struct{ err error }

func (r *DecReader) Read(ns sql.NullString) primitive.Decimal128 {
	d, err := Dec128(ns)
	if err != nil && r.err == nil {
		r.err = err
	}
	return d
}

func (r *DecReader) Err() error { return r.err }

// Str collapses a null string column to "".
func Str(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// TimeUTC returns the column value in UTC, or the fallback when null.
func TimeUTC(nt sql.NullTime, fallback time.Time) time.Time {
	if nt.Valid {
		return nt.Time.UTC()
	}
	return fallback.UTC()
}

// TimePtr returns a UTC pointer for a nullable timestamp, nil when null.
func TimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// Int64Ptr returns a pointer for a nullable integer column, nil when null.
func Int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}
