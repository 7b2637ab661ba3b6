package sqlite

import (
	"database/sql"
	"time"

	"suitcase/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullToTimePtr converts a nullable epoch-seconds column to *time.Time
func nullToTimePtr(nf sql.NullFloat64) *time.Time {
	if !nf.Valid {
		return nil
	}
	t := domain.TimeOf(nf.Float64)
	return &t
}

// timePtrToNull converts *time.Time to a nullable epoch-seconds value
func timePtrToNull(t *time.Time) sql.NullFloat64 {
	if t == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: domain.Timestamp(*t), Valid: true}
}

// ============================================================================
// Row Conversion
// ============================================================================

// runRow holds the scanned columns of a runs row
type runRow struct {
	uid        string
	direction  string
	format     string
	status     string
	reason     sql.NullString
	startedAt  float64
	finishedAt sql.NullFloat64
}

// toDomain converts a scanned row to a domain.Run
func (rr runRow) toDomain() *domain.Run {
	return &domain.Run{
		UID:        rr.uid,
		Direction:  rr.direction,
		Format:     rr.format,
		Status:     domain.RunStatus(rr.status),
		Reason:     nullToString(rr.reason),
		StartedAt:  domain.TimeOf(rr.startedAt),
		FinishedAt: nullToTimePtr(rr.finishedAt),
	}
}
