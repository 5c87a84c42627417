package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// nullText creates a pgtype.Text from an optional string
func nullText(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// textPtr converts a pgtype.Text back to an optional string
func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// nullTimestamptz creates a pgtype.Timestamptz from an optional time
func nullTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

// timePtr converts a pgtype.Timestamptz back to an optional time
func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	tm := t.Time.UTC()
	return &tm
}

// nullInt4 creates a pgtype.Int4 from an optional int
func nullInt4(n *int) pgtype.Int4 {
	if n == nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(*n), Valid: true}
}

// intPtr converts a pgtype.Int4 back to an optional int
func intPtr(n pgtype.Int4) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}
