package utils

import (
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func ToPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func FromPgUUID(u pgtype.UUID) uuid.UUID {
	if !u.Valid {
		return uuid.Nil
	}
	return uuid.UUID(u.Bytes)
}

func ToPgUUIDs(ids []uuid.UUID) []pgtype.UUID {
	out := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		out = append(out, ToPgUUID(id))
	}
	return out
}

func ToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func FromPgTimestamptz(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	if ts.InfinityModifier != pgtype.Finite {
		return time.Time{}
	}
	return ts.Time
}

// Nullable column helpers. Domain types carry guregu/null values so that
// "never checked" and "no response" serialise to JSON null.

func NullTimeFromPg(ts pgtype.Timestamptz) null.Time {
	if !ts.Valid || ts.InfinityModifier != pgtype.Finite {
		return null.Time{}
	}
	return null.TimeFrom(ts.Time)
}

func NullIntFromPg(i pgtype.Int4) null.Int {
	if !i.Valid {
		return null.Int{}
	}
	return null.IntFrom(int64(i.Int32))
}

func NullIntToPg(i null.Int) pgtype.Int4 {
	if !i.Valid {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(i.Int64), Valid: true}
}

func NullStringFromPg(t pgtype.Text) null.String {
	if !t.Valid {
		return null.String{}
	}
	return null.StringFrom(t.String)
}

func NullStringToPg(s null.String) pgtype.Text {
	if !s.Valid {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s.String, Valid: true}
}
