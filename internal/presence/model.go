package presence

import (
	"database/sql"
	"time"
)

// Record is one attendance event. Records are never updated in place.
type Record struct {
	ID          int64
	OccurredAt  time.Time
	Status      Status
	Observation *string
	CreatedAt   time.Time
}

// DB row (occurred_at / created_at are unix milliseconds)
type presenceRow struct {
	ID          int64
	OccurredAt  int64
	Status      string
	Observation sql.NullString
	CreatedAt   int64
}

func (r presenceRow) toModel(loc *time.Location) Record {
	rec := Record{
		ID:         r.ID,
		OccurredAt: time.UnixMilli(r.OccurredAt).In(loc),
		Status:     Status(r.Status),
		CreatedAt:  time.UnixMilli(r.CreatedAt).In(loc),
	}
	if r.Observation.Valid {
		obs := r.Observation.String
		rec.Observation = &obs
	}
	return rec
}

func (r Record) toMonthRecord() MonthRecord {
	return MonthRecord{
		ID:          r.ID,
		Date:        r.OccurredAt.UnixMilli(),
		Status:      r.Status,
		Observation: r.Observation,
		CreatedAt:   r.CreatedAt,
	}
}

func (r Record) toRaw() RawRecord {
	return RawRecord{
		ID:          r.ID,
		Date:        r.OccurredAt,
		Status:      r.Status,
		Observation: r.Observation,
		CreatedAt:   r.CreatedAt,
	}
}

func (r Record) toCreated() CreatedRecord {
	obs := "Nenhuma"
	if r.Observation != nil {
		obs = *r.Observation
	}
	return CreatedRecord{
		ID:          r.ID,
		Date:        r.OccurredAt.Format(DisplayDateLayout),
		Time:        r.OccurredAt.Format(DisplayTimeLayout),
		Status:      r.Status,
		Observation: obs,
		CreatedAt:   r.CreatedAt.Format(DisplayDateTimeLayout),
	}
}
