package presence

import "time"

const (
	PeriodLayout          = "2006-01-02"
	DisplayDateLayout     = "02/01/2006"
	DisplayTimeLayout     = "15:04"
	DisplayDateTimeLayout = "02/01/2006, 15:04:05"
)

// MonthRecord is the per-record shape returned by FindMonth.
type MonthRecord struct {
	ID          int64     `json:"id"`
	Date        int64     `json:"date"` // unix ms
	Status      Status    `json:"status"`
	Observation *string   `json:"observation"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FindMonthResult is a tagged result: Success distinguishes "no records"
// (Success with empty Data) from "query failed".
type FindMonthResult struct {
	Success bool          `json:"success"`
	Data    []MonthRecord `json:"data"`
	Message string        `json:"message,omitempty"`
	Period  *Period       `json:"period,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// RawRecord is the storage shape served by GET /date.
type RawRecord struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	Status      Status    `json:"status"`
	Observation *string   `json:"observation"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateInput struct {
	Day         int     `json:"day"`
	Month       int     `json:"month"`
	Year        int     `json:"year"`
	Hour        int     `json:"hour"`
	Minute      int     `json:"minute"`
	Status      string  `json:"status"`
	Observation *string `json:"observation,omitempty"`
}

// CreateRequest is the HTTP body of POST /presences.
type CreateRequest struct {
	Day         *int    `json:"day"    binding:"required"`
	Month       *int    `json:"month"  binding:"required"`
	Year        *int    `json:"year"   binding:"required"`
	Hour        *int    `json:"hour"   binding:"required"`
	Minute      *int    `json:"minute" binding:"required"`
	Status      string  `json:"status" binding:"required"`
	Observation *string `json:"observation,omitempty"`
}

func (r CreateRequest) toInput() CreateInput {
	return CreateInput{
		Day:         *r.Day,
		Month:       *r.Month,
		Year:        *r.Year,
		Hour:        *r.Hour,
		Minute:      *r.Minute,
		Status:      r.Status,
		Observation: r.Observation,
	}
}

type CreatedRecord struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"` // DD/MM/YYYY
	Time        string `json:"time"` // HH:MM
	Status      Status `json:"status"`
	Observation string `json:"observation"`
	CreatedAt   string `json:"createdAt"`
}

type CreateResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    *CreatedRecord `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`

	// Code classifies failures for HTTP mapping; empty on success.
	Code Code `json:"-"`
}
