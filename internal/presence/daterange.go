package presence

import "time"

// MonthRange is the inclusive [Start, End] span of one calendar month.
type MonthRange struct {
	Month int
	Year  int
	Start time.Time
	End   time.Time
}

// ResolveMonthRange returns the first and last instant (millisecond
// precision) of month/year in loc. End is derived from the first instant of
// the following month, so month lengths and leap years come from the calendar.
func ResolveMonthRange(month, year int, loc *time.Location) (MonthRange, error) {
	if month < 1 || month > 12 {
		return MonthRange{}, ErrInvalid("Mês inválido. Mês deve estar entre 1-12.")
	}
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	next := start.AddDate(0, 1, 0)
	return MonthRange{
		Month: month,
		Year:  year,
		Start: start,
		End:   next.Add(-time.Millisecond),
	}, nil
}

func (r MonthRange) Key() MonthKey { return MonthKey{Year: r.Year, Month: r.Month} }

// Period renders the range as local calendar dates.
func (r MonthRange) Period() Period {
	return Period{
		Start: r.Start.Format(PeriodLayout),
		End:   r.End.Format(PeriodLayout),
	}
}

func daysIn(month, year int, loc *time.Location) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, loc).Day()
}
