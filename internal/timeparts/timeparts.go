// Package timeparts breaks an instant down into the calendar fields used to
// index and report classification history.
package timeparts

import "time"

const (
	isoLayout       = "2006-01-02T15:04:05Z07:00"
	formattedLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05"
)

// Components is the structured breakdown of a single instant.
type Components struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	Day           int    `json:"day"`
	Hour          int    `json:"hour"`
	Minute        int    `json:"minute"`
	Second        int    `json:"second"`
	Timestamp     string `json:"timestamp"`
	Formatted     string `json:"formatted"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	WeekDay       string `json:"week_day"`
	DayName       string `json:"day_name"`
	MonthName     string `json:"month_name"`
	ISOWeek       int    `json:"iso_week"`
	Quarter       int    `json:"quarter"`
	DayOfYear     int    `json:"day_of_year"`
	UnixTimestamp int64  `json:"unix_timestamp"`
}

// Decompose derives every field from t in t's own location.
func Decompose(t time.Time) Components {
	_, week := t.ISOWeek()
	weekday := t.Weekday().String()

	return Components{
		Year:          t.Year(),
		Month:         int(t.Month()),
		Day:           t.Day(),
		Hour:          t.Hour(),
		Minute:        t.Minute(),
		Second:        t.Second(),
		Timestamp:     t.Format(isoLayout),
		Formatted:     t.Format(formattedLayout),
		Date:          t.Format(dateLayout),
		Time:          t.Format(timeLayout),
		WeekDay:       weekday,
		DayName:       weekday,
		MonthName:     t.Month().String(),
		ISOWeek:       week,
		Quarter:       Quarter(t.Month()),
		DayOfYear:     t.YearDay(),
		UnixTimestamp: t.Unix(),
	}
}

// Quarter returns the 1-indexed calendar quarter of m.
func Quarter(m time.Month) int {
	return (int(m)-1)/3 + 1
}

// Instant rebuilds the second-precision instant from the calendar fields.
func (c Components) Instant(loc *time.Location) time.Time {
	return time.Date(c.Year, time.Month(c.Month), c.Day, c.Hour, c.Minute, c.Second, 0, loc)
}
