package model

import "time"

// AnalysisRecord is one persisted classification event.
// Year..Second are derived from Timestamp when the row is written and never drift from it.
type AnalysisRecord struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Day        int       `json:"day"`
	Hour       int       `json:"hour"`
	Minute     int       `json:"minute"`
	Second     int       `json:"second"`
	ImageName  string    `json:"image_name"`
	Prediction string    `json:"prediction"`
	Confidence *float64  `json:"confidence"`
	Duration   *float64  `json:"duration"`
	Notes      *string   `json:"notes"`
}

// AnalysisEntry holds the caller-supplied part of a new record.
type AnalysisEntry struct {
	ImageName  string
	Prediction string
	Confidence *float64
	Duration   *float64
	Notes      *string
}

// DateFilter narrows history queries by calendar fields. Zero means "any".
type DateFilter struct {
	Year  int
	Month int
	Day   int
}

// Float returns a pointer to v, for optional record fields.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to v, for optional record fields.
func String(v string) *string {
	return &v
}
