package classifier

import (
	"bytes"
	"encoding/json"
	"time"

	"weatherclassifier/internal/timeparts"
)

// LowConfidenceWarning is attached to results below the confidence threshold.
const LowConfidenceWarning = "Low confidence prediction"

// ClassScore is the normalized score of one class.
type ClassScore struct {
	Label string
	Score float64
}

// Confidences holds one score per class in label order.
// It marshals to a JSON object whose keys keep that order.
type Confidences []ClassScore

// MarshalJSON encodes the scores as an ordered {"label": score} object.
func (c Confidences) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cs := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cs.Label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(cs.Score)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Map returns the scores keyed by label.
func (c Confidences) Map() map[string]float64 {
	m := make(map[string]float64, len(c))
	for _, cs := range c {
		m[cs.Label] = cs.Score
	}
	return m
}

// Sum adds up all scores.
func (c Confidences) Sum() float64 {
	var s float64
	for _, cs := range c {
		s += cs.Score
	}
	return s
}

// Result is the outcome of classifying one image.
type Result struct {
	Class          string               `json:"class"`
	Confidence     float64              `json:"confidence"`
	Confidences    Confidences          `json:"confidences"`
	Timestamp      string               `json:"timestamp"`
	Duration       float64              `json:"duration"`
	TimeComponents timeparts.Components `json:"time_components"`
	LowConfidence  bool                 `json:"low_confidence"`
	Warning        *string              `json:"warning"`
	ImageName      string               `json:"image_name"`
	RecordID       int64                `json:"record_id,omitempty"`
	PredictedAt    time.Time            `json:"-"`
}
