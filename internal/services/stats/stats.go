// Package stats aggregates classification history into summary and per-hour figures.
package stats

import (
	"math"

	"weatherclassifier/internal/model"
)

// Statistics summarizes a set of history records.
type Statistics struct {
	Total             int            `json:"total"`
	ByPrediction      map[string]int `json:"by_prediction"`
	AverageConfidence float64        `json:"average_confidence"`
	MaxConfidence     float64        `json:"max_confidence"`
	MinConfidence     float64        `json:"min_confidence"`
	TotalDuration     float64        `json:"total_duration"`
	AverageDuration   float64        `json:"average_duration"`
}

// HourlyStatistics summarizes the records that fall into one hour of the day.
type HourlyStatistics struct {
	Count             int            `json:"count"`
	Predictions       map[string]int `json:"predictions"`
	AverageConfidence float64        `json:"average_confidence"`
	TotalDuration     float64        `json:"total_duration"`
}

// For computes summary statistics over records.
// Confidence figures only consider records that carry a confidence; if none do, all three are 0.
// AverageDuration divides by the total record count, not by the records that carry a duration.
func For(records []model.AnalysisRecord) Statistics {
	s := Statistics{
		Total:        len(records),
		ByPrediction: map[string]int{},
	}
	if len(records) == 0 {
		return s
	}

	var (
		sumConfidence float64
		withConf      int
		maxConf       = math.Inf(-1)
		minConf       = math.Inf(1)
		totalDuration float64
	)

	for _, rec := range records {
		s.ByPrediction[rec.Prediction]++

		if rec.Confidence != nil {
			c := *rec.Confidence
			sumConfidence += c
			withConf++
			maxConf = math.Max(maxConf, c)
			minConf = math.Min(minConf, c)
		}
		if rec.Duration != nil {
			totalDuration += *rec.Duration
		}
	}

	if withConf > 0 {
		s.AverageConfidence = round(sumConfidence/float64(withConf), 4)
		s.MaxConfidence = round(maxConf, 4)
		s.MinConfidence = round(minConf, 4)
	}
	s.TotalDuration = round(totalDuration, 2)
	s.AverageDuration = round(totalDuration/float64(len(records)), 4)

	return s
}

// Hourly buckets records by their hour field. All 24 slots are always present.
//
// The slot average is updated incrementally as (avg*(count-1) + c) / count, where count
// includes records without a confidence. It equals the true mean only when every record
// in the slot carries a confidence; otherwise records without one pull it towards zero.
func Hourly(records []model.AnalysisRecord) map[int]HourlyStatistics {
	hourly := make(map[int]HourlyStatistics, 24)
	for h := 0; h < 24; h++ {
		hourly[h] = HourlyStatistics{Predictions: map[string]int{}}
	}

	for _, rec := range records {
		slot, ok := hourly[rec.Hour]
		if !ok {
			continue
		}

		slot.Count++
		slot.Predictions[rec.Prediction]++

		if rec.Confidence != nil {
			n := float64(slot.Count)
			slot.AverageConfidence = (slot.AverageConfidence*(n-1) + *rec.Confidence) / n
		}
		if rec.Duration != nil {
			slot.TotalDuration += *rec.Duration
		}

		hourly[rec.Hour] = slot
	}

	return hourly
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
