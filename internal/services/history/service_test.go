package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/model"
	"weatherclassifier/internal/repository/sqlite"
)

type testEnv struct {
	service *Service
	repo    *sqlite.AnalysisRepository
	now     time.Time
}

func (e *testEnv) insertAt(t *testing.T, at time.Time, prediction string, confidence float64) {
	t.Helper()
	e.now = at
	if _, err := e.repo.Insert(model.AnalysisEntry{
		ImageName:  "img.jpg",
		Prediction: prediction,
		Confidence: model.Float(confidence),
		Duration:   model.Float(0.5),
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := sqlite.New(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	l, err := logger.New(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	env := &testEnv{}
	env.repo = sqlite.NewAnalysisRepository(db, sqlite.WithLocation(time.UTC), sqlite.WithClock(func() time.Time { return env.now }))
	env.service = NewService(env.repo, filepath.Join(dir, "exports"), l)
	return env
}

func TestService_StatisticsByDate(t *testing.T) {
	env := newTestEnv(t)
	env.insertAt(t, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC), "Rain", 0.6)
	env.insertAt(t, time.Date(2024, 2, 10, 10, 0, 0, 0, time.UTC), "Sun", 0.95)
	env.insertAt(t, time.Date(2024, 2, 11, 11, 0, 0, 0, time.UTC), "Sun", 0.3)
	env.insertAt(t, time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), "Snow", 0.9)

	s, err := env.service.StatisticsByDate(model.DateFilter{Year: 2024, Month: 2})
	if err != nil {
		t.Fatalf("StatisticsByDate failed: %v", err)
	}
	if s.Total != 3 || s.ByPrediction["Sun"] != 2 || s.AverageConfidence != 0.6167 {
		t.Errorf("Unexpected statistics: %+v", s)
	}
	if s.TotalDuration != 1.5 || s.AverageDuration != 0.5 {
		t.Errorf("Unexpected durations: %v %v", s.TotalDuration, s.AverageDuration)
	}
}

func TestService_StatisticsRequiresYear(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.service.StatisticsByDate(model.DateFilter{}); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestService_HourlyStatistics(t *testing.T) {
	env := newTestEnv(t)
	env.insertAt(t, time.Date(2024, 2, 10, 9, 15, 0, 0, time.UTC), "Rain", 0.6)
	env.insertAt(t, time.Date(2024, 2, 10, 9, 45, 0, 0, time.UTC), "Rain", 0.8)
	env.insertAt(t, time.Date(2024, 2, 11, 9, 0, 0, 0, time.UTC), "Sun", 0.9)

	hourly, err := env.service.HourlyStatistics(model.DateFilter{Year: 2024, Month: 2, Day: 10})
	if err != nil {
		t.Fatalf("HourlyStatistics failed: %v", err)
	}
	if len(hourly) != 24 {
		t.Fatalf("Expected 24 slots, got %d", len(hourly))
	}
	if hourly[9].Count != 2 || hourly[9].Predictions["Rain"] != 2 {
		t.Errorf("Unexpected slot 9: %+v", hourly[9])
	}
}

func TestService_HourlyStatisticsRequiresFullDate(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.service.HourlyStatistics(model.DateFilter{Year: 2024, Month: 2}); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestService_ExportAndPurge(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2024, 8, 15, 12, 0, 0, 0, time.UTC)
	env.insertAt(t, now.AddDate(0, 0, -40), "Rain", 0.6)
	env.insertAt(t, now.AddDate(0, 0, -5), "Sun", 0.9)
	env.now = now

	path, err := env.service.Export(model.DateFilter{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if filepath.Base(path) != ExportFileName {
		t.Errorf("Unexpected export file: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Export file missing: %v", err)
	}

	removed, err := env.service.Purge(DefaultPurgeDays)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}

	all, err := env.service.All(0)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 1 || all[0].Prediction != "Sun" {
		t.Errorf("Unexpected remaining records: %+v", all)
	}
}
