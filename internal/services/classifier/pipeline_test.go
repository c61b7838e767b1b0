package classifier

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"weatherclassifier/internal/model"
	"weatherclassifier/internal/repository/sqlite"
)

// ========================================
// Fakes
// ========================================

// filePreprocessor treats files containing "img" as decodable images.
type filePreprocessor struct {
	calls int
}

func (f *filePreprocessor) Preprocess(path string) (*model.Tensor, error) {
	f.calls++
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, model.ErrImageNotFound
	}
	if err != nil || string(data) != "img" {
		return nil, model.ErrImageUnreadable
	}
	return &model.Tensor{Shape: []int{1, 2, 2, 3}, Data: make([]float32, 12)}, nil
}

type fakeModel struct {
	scores []float32
	err    error
	calls  int
}

func (m *fakeModel) Predict(input *model.Tensor) ([]float32, error) {
	m.calls++
	return m.scores, m.err
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []model.AnalysisEntry
	err     error
}

func (r *fakeRecorder) Insert(entry model.AnalysisEntry) (*model.AnalysisRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.entries = append(r.entries, entry)
	return &model.AnalysisRecord{ID: int64(len(r.entries)), ImageName: entry.ImageName, Prediction: entry.Prediction}, nil
}

var weatherLabels = []string{"Mưa", "Nắng", "Tuyết"}

func writeImage(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}
	return path
}

func newTestPipeline(t *testing.T, scores []float32, rec Recorder, opts ...Option) (*Pipeline, *filePreprocessor, *fakeModel) {
	t.Helper()
	pre := &filePreprocessor{}
	m := &fakeModel{scores: scores}
	p, err := New(pre, m, rec, weatherLabels, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p, pre, m
}

// ========================================
// Classify Tests
// ========================================

func TestClassify_Success(t *testing.T) {
	at := time.Date(2024, 2, 10, 14, 3, 5, 0, time.UTC)
	rec := &fakeRecorder{}
	p, _, _ := newTestPipeline(t, []float32{0.5, 3.0, -1.0}, rec, WithLocation(time.UTC), WithClock(func() time.Time { return at }))

	path := writeImage(t, "sunny.jpg", "img")
	result, err := p.Classify(path, true)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if result.Class != "Nắng" {
		t.Errorf("Expected class Nắng, got %s", result.Class)
	}
	if math.Abs(result.Confidences.Sum()-1) > 1e-6 {
		t.Errorf("Confidences should sum to 1, got %v", result.Confidences.Sum())
	}

	scores := result.Confidences.Map()
	if result.Confidence != scores[result.Class] {
		t.Errorf("Confidence %v differs from map entry %v", result.Confidence, scores[result.Class])
	}
	for label, s := range scores {
		if s > result.Confidence {
			t.Errorf("Class %s scored %v above the prediction", label, s)
		}
	}
	for i, cs := range result.Confidences {
		if cs.Label != weatherLabels[i] {
			t.Errorf("Confidence %d has label %s, expected %s", i, cs.Label, weatherLabels[i])
		}
	}

	if result.LowConfidence || result.Warning != nil {
		t.Error("Did not expect a low confidence warning")
	}
	if result.Timestamp != "2024-02-10T14:03:05Z" || result.TimeComponents.Hour != 14 {
		t.Errorf("Unexpected timestamp data: %s %+v", result.Timestamp, result.TimeComponents)
	}
	if result.Duration < 0 {
		t.Errorf("Duration must be non-negative, got %v", result.Duration)
	}

	if len(rec.entries) != 1 {
		t.Fatalf("Expected 1 recorded entry, got %d", len(rec.entries))
	}
	entry := rec.entries[0]
	if entry.ImageName != "sunny.jpg" || entry.Prediction != "Nắng" || entry.Notes != nil {
		t.Errorf("Unexpected recorded entry: %+v", entry)
	}
	if entry.Confidence == nil || *entry.Confidence != result.Confidence {
		t.Errorf("Recorded confidence mismatch: %v", entry.Confidence)
	}
	if result.RecordID != 1 {
		t.Errorf("Expected record id 1, got %d", result.RecordID)
	}
}

func TestClassify_LowConfidenceIsNotAnError(t *testing.T) {
	rec := &fakeRecorder{}
	p, _, _ := newTestPipeline(t, []float32{1, 1, 1}, rec)

	result, err := p.Classify(writeImage(t, "fog.jpg", "img"), true)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if !result.LowConfidence || result.Warning == nil || *result.Warning != LowConfidenceWarning {
		t.Errorf("Expected low confidence warning, got %+v", result)
	}
	if result.Class != "Mưa" {
		t.Errorf("Ties should resolve to the first label, got %s", result.Class)
	}
	if len(rec.entries) != 1 {
		t.Errorf("Low confidence results are still recorded, got %d entries", len(rec.entries))
	}
}

func TestClassify_ThresholdOption(t *testing.T) {
	p, _, _ := newTestPipeline(t, []float32{0, 2, 0}, nil, WithThreshold(0.9))

	result, err := p.Classify(writeImage(t, "a.jpg", "img"), false)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if !result.LowConfidence {
		t.Errorf("Expected %v to be below threshold 0.9", result.Confidence)
	}
}

func TestClassify_WithoutHistory(t *testing.T) {
	rec := &fakeRecorder{}
	p, _, _ := newTestPipeline(t, []float32{0, 0, 5}, rec)

	result, err := p.Classify(writeImage(t, "snow.jpg", "img"), false)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Class != "Tuyết" {
		t.Errorf("Expected Tuyết, got %s", result.Class)
	}
	if len(rec.entries) != 0 || result.RecordID != 0 {
		t.Error("Expected no history write")
	}
}

func TestClassify_PreprocessingFailures(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		expected error
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.jpg") }, model.ErrImageNotFound},
		{"undecodable file", func(t *testing.T) string { return writeImage(t, "broken.jpg", "not an image") }, model.ErrImageUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			p, _, m := newTestPipeline(t, []float32{1, 2, 3}, rec)

			result, err := p.Classify(tt.path(t), true)
			if !errors.Is(err, tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, err)
			}
			if result != nil {
				t.Error("Expected no result on preprocessing failure")
			}
			if m.calls != 0 {
				t.Error("Model must not run after a preprocessing failure")
			}
			if len(rec.entries) != 0 {
				t.Error("History must not be written after a preprocessing failure")
			}
		})
	}
}

func TestClassify_ModelFailures(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
		err    error
	}{
		{"runtime error", nil, errors.New("forward pass failed")},
		{"wrong output size", []float32{1, 2}, nil},
		{"non-finite score", []float32{1, float32(math.NaN()), 0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			p, _, m := newTestPipeline(t, tt.scores, rec)
			m.err = tt.err

			_, err := p.Classify(writeImage(t, "a.jpg", "img"), true)
			if !errors.Is(err, model.ErrModelInvocationFailed) {
				t.Fatalf("Expected ErrModelInvocationFailed, got %v", err)
			}
			if len(rec.entries) != 0 {
				t.Error("History must not be written after a model failure")
			}
		})
	}
}

func TestClassify_HistoryFailureCanBeRetried(t *testing.T) {
	rec := &fakeRecorder{err: model.ErrStoreUnavailable}
	p, _, m := newTestPipeline(t, []float32{4, 0, 0}, rec)

	result, err := p.Classify(writeImage(t, "storm.jpg", "img"), true)
	if !errors.Is(err, model.ErrStoreUnavailable) {
		t.Fatalf("Expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, model.ErrModelInvocationFailed) || errors.Is(err, model.ErrImageUnreadable) {
		t.Error("History failure must be distinct from inference failures")
	}

	var histErr *HistoryError
	if !errors.As(err, &histErr) {
		t.Fatalf("Expected *HistoryError, got %T", err)
	}
	if histErr.Result == nil || histErr.Result.Class != "Mưa" || result != histErr.Result {
		t.Errorf("Expected the computed result to be carried, got %+v", histErr.Result)
	}

	rec.err = nil
	if err := p.Record(histErr.Result); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if m.calls != 1 {
		t.Errorf("Retry must not re-run inference, model called %d times", m.calls)
	}
	if len(rec.entries) != 1 || histErr.Result.RecordID != 1 {
		t.Errorf("Expected one recorded entry after retry, got %d", len(rec.entries))
	}
}

func TestRecord_NilResult(t *testing.T) {
	rec := &fakeRecorder{}
	p, _, _ := newTestPipeline(t, []float32{1, 0, 0}, rec)

	err := p.Record(nil)
	if !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument, got %v", err)
	}
	if len(rec.entries) != 0 {
		t.Errorf("Expected no inserts, got %d", len(rec.entries))
	}
}

func TestClassify_UnreadableImageNeverInserts(t *testing.T) {
	db, err := sqlite.New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()
	repo := sqlite.NewAnalysisRepository(db)

	p, _, _ := newTestPipeline(t, []float32{1, 0, 0}, repo)

	if _, err := p.Classify(writeImage(t, "good.jpg", "img"), true); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if _, err := p.Classify(writeImage(t, "corrupt.jpg", "garbage"), true); !errors.Is(err, model.ErrImageUnreadable) {
		t.Fatalf("Expected ErrImageUnreadable, got %v", err)
	}

	records, err := repo.ListAll(10)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected exactly 1 record, got %d", len(records))
	}
	for _, r := range records {
		if r.ImageName == "corrupt.jpg" {
			t.Error("Unreadable image must not be recorded")
		}
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(&filePreprocessor{}, &fakeModel{}, nil, nil); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty labels, got %v", err)
	}
	if _, err := New(nil, &fakeModel{}, nil, weatherLabels); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for missing preprocessor, got %v", err)
	}
}

// ========================================
// Normalization Tests
// ========================================

func TestSoftmax(t *testing.T) {
	inputs := [][]float32{
		{1, 2, 3},
		{-100, 0, 100},
		{1000, 1000, 999},
		{0},
	}

	for _, in := range inputs {
		probs, err := Softmax(in)
		if err != nil {
			t.Fatalf("Softmax(%v) failed: %v", in, err)
		}
		var sum float64
		for _, p := range probs {
			if p < 0 || p > 1 {
				t.Errorf("Softmax(%v) produced out-of-range value %v", in, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("Softmax(%v) sums to %v", in, sum)
		}
	}

	if _, err := Softmax(nil); err == nil {
		t.Error("Expected error for empty input")
	}
}

func TestArgmax_FirstOnTies(t *testing.T) {
	if got := Argmax([]float64{0.2, 0.4, 0.4}); got != 1 {
		t.Errorf("Expected index 1, got %d", got)
	}
}

func TestConfidences_MarshalJSONKeepsOrder(t *testing.T) {
	c := Confidences{{"Tuyết", 0.1}, {"Mưa", 0.7}, {"Nắng", 0.2}}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	if !(strings.Index(s, "Tuyết") < strings.Index(s, "Mưa") && strings.Index(s, "Mưa") < strings.Index(s, "Nắng")) {
		t.Errorf("Expected label order preserved, got %s", s)
	}

	var decoded map[string]float64
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Output is not a JSON object: %v", err)
	}
	if decoded["Mưa"] != 0.7 {
		t.Errorf("Unexpected decoded value: %v", decoded)
	}
}
