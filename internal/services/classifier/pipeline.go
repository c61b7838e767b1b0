// Package classifier turns an image path into a weather class and records the outcome.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/model"
	"weatherclassifier/internal/timeparts"
)

// DefaultLowConfidenceThreshold marks predictions below it as low confidence.
const DefaultLowConfidenceThreshold = 0.4

// Preprocessor loads an image and shapes it for the model.
type Preprocessor interface {
	Preprocess(path string) (*model.Tensor, error)
}

// Model produces one raw score per class for a preprocessed image.
type Model interface {
	Predict(input *model.Tensor) ([]float32, error)
}

// Recorder persists classification events.
type Recorder interface {
	Insert(entry model.AnalysisEntry) (*model.AnalysisRecord, error)
}

// Pipeline runs preprocessing, inference, normalization and history recording.
type Pipeline struct {
	preprocessor Preprocessor
	model        Model
	recorder     Recorder
	labels       []string
	threshold    float64
	loc          *time.Location
	now          func() time.Time
	logger       *logger.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithThreshold overrides the low-confidence threshold.
func WithThreshold(threshold float64) Option {
	return func(p *Pipeline) {
		p.threshold = threshold
	}
}

// WithLocation sets the zone the result timestamp is reported in.
func WithLocation(loc *time.Location) Option {
	return func(p *Pipeline) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithClock replaces time.Now as the source of prediction instants.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger enables logging of low-confidence predictions and history failures.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// New creates a Pipeline. labels must be in the order the model's outputs were trained against.
func New(pre Preprocessor, m Model, rec Recorder, labels []string, opts ...Option) (*Pipeline, error) {
	if pre == nil || m == nil {
		return nil, fmt.Errorf("%w: preprocessor and model are required", model.ErrInvalidArgument)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: at least one class label is required", model.ErrInvalidArgument)
	}

	p := &Pipeline{
		preprocessor: pre,
		model:        m,
		recorder:     rec,
		labels:       append([]string(nil), labels...),
		threshold:    DefaultLowConfidenceThreshold,
		loc:          time.Local,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Labels returns a copy of the class labels in model output order.
func (p *Pipeline) Labels() []string {
	return append([]string(nil), p.labels...)
}

// Classify predicts the weather class of the image at path.
// Preprocessing and model failures return before anything is recorded. When recordHistory
// is set and the write fails, the computed result is returned inside a *HistoryError.
func (p *Pipeline) Classify(path string, recordHistory bool) (*Result, error) {
	start := time.Now()

	input, err := p.preprocessor.Preprocess(path)
	if err != nil {
		return nil, err
	}

	raw, err := p.model.Predict(input)
	if err != nil {
		if errors.Is(err, model.ErrModelInvocationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrModelInvocationFailed, err)
	}
	if len(raw) != len(p.labels) {
		return nil, fmt.Errorf("%w: model returned %d scores for %d classes", model.ErrModelInvocationFailed, len(raw), len(p.labels))
	}

	probs, err := Softmax(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrModelInvocationFailed, err)
	}
	best := Argmax(probs)
	duration := time.Since(start).Seconds()

	predictedAt := p.now().In(p.loc)
	parts := timeparts.Decompose(predictedAt)

	confidences := make(Confidences, len(probs))
	for i, score := range probs {
		confidences[i] = ClassScore{Label: p.labels[i], Score: score}
	}

	result := &Result{
		Class:          p.labels[best],
		Confidence:     probs[best],
		Confidences:    confidences,
		Timestamp:      parts.Timestamp,
		Duration:       duration,
		TimeComponents: parts,
		ImageName:      filepath.Base(path),
		PredictedAt:    predictedAt,
	}

	if result.Confidence < p.threshold {
		warning := LowConfidenceWarning
		result.LowConfidence = true
		result.Warning = &warning
		if p.logger != nil {
			p.logger.Warning("Low confidence prediction for %s: %s (%.2f%%)", result.ImageName, result.Class, result.Confidence*100)
		}
	}

	if recordHistory {
		if err := p.Record(result); err != nil {
			return result, err
		}
	}

	return result, nil
}

// Record writes result to the history store. It is used by Classify and to retry a failed write.
func (p *Pipeline) Record(result *Result) error {
	if result == nil {
		return fmt.Errorf("%w: nothing to record", model.ErrInvalidArgument)
	}
	if p.recorder == nil {
		return &HistoryError{Result: result, Err: errors.New("no history recorder configured")}
	}

	rec, err := p.recorder.Insert(model.AnalysisEntry{
		ImageName:  result.ImageName,
		Prediction: result.Class,
		Confidence: model.Float(result.Confidence),
		Duration:   model.Float(result.Duration),
	})
	if err != nil {
		if p.logger != nil {
			p.logger.Error("Failed to record classification of %s: %v", result.ImageName, err)
		}
		return &HistoryError{Result: result, Err: err}
	}

	result.RecordID = rec.ID
	return nil
}

// Softmax normalizes raw scores into probabilities that sum to 1.
func Softmax(raw []float32) ([]float64, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty score vector")
	}

	maxScore := math.Inf(-1)
	for _, v := range raw {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite score %v", v)
		}
		maxScore = math.Max(maxScore, f)
	}

	probs := make([]float64, len(raw))
	var sum float64
	for i, v := range raw {
		probs[i] = math.Exp(float64(v) - maxScore)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}

// Argmax returns the index of the largest value, preferring the first on ties.
func Argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
