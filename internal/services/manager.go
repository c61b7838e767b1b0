package services

import (
	"errors"

	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/metrics"
	"weatherclassifier/internal/model"
	"weatherclassifier/internal/services/classifier"
	"weatherclassifier/internal/services/history"
	"weatherclassifier/internal/services/retention"
	"weatherclassifier/internal/services/websocket"
)

// ClassificationEvent is broadcast to viewers after each classification.
type ClassificationEvent struct {
	Event string `json:"event"`
	*classifier.Result
}

type Manager struct {
	pipeline         *classifier.Pipeline
	historyService   *history.Service
	websocketService *websocket.HubService
	retention        *retention.Scheduler
	logger           *logger.Logger
}

func NewManager(pipeline *classifier.Pipeline, historyService *history.Service, websocketService *websocket.HubService, retention *retention.Scheduler, logger *logger.Logger) *Manager {
	return &Manager{
		pipeline:         pipeline,
		historyService:   historyService,
		websocketService: websocketService,
		retention:        retention,
		logger:           logger,
	}
}

// Classify runs the pipeline, records metrics and notifies viewers.
// Errors are returned unchanged so callers can tell them apart with errors.Is / errors.As.
func (m *Manager) Classify(path string, recordHistory bool) (*classifier.Result, error) {
	result, err := m.pipeline.Classify(path, recordHistory)
	if err != nil {
		m.countFailure(err)
		if result == nil {
			m.logger.Warning("Classification of %s failed: %v", path, err)
			return nil, err
		}
	} else if result.LowConfidence {
		metrics.ClassificationsTotal.WithLabelValues(metrics.StatusLowConfidence).Inc()
	} else {
		metrics.ClassificationsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	}

	metrics.PredictionsTotal.WithLabelValues(result.Class).Inc()
	metrics.ClassificationDuration.Observe(result.Duration)
	metrics.ClassificationConfidence.Observe(result.Confidence)

	m.logger.Info("Classified %s as %s (%.2f%%) in %.3fs", result.ImageName, result.Class, result.Confidence*100, result.Duration)
	m.SendToViewers(result)

	return result, err
}

// RetryRecord writes a result whose history write previously failed.
func (m *Manager) RetryRecord(result *classifier.Result) error {
	return m.pipeline.Record(result)
}

func (m *Manager) SendToViewers(result *classifier.Result) {
	if m.websocketService == nil {
		return
	}
	if err := m.websocketService.Publish(ClassificationEvent{Event: "classification", Result: result}); err != nil {
		m.logger.Error("Failed to publish classification: %v", err)
	}
}

func (m *Manager) countFailure(err error) {
	status := metrics.StatusModelError
	switch {
	case errors.Is(err, model.ErrImageNotFound), errors.Is(err, model.ErrImageUnreadable), errors.Is(err, model.ErrInvalidArgument):
		status = metrics.StatusBadInput
	case errors.Is(err, model.ErrStoreUnavailable):
		status = metrics.StatusStoreError
	}
	metrics.ClassificationsTotal.WithLabelValues(status).Inc()
}

func (m *Manager) GetPipeline() *classifier.Pipeline {
	return m.pipeline
}

func (m *Manager) GetHistoryService() *history.Service {
	return m.historyService
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

func (m *Manager) GetRetentionScheduler() *retention.Scheduler {
	return m.retention
}

// Stop halts background services.
func (m *Manager) Stop() {
	if m.retention != nil {
		m.retention.Stop()
	}
	if m.websocketService != nil {
		m.websocketService.Stop()
	}
	m.logger.Info("Manager stopped")
}
