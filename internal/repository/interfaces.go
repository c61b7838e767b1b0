package repository

import "weatherclassifier/internal/model"

// AnalysisRepository defines the interface for classification history operations.
type AnalysisRepository interface {
	// Schema
	Initialize() error

	// Create operations
	Insert(entry model.AnalysisEntry) (*model.AnalysisRecord, error)

	// Read operations
	GetByDate(filter model.DateFilter) ([]model.AnalysisRecord, error)
	GetByHourRange(startHour, endHour int, filter model.DateFilter) ([]model.AnalysisRecord, error)
	ListAll(limit int) ([]model.AnalysisRecord, error)
	Count() (int, error)
	ExportToFile(path string, filter model.DateFilter) (string, error)

	// Delete operations
	PurgeOlderThan(days int) (int64, error)
}
