// Package history exposes the query, aggregation, export and retention operations
// over recorded classifications.
package history

import (
	"fmt"
	"path/filepath"

	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/model"
	"weatherclassifier/internal/repository"
	"weatherclassifier/internal/services/stats"
)

// ExportFileName is the name of the file written by Export.
const ExportFileName = "analysis_history_export.json"

// DefaultPurgeDays is used by callers that do not specify a retention age.
const DefaultPurgeDays = 30

// Service wraps an AnalysisRepository with the aggregation operations built on it.
type Service struct {
	repo      repository.AnalysisRepository
	exportDir string
	logger    *logger.Logger
}

func NewService(repo repository.AnalysisRepository, exportDir string, logger *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		exportDir: exportDir,
		logger:    logger,
	}
}

// Repository returns the underlying repository.
func (s *Service) Repository() repository.AnalysisRepository {
	return s.repo
}

func (s *Service) ByDate(filter model.DateFilter) ([]model.AnalysisRecord, error) {
	return s.repo.GetByDate(filter)
}

func (s *Service) ByHourRange(startHour, endHour int, filter model.DateFilter) ([]model.AnalysisRecord, error) {
	return s.repo.GetByHourRange(startHour, endHour, filter)
}

func (s *Service) All(limit int) ([]model.AnalysisRecord, error) {
	return s.repo.ListAll(limit)
}

// StatisticsByDate aggregates the records matching filter. Year is required.
func (s *Service) StatisticsByDate(filter model.DateFilter) (stats.Statistics, error) {
	records, err := s.repo.GetByDate(filter)
	if err != nil {
		return stats.Statistics{}, err
	}
	return stats.For(records), nil
}

// HourlyStatistics buckets one day's records by hour. Year, month and day are all required.
func (s *Service) HourlyStatistics(filter model.DateFilter) (map[int]stats.HourlyStatistics, error) {
	if filter.Year <= 0 || filter.Month <= 0 || filter.Day <= 0 {
		return nil, fmt.Errorf("%w: year, month and day are required", model.ErrInvalidArgument)
	}

	records, err := s.repo.GetByDate(filter)
	if err != nil {
		return nil, err
	}
	return stats.Hourly(records), nil
}

// Export writes the filtered history (everything when filter.Year is zero) into the export directory.
func (s *Service) Export(filter model.DateFilter) (string, error) {
	path, err := s.repo.ExportToFile(filepath.Join(s.exportDir, ExportFileName), filter)
	if err != nil {
		return "", err
	}
	s.logger.Info("Exported analysis history to %s", path)
	return path, nil
}

// Purge deletes records older than days and returns how many were removed.
func (s *Service) Purge(days int) (int64, error) {
	removed, err := s.repo.PurgeOlderThan(days)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Deleted %d history records older than %d days", removed, days)
	return removed, nil
}
