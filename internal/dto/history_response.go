package dto

import (
	"weatherclassifier/internal/model"
	"weatherclassifier/internal/services/stats"
)

// RecordsResponse is returned by the history listing endpoints.
type RecordsResponse struct {
	Success bool                   `json:"success"`
	Count   int                    `json:"count"`
	Records []model.AnalysisRecord `json:"records"`
}

type StatisticsResponse struct {
	Success    bool             `json:"success"`
	Statistics stats.Statistics `json:"statistics"`
}

type HourlyStatisticsResponse struct {
	Success          bool                           `json:"success"`
	HourlyStatistics map[int]stats.HourlyStatistics `json:"hourly_statistics"`
}

type ExportResponse struct {
	Success    bool   `json:"success"`
	ExportFile string `json:"export_file"`
}

// CleanupRequest is the optional body of a cleanup call. DaysOld defaults to 30.
type CleanupRequest struct {
	DaysOld *int `json:"days_old"`
}

type CleanupResponse struct {
	Success      bool  `json:"success"`
	DeletedCount int64 `json:"deleted_count"`
}
