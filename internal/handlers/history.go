package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"weatherclassifier/internal/dto"
	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/model"
	"weatherclassifier/internal/services"
	"weatherclassifier/internal/services/history"
)

func HistoryByDateHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseDateFilter(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if filter.Year <= 0 {
			writeBadRequest(w, logger, "year is required")
			return
		}

		records, err := manager.GetHistoryService().ByDate(filter)
		if err != nil {
			logger.Error("Error getting history by date: %v", err)
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.RecordsResponse{Success: true, Count: len(records), Records: records})
	}
}

func HistoryByTimeRangeHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("start_hour") == "" || q.Get("end_hour") == "" {
			writeBadRequest(w, logger, "start_hour and end_hour are required")
			return
		}

		startHour, err := queryInt(r, "start_hour", 0)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		endHour, err := queryInt(r, "end_hour", 0)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		filter, err := parseDateFilter(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		records, err := manager.GetHistoryService().ByHourRange(startHour, endHour, filter)
		if err != nil {
			logger.Error("Error getting history by time range: %v", err)
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.RecordsResponse{Success: true, Count: len(records), Records: records})
	}
}

func StatisticsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseDateFilter(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if filter.Year <= 0 {
			writeBadRequest(w, logger, "year is required")
			return
		}

		s, err := manager.GetHistoryService().StatisticsByDate(filter)
		if err != nil {
			logger.Error("Error getting statistics: %v", err)
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.StatisticsResponse{Success: true, Statistics: s})
	}
}

func HourlyStatisticsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseDateFilter(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if filter.Year <= 0 || filter.Month <= 0 || filter.Day <= 0 {
			writeBadRequest(w, logger, "year, month and day are required")
			return
		}

		hourly, err := manager.GetHistoryService().HourlyStatistics(filter)
		if err != nil {
			logger.Error("Error getting hourly statistics: %v", err)
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.HourlyStatisticsResponse{Success: true, HourlyStatistics: hourly})
	}
}

func AllHistoryHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit", 100)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		records, err := manager.GetHistoryService().All(limit)
		if err != nil {
			logger.Error("Error getting all history: %v", err)
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.RecordsResponse{Success: true, Count: len(records), Records: records})
	}
}

func ExportHistoryHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseDateFilter(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		path, err := manager.GetHistoryService().Export(filter)
		if err != nil {
			logger.Error("Error exporting history: %v", err)
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.ExportResponse{Success: true, ExportFile: path})
	}
}

func CleanupHistoryHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, logger, http.StatusMethodNotAllowed, dto.ErrorResponse{Error: "method not allowed"})
			return
		}

		days := history.DefaultPurgeDays
		var req dto.CleanupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeBadRequest(w, logger, "invalid JSON body")
			return
		}
		if req.DaysOld != nil {
			days = *req.DaysOld
		}

		removed, err := manager.GetHistoryService().Purge(days)
		if err != nil {
			if !errors.Is(err, model.ErrInvalidArgument) {
				logger.Error("Error cleaning up records: %v", err)
			}
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.CleanupResponse{Success: true, DeletedCount: removed})
	}
}
