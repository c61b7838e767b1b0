package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"weatherclassifier/internal/dto"
	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/model"
	"weatherclassifier/internal/services/classifier"
)

func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, logger *logger.Logger, err error) {
	resp := dto.ErrorResponse{Error: err.Error()}

	var histErr *classifier.HistoryError
	if errors.As(err, &histErr) {
		resp.Result = histErr.Result
	}

	writeJSON(w, logger, statusFor(err), resp)
}

func writeBadRequest(w http.ResponseWriter, logger *logger.Logger, message string) {
	writeJSON(w, logger, http.StatusBadRequest, dto.ErrorResponse{Error: message})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidArgument), errors.Is(err, model.ErrImageNotFound):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrImageUnreadable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// queryInt reads an optional integer query parameter. A missing parameter yields def.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", model.ErrInvalidArgument, key)
	}
	return v, nil
}

func parseDateFilter(r *http.Request) (model.DateFilter, error) {
	var (
		f   model.DateFilter
		err error
	)
	if f.Year, err = queryInt(r, "year", 0); err != nil {
		return f, err
	}
	if f.Month, err = queryInt(r, "month", 0); err != nil {
		return f, err
	}
	if f.Day, err = queryInt(r, "day", 0); err != nil {
		return f, err
	}
	return f, nil
}
