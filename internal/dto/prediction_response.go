package dto

import "weatherclassifier/internal/services/classifier"

// PredictionResponse wraps a classification result for the predict endpoint.
type PredictionResponse struct {
	Success bool `json:"success"`
	*classifier.Result
}

// ErrorResponse is the body of every failed API call. Result is set when a
// classification succeeded but could not be recorded.
type ErrorResponse struct {
	Success bool               `json:"success"`
	Error   string             `json:"error"`
	Result  *classifier.Result `json:"result,omitempty"`
}
