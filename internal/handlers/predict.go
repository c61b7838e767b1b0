package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"weatherclassifier/internal/config"
	"weatherclassifier/internal/dto"
	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/services"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// PredictHandler classifies an uploaded image. The upload is stored in a
// per-request directory that is removed once the response is written.
func PredictHandler(manager *services.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, logger, http.StatusMethodNotAllowed, dto.ErrorResponse{Error: "method not allowed"})
			return
		}

		maxBytes := cfg.MaxUploadMB << 20
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
				logger.Warning("Upload exceeds %d MB", cfg.MaxUploadMB)
				writeJSON(w, logger, http.StatusRequestEntityTooLarge,
					dto.ErrorResponse{Error: fmt.Sprintf("upload exceeds the %d MB limit", cfg.MaxUploadMB)})
				return
			}
			logger.Warning("Invalid upload: %v", err)
			writeBadRequest(w, logger, "invalid multipart upload")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			logger.Warning("No file part in request")
			writeBadRequest(w, logger, "no file part in request")
			return
		}
		defer file.Close()

		name := filepath.Base(header.Filename)
		if header.Filename == "" || name == "." || name == string(filepath.Separator) {
			logger.Warning("No file selected")
			writeBadRequest(w, logger, "no file selected")
			return
		}
		if !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
			logger.Warning("Unsupported file type: %s", name)
			writeBadRequest(w, logger, "unsupported file type, expected png, jpg or jpeg")
			return
		}

		path, cleanup, err := saveUpload(cfg.UploadDirectory, name, file)
		if err != nil {
			logger.Error("Failed to store upload: %v", err)
			writeJSON(w, logger, http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to store upload"})
			return
		}
		defer cleanup()

		recordHistory := r.URL.Query().Get("record") != "false"

		result, err := manager.Classify(path, recordHistory)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.PredictionResponse{Success: true, Result: result})
	}
}

// saveUpload copies src into a fresh directory under root, keeping name as the basename.
func saveUpload(root, name string, src io.Reader) (string, func(), error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	dir, err := os.MkdirTemp(root, "upload-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close upload file: %w", err)
	}

	return path, cleanup, nil
}
