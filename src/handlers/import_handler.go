package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/lavametrics/backend/src/config"
	"github.com/username/lavametrics/backend/src/logger"
	"github.com/username/lavametrics/backend/src/parsers"
	"github.com/username/lavametrics/backend/src/security/validation"
	"github.com/username/lavametrics/backend/src/services"
	"github.com/username/lavametrics/backend/src/utils"
)

// defaultImportSource selects the POS vendor parser when the uploader does
// not name one.
const defaultImportSource = "imt"

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(service services.ImportService) *ImportHandler {
	return &ImportHandler{importService: service}
}

func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("File content validated", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	fileType, err := fileTypeFromQuery(r.FormValue("type"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	source := r.FormValue("source")
	if source == "" {
		source = defaultImportSource
	}

	summary, err := h.importService.ProcessImport(file, fileHeader.Filename, source, fileType)
	if err != nil {
		if errors.Is(err, services.ErrParsingFailed) {
			logger.L.Warn("Import failed while reading the CSV file", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing CSV file: %v", err), http.StatusBadRequest)
		} else if errors.Is(err, services.ErrProcessingFailed) {
			logger.L.Error("Import failed while storing records", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An error occurred while storing the imported records. Please try again later.", http.StatusInternalServerError)
		} else {
			logger.L.Error("Internal error processing import", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		logger.L.Error("Error encoding JSON response for import summary", "batchID", summary.BatchID, "error", err)
	}
}

func (h *ImportHandler) HandleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.SendJSONError(w, fmt.Sprintf("invalid limit %q, expected a positive integer", raw), http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	history, err := h.importService.History(limit)
	if err != nil {
		logger.L.Error("Error retrieving upload history", "error", err)
		utils.SendJSONError(w, "Error retrieving upload history.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(history); err != nil {
		logger.L.Error("Error encoding JSON response for upload history", "error", err)
	}
}

func fileTypeFromQuery(raw string) (parsers.FileType, error) {
	switch raw {
	case "":
		return "", nil
	case string(parsers.FileTypeSales):
		return parsers.FileTypeSales, nil
	case string(parsers.FileTypeCustomers):
		return parsers.FileTypeCustomers, nil
	default:
		return "", fmt.Errorf("unknown file type %q, expected %q or %q", raw, parsers.FileTypeSales, parsers.FileTypeCustomers)
	}
}
