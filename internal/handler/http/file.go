package http

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/nomina-hr/nomina-backend-go/internal/handler/http/response"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/storage"
)

type FileHandler interface {
	Download(w http.ResponseWriter, r *http.Request)
}

type fileHandlerImpl struct {
	fileStorage storage.FileStorage
}

func NewFileHandler(fileStorage storage.FileStorage) FileHandler {
	return &fileHandlerImpl{fileStorage: fileStorage}
}

// Download serves a stored payslip. Only keys under the caller's company prefix are readable.
func (h *fileHandlerImpl) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		response.BadRequest(w, "File path is required", nil)
		return
	}

	_, claims, _ := jwtauth.FromContext(r.Context())
	companyID, _ := claims["company_id"].(string)
	if companyID == "" || !strings.HasPrefix(path.Clean("/"+key), "/payslips/"+companyID+"/") {
		response.NotFound(w, "File not found")
		return
	}

	file, err := h.fileStorage.Download(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileNotFound):
			response.NotFound(w, "File not found")
		case errors.Is(err, storage.ErrInvalidPath):
			response.BadRequest(w, "Invalid file path", nil)
		default:
			response.HandleError(w, err)
		}
		return
	}
	defer file.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "inline; filename=\""+path.Base(key)+"\"")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file); err != nil {
		slog.WarnContext(r.Context(), "failed to stream file", "path", key, "error", err)
	}
}
