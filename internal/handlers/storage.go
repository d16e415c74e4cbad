package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chioma-app/api/internal/auth"
	"github.com/chioma-app/api/internal/models"
	pkghttp "github.com/chioma-app/api/pkg/http"
)

// FileMetadataRepository is consumed directly; file rows have no business
// logic beyond ownership.
type FileMetadataRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*models.FileMetadata, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*models.FileMetadata, error)
	Create(ctx context.Context, file *models.FileMetadata) (*models.FileMetadata, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// StorageHandler handles document metadata endpoints. Object bodies live in
// S3; this API records and serves the metadata rows.
type StorageHandler struct {
	files FileMetadataRepositoryInterface
}

func NewStorageHandler(files FileMetadataRepositoryInterface) *StorageHandler {
	return &StorageHandler{files: files}
}

type CreateFileMetadataRequest struct {
	FileName string `json:"fileName" validate:"required,max=255"`
	FileSize int64  `json:"fileSize" validate:"required,gt=0"`
	FileType string `json:"fileType" validate:"required,max=100"`
	S3Key    string `json:"s3Key" validate:"required,max=1024"`
}

type FileMetadataResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"fileName"`
	FileSize  int64  `json:"fileSize"`
	FileType  string `json:"fileType"`
	S3Key     string `json:"s3Key"`
	CreatedAt string `json:"createdAt"`
}

// Create handles POST /storage/files
func (h *StorageHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	var req CreateFileMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.files.Create(r.Context(), &models.FileMetadata{
		FileName: req.FileName,
		FileSize: req.FileSize,
		FileType: req.FileType,
		S3Key:    req.S3Key,
		OwnerID:  claims.UserID,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "File already recorded")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, fileToResponse(created))
}

// List handles GET /storage/files
func (h *StorageHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	files, err := h.files.ListByOwner(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	responses := make([]FileMetadataResponse, 0, len(files))
	for _, f := range files {
		responses = append(responses, fileToResponse(f))
	}

	writeJSON(w, http.StatusOK, responses)
}

// Delete handles DELETE /storage/files/{id}
func (h *StorageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.files.Delete(r.Context(), id, claims.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "File not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func fileToResponse(f *models.FileMetadata) FileMetadataResponse {
	return FileMetadataResponse{
		ID:        f.ID,
		FileName:  f.FileName,
		FileSize:  f.FileSize,
		FileType:  f.FileType,
		S3Key:     f.S3Key,
		CreatedAt: f.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
