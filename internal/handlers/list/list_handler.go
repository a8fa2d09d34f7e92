// internal/handlers/list/list_handler.go
package list

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"agentlist-service/internal/domain/list"
	xerrors "agentlist-service/internal/pkg/errors"
	"agentlist-service/internal/pkg/response"
	"agentlist-service/internal/service/lists"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const DefaultMaxUploadSize int64 = 5 << 20

type ListService interface {
	Upload(ctx context.Context, r io.Reader, format lists.Format) (*list.UploadResult, error)
	ListUploads(ctx context.Context) (*list.UploadListResponse, error)
	GetUpload(ctx context.Context, uploadID string) (*list.UploadGroup, error)
	Stats(ctx context.Context) (*list.Stats, error)
}

type ListHandler struct {
	svc           ListService
	uploadDir     string
	maxUploadSize int64
	logger        *zap.Logger
}

func NewListHandler(svc ListService, uploadDir string, maxUploadSize int64, logger *zap.Logger) *ListHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &ListHandler{
		svc:           svc,
		uploadDir:     uploadDir,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Upload accepts a multipart "file" and distributes its records.
func (h *ListHandler) Upload(c *gin.Context) {
	// Multipart framing needs a little room above the file limit.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+(1<<20))

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.ValidationError(c, h.tooLargeMessage(), nil)
			return
		}
		response.ValidationError(c, "Please upload a file", nil)
		return
	}
	if fh.Size > h.maxUploadSize {
		response.ValidationError(c, h.tooLargeMessage(), nil)
		return
	}

	format, ok := lists.DetectFormat(fh.Filename, fh.Header.Get("Content-Type"))
	if !ok {
		response.ValidationError(c, "Only CSV, XLSX, and XLS files are allowed", nil)
		return
	}

	path, err := h.saveTemp(c, fh)
	if err != nil {
		h.logger.Error("failed to store uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "Error processing file", nil)
		return
	}
	defer h.removeTemp(path)

	f, err := os.Open(path)
	if err != nil {
		h.logger.Error("failed to open uploaded file", zap.String("path", path), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "Error processing file", nil)
		return
	}
	defer f.Close()

	result, err := h.svc.Upload(c.Request.Context(), f, format)
	if err != nil {
		if xerrors.IsClientError(err) {
			response.ValidationError(c, uploadErrorMessage(err), err)
			return
		}
		h.logger.Error("upload failed",
			zap.String("filename", fh.Filename),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "Error processing file", nil)
		return
	}

	msg := fmt.Sprintf("Successfully uploaded and distributed %d records among %d agents",
		result.TotalRecords, result.AgentsCount)
	response.Success(c, http.StatusCreated, msg, result)
}

func (h *ListHandler) ListUploads(c *gin.Context) {
	resp, err := h.svc.ListUploads(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list uploads", zap.Error(err))
		response.FromError(c, err, "Server error")
		return
	}

	response.Success(c, http.StatusOK, "lists retrieved", resp)
}

func (h *ListHandler) GetUpload(c *gin.Context) {
	uploadID := c.Param("uploadId")

	group, err := h.svc.GetUpload(c.Request.Context(), uploadID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "Upload not found")
			return
		}
		h.logger.Error("failed to load upload", zap.String("upload_id", uploadID), zap.Error(err))
		response.FromError(c, err, "Server error")
		return
	}

	response.Success(c, http.StatusOK, "upload retrieved", group)
}

func (h *ListHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load stats", zap.Error(err))
		response.FromError(c, err, "Server error")
		return
	}

	response.Success(c, http.StatusOK, "stats retrieved", stats)
}

func (h *ListHandler) tooLargeMessage() string {
	return fmt.Sprintf("File exceeds the %d MB limit", h.maxUploadSize>>20)
}

func (h *ListHandler) saveTemp(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(h.uploadDir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	if err := c.SaveUploadedFile(fh, path); err != nil {
		h.removeTemp(path)
		return "", fmt.Errorf("failed to save %s: %w", fh.Filename, err)
	}
	return path, nil
}

func (h *ListHandler) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.logger.Warn("failed to remove uploaded file", zap.String("path", path), zap.Error(err))
	}
}

// uploadErrorMessage phrases a rejected upload for the dashboard.
func uploadErrorMessage(err error) string {
	var se *xerrors.SchemaError
	var pe *xerrors.ParseError
	switch {
	case errors.Is(err, xerrors.ErrEmptyUpload):
		return "No valid data found in the file"
	case errors.Is(err, xerrors.ErrNoEligibleAgents):
		return "No active agents found. Please add agents first."
	case errors.As(err, &se):
		return "Missing required columns: " + strings.Join(se.Missing, ", ")
	case errors.As(err, &pe):
		return "The file could not be read as " + strings.ToUpper(pe.Format)
	default:
		return "Invalid upload"
	}
}
