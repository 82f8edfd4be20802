package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/ondrasimku/coursework-files/internal/domain"
	"github.com/ondrasimku/coursework-files/internal/storage"
	"github.com/ondrasimku/coursework-files/internal/upload"
	"github.com/ondrasimku/coursework-files/internal/validation"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details,omitempty"`
}

// multipartOverhead is the room left above the file size limit for the
// multipart boundaries, part headers and any other form fields.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	service    *upload.Service
	subfolders []string
	logger     *slog.Logger
}

func NewUploadHandler(service *upload.Service, subfolders []string, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		service:    service,
		subfolders: subfolders,
		logger:     logger,
	}
}

type UploadResponse struct {
	Locator             string `json:"locator"`
	URL                 string `json:"url"`
	ContentType         string `json:"contentType"`
	DetectedContentType string `json:"detectedContentType,omitempty"`
	Size                int64  `json:"size"`
	SizeHuman           string `json:"sizeHuman"`
}

func (h *UploadHandler) Upload(c *gin.Context) {
	subfolder := c.Param("subfolder")
	if !slices.Contains(h.subfolders, subfolder) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Unknown upload folder",
			Details: "Allowed folders: " + strings.Join(h.subfolders, ", "),
		})
		return
	}

	limit := h.service.MaxFileSize() + multipartOverhead
	if c.Request.ContentLength > limit {
		h.writeUploadError(c, h.service.RejectOversized(subfolder, c.Request.ContentLength))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeUploadError(c, h.service.RejectOversized(subfolder, tooLarge.Limit+1))
			return
		}
		h.logger.Warn("Failed to get file from form", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "No file provided",
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to process file",
		})
		return
	}
	defer src.Close()

	// Informational only: the declared type is what gets validated.
	var detected string
	if file.Size > 0 {
		if mt, err := mimetype.DetectReader(src); err == nil {
			detected = mt.String()
		}
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			h.logger.Error("Failed to rewind uploaded file", "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error: "Failed to process file",
			})
			return
		}
	}

	info, err := h.service.Upload(c.Request.Context(), domain.UploadRequest{
		Body:        src,
		Size:        file.Size,
		Filename:    declaredFilename(file),
		ContentType: file.Header.Get("Content-Type"),
		Subfolder:   subfolder,
	})
	if err != nil {
		h.writeUploadError(c, err)
		return
	}

	if detected != "" && !mimetype.EqualsAny(detected, info.ContentType) {
		h.logger.Debug("Declared and detected content types differ",
			"locator", info.Locator, "declared", info.ContentType, "detected", detected)
	}

	c.JSON(http.StatusCreated, UploadResponse{
		Locator:             info.Locator,
		URL:                 info.URL,
		ContentType:         info.ContentType,
		DetectedContentType: detected,
		Size:                info.Size,
		SizeHuman:           humanize.IBytes(uint64(info.Size)),
	})
}

// declaredFilename returns the filename exactly as the client sent it.
// FileHeader.Filename has already been reduced to its base name, which would
// hide directory components from validation.
func declaredFilename(file *multipart.FileHeader) string {
	_, params, err := mime.ParseMediaType(file.Header.Get("Content-Disposition"))
	if err == nil {
		if name, ok := params["filename"]; ok {
			return name
		}
	}
	return file.Filename
}

// humanSize renders size in B below 1 KB, otherwise in KB or MB with two
// decimals.
func humanSize(size int64) string {
	const kb, mb = 1024, 1024 * 1024
	switch {
	case size < kb:
		return fmt.Sprintf("%d B", size)
	case size < mb:
		return humanize.FormatFloat("####.##", float64(size)/kb) + " KB"
	default:
		return humanize.FormatFloat("####.##", float64(size)/mb) + " MB"
	}
}

func (h *UploadHandler) writeUploadError(c *gin.Context, err error) {
	var rejection *validation.Rejection
	if errors.As(err, &rejection) {
		status := http.StatusBadRequest
		if errors.Is(err, validation.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, ErrorResponse{
			Error: rejection.Reason,
			Kind:  validation.KindOf(err),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "Failed to save file",
	})
}

func (h *UploadHandler) GetFile(c *gin.Context) {
	locator := strings.TrimPrefix(c.Param("locator"), "/")
	if locator == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "File locator is required",
		})
		return
	}

	file, info, err := h.service.Open(c.Request.Context(), locator)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrOutsideRoot) {
			h.logger.Warn("File not found", "locator", locator, "error", err)
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "File not found",
			})
			return
		}
		h.logger.Error("Failed to open file", "locator", locator, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to read file",
		})
		return
	}
	defer file.Close()

	c.Header("Content-Length", fmt.Sprintf("%d", info.Size))
	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, file, nil)
}

func (h *UploadHandler) HeadFile(c *gin.Context) {
	locator := strings.TrimPrefix(c.Param("locator"), "/")

	exists, err := h.service.Exists(c.Request.Context(), locator)
	switch {
	case errors.Is(err, storage.ErrOutsideRoot), err == nil && !exists:
		c.Status(http.StatusNotFound)
	case err != nil:
		h.logger.Error("Failed to check file", "locator", locator, "error", err)
		c.Status(http.StatusInternalServerError)
	default:
		c.Status(http.StatusOK)
	}
}

func (h *UploadHandler) DeleteFile(c *gin.Context) {
	locator := strings.TrimPrefix(c.Param("locator"), "/")

	deleted, err := h.service.Delete(c.Request.Context(), locator)
	switch {
	case errors.Is(err, storage.ErrOutsideRoot), err == nil && !deleted:
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "File not found",
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to delete file",
		})
	default:
		c.Status(http.StatusNoContent)
	}
}
