// Package upload is the only path from an end-user upload to storage: every
// request is validated before a single byte is written.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ondrasimku/coursework-files/internal/domain"
	"github.com/ondrasimku/coursework-files/internal/metrics"
	"github.com/ondrasimku/coursework-files/internal/storage"
	"github.com/ondrasimku/coursework-files/internal/validation"
)

type Service struct {
	validator *validation.Validator
	storage   storage.Storage
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(validator *validation.Validator, storage storage.Storage, m *metrics.Metrics, logger *slog.Logger) *Service {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Service{
		validator: validator,
		storage:   storage,
		metrics:   m,
		logger:    logger,
	}
}

func (s *Service) MaxFileSize() int64 {
	return s.validator.MaxSize()
}

// RejectOversized checks a size announced before the body is read, so the
// HTTP layer can refuse bodies that cannot fit without spooling them.
func (s *Service) RejectOversized(subfolder string, size int64) error {
	if size <= s.validator.MaxSize() {
		return nil
	}
	err := s.validator.ValidateSize(size)
	s.recordRejection(domain.UploadRequest{Size: size, Subfolder: subfolder}, err)
	return err
}

// Upload validates req and stores it. Validation failures are returned as
// *validation.Rejection, storage failures wrap storage.ErrIO.
func (s *Service) Upload(ctx context.Context, req domain.UploadRequest) (storage.FileInfo, error) {
	if err := s.validator.Validate(req.Filename, req.ContentType, req.Size); err != nil {
		s.recordRejection(req, err)
		return storage.FileInfo{}, err
	}

	// Never store more than the size that was validated.
	body := io.LimitReader(req.Body, req.Size)

	info, err := s.storage.Save(ctx, body, storage.SaveOptions{
		Directory:    req.Subfolder,
		ContentType:  validation.MediaType(req.ContentType),
		OriginalName: req.Filename,
	})
	if err != nil {
		s.logger.Error("Failed to store file", "subfolder", req.Subfolder, "error", err)
		s.metrics.Uploads.WithLabelValues(req.Subfolder, "failed").Inc()
		return storage.FileInfo{}, fmt.Errorf("failed to store upload: %w", err)
	}

	s.metrics.Uploads.WithLabelValues(req.Subfolder, "stored").Inc()
	s.metrics.UploadedBytes.Observe(float64(info.Size))
	s.logger.Info("File uploaded successfully", "locator", info.Locator, "size", info.Size)
	return info, nil
}

func (s *Service) recordRejection(req domain.UploadRequest, err error) {
	s.logRejection(req, err)
	s.metrics.Uploads.WithLabelValues(req.Subfolder, "rejected").Inc()
	s.metrics.Rejections.WithLabelValues(validation.KindOf(err)).Inc()
}

func (s *Service) logRejection(req domain.UploadRequest, err error) {
	if errors.Is(err, validation.ErrForbiddenType) {
		s.logger.Warn("Attempted upload of dangerous file type",
			"extension", validation.Extension(req.Filename), "subfolder", req.Subfolder)
		return
	}
	if errors.Is(err, validation.ErrPathTraversal) || errors.Is(err, validation.ErrTypeMismatch) {
		s.logger.Warn("Suspicious upload rejected",
			"kind", validation.KindOf(err), "filename", req.Filename, "contentType", req.ContentType)
		return
	}
	s.logger.Info("Upload rejected", "kind", validation.KindOf(err), "reason", err.Error())
}

func (s *Service) Open(ctx context.Context, locator string) (io.ReadSeekCloser, storage.FileInfo, error) {
	return s.storage.Open(ctx, locator)
}

func (s *Service) Exists(ctx context.Context, locator string) (bool, error) {
	return s.storage.Exists(ctx, locator)
}

// Delete removes the file behind locator. A missing file is reported as
// false with a nil error.
func (s *Service) Delete(ctx context.Context, locator string) (bool, error) {
	deleted, err := s.storage.Delete(ctx, locator)
	switch {
	case err != nil:
		s.logger.Error("Error deleting file", "locator", locator, "error", err)
		s.metrics.Deletions.WithLabelValues("failed").Inc()
		return false, err
	case !deleted:
		s.logger.Warn("File not found", "locator", locator)
		s.metrics.Deletions.WithLabelValues("missing").Inc()
	default:
		s.logger.Info("File deleted successfully", "locator", locator)
		s.metrics.Deletions.WithLabelValues("deleted").Inc()
	}
	return deleted, nil
}
