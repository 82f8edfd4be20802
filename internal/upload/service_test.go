package upload_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/ondrasimku/coursework-files/internal/domain"
	"github.com/ondrasimku/coursework-files/internal/metrics"
	"github.com/ondrasimku/coursework-files/internal/storage"
	"github.com/ondrasimku/coursework-files/internal/storage/local"
	"github.com/ondrasimku/coursework-files/internal/upload"
	"github.com/ondrasimku/coursework-files/internal/validation"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Save(ctx context.Context, r io.Reader, opts storage.SaveOptions) (storage.FileInfo, error) {
	args := m.Called(ctx, r, opts)
	return args.Get(0).(storage.FileInfo), args.Error(1)
}

func (m *mockStorage) Open(ctx context.Context, locator string) (io.ReadSeekCloser, storage.FileInfo, error) {
	args := m.Called(ctx, locator)
	rc, _ := args.Get(0).(io.ReadSeekCloser)
	return rc, args.Get(1).(storage.FileInfo), args.Error(2)
}

func (m *mockStorage) Resolve(locator string) (string, error) {
	args := m.Called(locator)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, locator string) (bool, error) {
	args := m.Called(ctx, locator)
	return args.Bool(0), args.Error(1)
}

func (m *mockStorage) Exists(ctx context.Context, locator string) (bool, error) {
	args := m.Called(ctx, locator)
	return args.Bool(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUpload_RejectedNeverReachesStorage(t *testing.T) {
	t.Parallel()

	store := &mockStorage{}
	m := metrics.New(nil)
	svc := upload.NewService(validation.New(validation.DefaultMaxFileSize), store, m, discardLogger())

	_, err := svc.Upload(context.Background(), domain.UploadRequest{
		Body:        strings.NewReader("MZ"),
		Size:        2,
		Filename:    "virus.exe",
		ContentType: "application/octet-stream",
		Subfolder:   domain.SubfolderSubmissions,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrForbiddenType)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("forbidden_type")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(domain.SubfolderSubmissions, "rejected")))
}

func TestUpload_PassesValidatedRequestToStorage(t *testing.T) {
	t.Parallel()

	store := &mockStorage{}
	m := metrics.New(nil)
	svc := upload.NewService(validation.New(validation.DefaultMaxFileSize), store, m, discardLogger())

	want := storage.FileInfo{Locator: "assignments/20240101_120000_abcdef01.pdf", Size: 4}
	store.On("Save", mock.Anything, mock.Anything, storage.SaveOptions{
		Directory:    domain.SubfolderAssignments,
		ContentType:  "application/pdf",
		OriginalName: "report.pdf",
	}).Return(want, nil).Once()

	got, err := svc.Upload(context.Background(), domain.UploadRequest{
		Body:        strings.NewReader("%PDF"),
		Size:        4,
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Subfolder:   domain.SubfolderAssignments,
	})

	require.NoError(t, err)
	assert.Equal(t, want, got)
	store.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(domain.SubfolderAssignments, "stored")))
}

func TestUpload_StorageFailureIsNotARejection(t *testing.T) {
	t.Parallel()

	store := &mockStorage{}
	svc := upload.NewService(validation.New(validation.DefaultMaxFileSize), store, nil, discardLogger())

	ioErr := fmt.Errorf("%w: disk full", storage.ErrIO)
	store.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(storage.FileInfo{}, ioErr)

	_, err := svc.Upload(context.Background(), domain.UploadRequest{
		Body:      strings.NewReader("hi"),
		Size:      2,
		Filename:  "notes.txt",
		Subfolder: domain.SubfolderSubmissions,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrIO)
	assert.False(t, validation.IsRejection(err))
}

func TestUpload_WithLocalStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := local.NewLocalStorage(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	svc := upload.NewService(validation.New(validation.DefaultMaxFileSize), store, nil, discardLogger())

	payload := []byte("line one\nline two\n")
	info, err := svc.Upload(ctx, domain.UploadRequest{
		Body:        io.MultiReader(bytes.NewReader(payload), strings.NewReader("trailing bytes past declared size")),
		Size:        int64(len(payload)),
		Filename:    "notes.txt",
		ContentType: "text/plain; charset=utf-8",
		Subfolder:   domain.SubfolderSubmissions,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^submissions/\d{8}_\d{6}_[0-9a-f]{8}\.txt$`, info.Locator)
	assert.Equal(t, "text/plain", info.ContentType)

	path, err := store.Resolve(info.Locator)
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	exists, err := svc.Exists(ctx, info.Locator)
	require.NoError(t, err)
	assert.True(t, exists)

	deleted, err := svc.Delete(ctx, info.Locator)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(ctx, info.Locator)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDelete_PropagatesIOFailure(t *testing.T) {
	t.Parallel()

	store := &mockStorage{}
	m := metrics.New(nil)
	svc := upload.NewService(validation.New(0), store, m, discardLogger())

	store.On("Delete", mock.Anything, "assignments/x.pdf").Return(false, errors.Join(storage.ErrIO, errors.New("permission denied")))

	deleted, err := svc.Delete(context.Background(), "assignments/x.pdf")
	assert.False(t, deleted)
	assert.ErrorIs(t, err, storage.ErrIO)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deletions.WithLabelValues("failed")))
}

func TestRejectOversized(t *testing.T) {
	t.Parallel()

	m := metrics.New(nil)
	svc := upload.NewService(validation.New(64), &mockStorage{}, m, discardLogger())
	assert.Equal(t, int64(64), svc.MaxFileSize())

	assert.NoError(t, svc.RejectOversized(domain.SubfolderProjects, 64))
	assert.NoError(t, svc.RejectOversized(domain.SubfolderProjects, -1))

	err := svc.RejectOversized(domain.SubfolderProjects, 65)
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrTooLarge)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("too_large")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(domain.SubfolderProjects, "rejected")))
}
