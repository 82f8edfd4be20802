package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ondrasimku/coursework-files/internal/storage"
	"github.com/ondrasimku/coursework-files/internal/validation"
)

var _ storage.Storage = (*LocalStorage)(nil)

type LocalStorage struct {
	baseDir       string
	publicBaseURL string
	now           func() time.Time
	tokenLength   int
}

type Option func(*LocalStorage)

// WithClock overrides the time source used for generated names.
func WithClock(now func() time.Time) Option {
	return func(s *LocalStorage) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTokenLength sets the number of random hex characters in generated
// names. Values outside [DefaultTokenLength, MaxTokenLength] are clamped.
func WithTokenLength(n int) Option {
	return func(s *LocalStorage) {
		s.tokenLength = min(max(n, DefaultTokenLength), MaxTokenLength)
	}
}

func NewLocalStorage(baseDir, publicBaseURL string, opts ...Option) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create base directory: %w", storage.ErrIO, err)
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	s := &LocalStorage{
		baseDir:       abs,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
		tokenLength:   DefaultTokenLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}

func (s *LocalStorage) Save(ctx context.Context, r io.Reader, opts storage.SaveOptions) (storage.FileInfo, error) {
	dir := path.Clean(filepath.ToSlash(opts.Directory))
	if path.IsAbs(dir) {
		return storage.FileInfo{}, fmt.Errorf("invalid directory %q: %w", opts.Directory, storage.ErrOutsideRoot)
	}
	dirPath, err := s.Resolve(dir)
	if err != nil {
		return storage.FileInfo{}, fmt.Errorf("invalid directory %q: %w", opts.Directory, err)
	}

	// MkdirAll treats an existing directory as success, so concurrent first
	// uploads into the same folder do not race.
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return storage.FileInfo{}, fmt.Errorf("%w: failed to create directory: %w", storage.ErrIO, err)
	}

	token, err := randomToken(s.tokenLength)
	if err != nil {
		return storage.FileInfo{}, err
	}
	ext := validation.Extension(opts.OriginalName)
	name := generateName(s.now(), token, ext)
	locator := dir + "/" + name

	filePath := filepath.Join(dirPath, name)
	file, err := os.Create(filePath)
	if err != nil {
		return storage.FileInfo{}, fmt.Errorf("%w: failed to create file: %w", storage.ErrIO, err)
	}

	size, err := io.Copy(file, r)
	if err != nil {
		file.Close()
		os.Remove(filePath)
		return storage.FileInfo{}, fmt.Errorf("%w: failed to write file: %w", storage.ErrIO, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(filePath)
		return storage.FileInfo{}, fmt.Errorf("%w: failed to close file: %w", storage.ErrIO, err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = contentTypeFor(ext)
	}

	return storage.FileInfo{
		Locator:     locator,
		Path:        filePath,
		ContentType: contentType,
		Size:        size,
		URL:         s.url(locator),
	}, nil
}

func (s *LocalStorage) Open(ctx context.Context, locator string) (io.ReadSeekCloser, storage.FileInfo, error) {
	filePath, err := s.Resolve(locator)
	if err != nil {
		return nil, storage.FileInfo{}, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if isNotExist(err) {
			return nil, storage.FileInfo{}, storage.ErrNotFound
		}
		return nil, storage.FileInfo{}, fmt.Errorf("%w: failed to open file: %w", storage.ErrIO, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, storage.FileInfo{}, fmt.Errorf("%w: failed to stat file: %w", storage.ErrIO, err)
	}
	if stat.IsDir() {
		file.Close()
		return nil, storage.FileInfo{}, storage.ErrNotFound
	}

	info := storage.FileInfo{
		Locator:     locator,
		Path:        filePath,
		ContentType: contentTypeFor(validation.Extension(filepath.Base(filePath))),
		Size:        stat.Size(),
		URL:         s.url(locator),
	}
	return file, info, nil
}

// Resolve joins locator onto the storage root and refuses results that are
// not strictly below it.
func (s *LocalStorage) Resolve(locator string) (string, error) {
	filePath := filepath.Join(s.baseDir, filepath.FromSlash(locator))

	rel, err := filepath.Rel(s.baseDir, filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %q", storage.ErrOutsideRoot, locator)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", storage.ErrOutsideRoot, locator)
	}
	return filePath, nil
}

func (s *LocalStorage) Delete(ctx context.Context, locator string) (bool, error) {
	filePath, err := s.Resolve(locator)
	if err != nil {
		return false, err
	}

	stat, err := os.Lstat(filePath)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to stat file: %w", storage.ErrIO, err)
	}
	if stat.IsDir() {
		return false, nil
	}

	if err := os.Remove(filePath); err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to delete file: %w", storage.ErrIO, err)
	}
	return true, nil
}

func (s *LocalStorage) Exists(ctx context.Context, locator string) (bool, error) {
	filePath, err := s.Resolve(locator)
	if err != nil {
		return false, err
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to stat file: %w", storage.ErrIO, err)
	}
	return !stat.IsDir(), nil
}

// isNotExist also treats ENOTDIR as missing: a locator that walks through a
// stored file names nothing.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func (s *LocalStorage) url(locator string) string {
	return fmt.Sprintf("%s/files/%s", s.publicBaseURL, locator)
}

func contentTypeFor(ext string) string {
	if ct := validation.DefaultPolicy().ContentTypeFor(ext); ct != "" {
		return ct
	}
	if ct := mime.TypeByExtension("." + ext); ct != "" && ext != "" {
		return ct
	}
	return "application/octet-stream"
}
