// Package validation decides whether an uploaded file may be stored. It
// performs no I/O: every decision is made from the declared filename,
// content type and size.
package validation

import (
	"fmt"
	"mime"
	"strings"
)

// DefaultMaxFileSize is 10 MiB.
const DefaultMaxFileSize int64 = 10 << 20

type Validator struct {
	maxSize int64
	policy  *Policy
}

type Option func(*Validator)

// WithPolicy replaces the default extension policy.
func WithPolicy(p *Policy) Option {
	return func(v *Validator) {
		if p != nil {
			v.policy = p
		}
	}
}

// New returns a Validator enforcing maxSize bytes. A non-positive maxSize
// falls back to DefaultMaxFileSize.
func New(maxSize int64, opts ...Option) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	v := &Validator{
		maxSize: maxSize,
		policy:  DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) MaxSize() int64 {
	return v.maxSize
}

// Validate runs every check in order and returns the first *Rejection, or nil
// when the upload is accepted.
func (v *Validator) Validate(filename, contentType string, size int64) error {
	if err := v.ValidateSize(size); err != nil {
		return err
	}

	if filename == "" {
		return reject(ErrInvalidFilename, "Invalid filename")
	}

	// Must run on the raw name, before it is ever joined with a directory.
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return reject(ErrPathTraversal, "Invalid filename: path traversal attempt detected")
	}

	ext := strings.ToLower(Extension(filename))

	if v.policy.Denied(ext) {
		return reject(ErrForbiddenType, fmt.Sprintf("File type .%s is not allowed for security reasons", ext))
	}

	if !v.policy.Allowed(ext) {
		return reject(ErrUnsupportedType, fmt.Sprintf("File type .%s is not allowed. Allowed types: %s",
			ext, strings.Join(v.policy.AllowedExtensions(), ", ")))
	}

	if mediaType := MediaType(contentType); mediaType != "" && !v.policy.ContentTypeMatches(ext, mediaType) {
		return reject(ErrTypeMismatch, "File type mismatch detected")
	}

	return nil
}

// ValidateSize runs only the empty and size-limit checks.
func (v *Validator) ValidateSize(size int64) error {
	if size <= 0 {
		return reject(ErrEmptyFile, "File is empty")
	}
	if size > v.maxSize {
		return reject(ErrTooLarge, fmt.Sprintf("File size exceeds maximum allowed size of %d MB", v.maxSize/(1<<20)))
	}
	return nil
}

// Extension returns the part of filename after the last dot with its case
// preserved, or an empty string when there is no dot.
func Extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return filename[i+1:]
}

// MediaType strips parameters from a Content-Type value and lower-cases it.
// Blank input yields an empty string.
func MediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
