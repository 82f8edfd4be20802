package validation

import "errors"

// Rejection kinds. Match them with errors.Is.
var (
	ErrEmptyFile       = errors.New("empty file")
	ErrTooLarge        = errors.New("file too large")
	ErrInvalidFilename = errors.New("invalid filename")
	ErrPathTraversal   = errors.New("path traversal")
	ErrForbiddenType   = errors.New("forbidden file type")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTypeMismatch    = errors.New("file type mismatch")
)

var kindNames = map[error]string{
	ErrEmptyFile:       "empty_file",
	ErrTooLarge:        "too_large",
	ErrInvalidFilename: "invalid_filename",
	ErrPathTraversal:   "path_traversal",
	ErrForbiddenType:   "forbidden_type",
	ErrUnsupportedType: "unsupported_type",
	ErrTypeMismatch:    "type_mismatch",
}

// Rejection is returned by Validate when an upload must not be stored.
// Kind is one of the Err* sentinels, Reason is safe to show to end users.
type Rejection struct {
	Kind   error
	Reason string
}

func reject(kind error, reason string) *Rejection {
	return &Rejection{Kind: kind, Reason: reason}
}

func (r *Rejection) Error() string {
	return r.Reason
}

func (r *Rejection) Unwrap() error {
	return r.Kind
}

// KindOf returns a stable label for the rejection kind carried by err, or an
// empty string when err is not a rejection.
func KindOf(err error) string {
	var r *Rejection
	if !errors.As(err, &r) {
		return ""
	}
	return kindNames[r.Kind]
}

// IsRejection reports whether err is a validation rejection.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}
