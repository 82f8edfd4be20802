package local

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	timestampLayout = "20060102_150405"

	DefaultTokenLength = 8
	MaxTokenLength     = 32
)

// randomToken returns n hex characters taken from a random UUID. The leading
// 8 characters of a v4 UUID carry 32 random bits.
func randomToken(n int) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return strings.ReplaceAll(id.String(), "-", "")[:n], nil
}

// generateName builds "{timestamp}_{token}.{ext}". The extension keeps the
// case of the uploaded name.
func generateName(now time.Time, token, ext string) string {
	name := now.UTC().Format(timestampLayout) + "_" + token
	if ext == "" {
		return name
	}
	return name + "." + ext
}
