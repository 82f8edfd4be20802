package config_test

import (
	"testing"

	"github.com/ondrasimku/coursework-files/internal/config"
	"github.com/ondrasimku/coursework-files/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "uploads", cfg.StorageDir)
	assert.Equal(t, int64(10485760), cfg.MaxFileSize)
	assert.Equal(t, 8, cfg.TokenLength)
	assert.Equal(t, []string{domain.SubfolderAssignments, domain.SubfolderSubmissions, domain.SubfolderProjects}, cfg.Subfolders)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, 900, cfg.Auth.JWKSCacheTTL)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("UPLOAD_STORAGE_DIR", "/srv/coursework")
	t.Setenv("UPLOAD_MAX_FILE_SIZE", "5242880")
	t.Setenv("UPLOAD_SUBFOLDERS", "assignments,submissions")
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, "/srv/coursework", cfg.StorageDir)
	assert.Equal(t, int64(5242880), cfg.MaxFileSize)
	assert.Equal(t, []string{"assignments", "submissions"}, cfg.Subfolders)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "non numeric size", key: "UPLOAD_MAX_FILE_SIZE", val: "ten megabytes"},
		{name: "zero size", key: "UPLOAD_MAX_FILE_SIZE", val: "0"},
		{name: "negative size", key: "UPLOAD_MAX_FILE_SIZE", val: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := config.Parse()
			assert.Error(t, err)
		})
	}
}
