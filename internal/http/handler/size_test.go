package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{size: 0, want: "0 B"},
		{size: 21, want: "21 B"},
		{size: 1023, want: "1023 B"},
		{size: 1024, want: "1.00 KB"},
		{size: 1536, want: "1.50 KB"},
		{size: 5 << 20, want: "5.00 MB"},
		{size: 10485760, want: "10.00 MB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, humanSize(tt.size), tt.size)
	}
}
