package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginMatcher(t *testing.T) {
	allow := originMatcher([]string{"directory.example.com", "*.example.org", "localhost:*"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://directory.example.com", true},
		{"https://admin.example.org", true},
		{"https://example.net", false},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:5173", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, allow(tt.origin), tt.origin)
	}
}
