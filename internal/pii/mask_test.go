package pii

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"regular", "alice@example.com", "al***@example.com"},
		{"two char local", "al@example.com", "al***@example.com"},
		{"one char local", "a@example.com", "a***@example.com"},
		{"no at sign", "not-an-email", "***"},
		{"two at signs", "a@b@c.com", "***"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(TypeEmail, tt.value))
		})
	}
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"regular", "+1-555-0101", "***0101"},
		{"exactly four", "0101", "***0101"},
		{"short", "12", "***12"},
		{"empty", "", "***"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(TypePhone, tt.value))
		})
	}
}

func TestMaskOtherTypes(t *testing.T) {
	assert.Equal(t, "[REDACTED]", Mask(TypeAddress, "42 Baker Street"))
	assert.Equal(t, "[REDACTED]", Mask("unknown", "whatever"))
}
