package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fortaleza", "fortaleza"},
		{"São Paulo", "sao-paulo"},
		{"Rio de Janeiro", "rio-de-janeiro"},
		{"  Belo   Horizonte  ", "belo-horizonte"},
		{"Müllheim (Baden)", "mullheim-baden"},
		{"Saint-Étienne", "saint-etienne"},
		{"X", "x"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}
