package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain name", "Maria Silva", "Maria Silva"},
		{"surrounding space", "  João Pereira ", "João Pereira"},
		{"embedded nul byte", "Maria\x00 Silva", "Maria Silva"},
		{"tabs and doubled spaces", "Maria\tSilva  Santos", "Maria Silva Santos"},
		{"control characters", "Jo\x07ão\x1b", "João"},
		{"only garbage", "\x00\x01\x02", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}
