package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBRNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"thousands plus decimal", "1.234,56", 1234.56, false},
		{"decimal comma only", "17,90", 17.9, false},
		{"canonical dot decimal", "1234.56", 1234.56, false},
		{"currency prefix", "R$ 25,50", 25.5, false},
		{"plain integer", "50", 50, false},
		{"whitespace", "  10,00  ", 10, false},
		{"empty is zero", "", 0, false},
		{"blank is zero", "   ", 0, false},
		{"garbage", "abc", 0, true},
		{"double comma", "1,2,3", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBRNumber(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBRDateTime(t *testing.T) {
	got, err := ParseBRDateTime("15/01/2025 10:30:45", spLoc)
	require.NoError(t, err)
	want := time.Date(2025, 1, 15, 10, 30, 45, 0, spLoc)
	assert.True(t, got.Equal(want), "got %v, want %v", got, want)

	got, err = ParseBRDateTime("15/01/2025 10:30", spLoc)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, 0, got.Second())

	// Date-only defaults to midnight.
	got, err = ParseBRDateTime("15/01/2025", spLoc)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Hour())

	// Two-digit years resolve to 20xx.
	got, err = ParseBRDateTime("15/01/25 08:00", spLoc)
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())

	_, err = ParseBRDateTime("", spLoc)
	assert.Error(t, err)
	_, err = ParseBRDateTime("2025-01-15", spLoc)
	assert.Error(t, err)
	_, err = ParseBRDateTime("32/01/2025", spLoc)
	assert.Error(t, err)
}

func TestNormalizeCPF(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"punctuated", "123.456.789-01", "12345678901"},
		{"bare digits", "12345678901", "12345678901"},
		{"short padded", "1234567890", "01234567890"},
		{"overlong keeps last 11", "9912345678901", "12345678901"},
		{"empty", "", ""},
		{"all zeros", "000.000.000-00", ""},
		{"single zero sentinel", "0", ""},
		{"no digits", "sem documento", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCPF(tt.input))
		})
	}
}

func TestCountMachines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantWash int
		wantDry  int
	}{
		{"one of each", "Lavadora 1, Secadora 2", 1, 1},
		{"two washers", "Lavadora 1, Lavadora 3", 2, 0},
		{"case insensitive", "LAVADORA 2", 1, 0},
		{"recharge only", "Recarga", 0, 0},
		{"unknown tokens ignored", "Passadoria, Lavadora 1", 1, 0},
		{"empty", "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wash, dry := CountMachines(tt.input)
			assert.Equal(t, tt.wantWash, wash)
			assert.Equal(t, tt.wantDry, dry)
		})
	}
}
