package utils

import (
	"testing"

	"chacara-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("Valid date", func(t *testing.T) {
		d, err := ParseDate("2024-01-15")
		require.NoError(t, err)
		assert.Equal(t, 2024, d.Year())
		assert.Equal(t, 1, int(d.Month()))
		assert.Equal(t, 15, d.Day())
	})

	t.Run("Invalid format", func(t *testing.T) {
		_, err := ParseDate("2024/01/15")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "expected yyyy-mm-dd")
	})

	t.Run("Invalid month", func(t *testing.T) {
		_, err := ParseDate("2024-13-15")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Invalid day", func(t *testing.T) {
		_, err := ParseDate("2024-02-30")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestNightsBetween(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		want     int
		wantErr  bool
	}{
		{"one night", "2024-12-15", "2024-12-16", 1, false},
		{"weekend", "2024-12-13", "2024-12-15", 2, false},
		{"across month end", "2024-01-30", "2024-02-02", 3, false},
		{"leap day", "2024-02-28", "2024-03-01", 2, false},
		{"across year end", "2024-12-30", "2025-01-02", 3, false},
		{"same day", "2024-12-15", "2024-12-15", 0, true},
		{"reversed", "2024-12-16", "2024-12-15", 0, true},
		{"bad check-out", "2024-12-15", "amanhã", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NightsBetween(tt.checkIn, tt.checkOut)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteStay(t *testing.T) {
	t.Run("Two nights at 300", func(t *testing.T) {
		q, err := QuoteStay("2024-12-15", "2024-12-17", 300)
		require.NoError(t, err)
		assert.Equal(t, 2, q.Nights)
		assert.Equal(t, 0, q.Weeks)
		assert.Equal(t, 2, q.ExtraNights)
		assert.Equal(t, 600.0, q.Total)
	})

	t.Run("Ten nights splits into a week and three nights", func(t *testing.T) {
		q, err := QuoteStay("2025-01-01", "2025-01-11", 450.5)
		require.NoError(t, err)
		assert.Equal(t, 10, q.Nights)
		assert.Equal(t, 1, q.Weeks)
		assert.Equal(t, 3, q.ExtraNights)
		assert.Equal(t, 4505.0, q.Total)
	})

	t.Run("Rounds to cents", func(t *testing.T) {
		q, err := QuoteStay("2025-01-01", "2025-01-04", 99.999)
		require.NoError(t, err)
		assert.Equal(t, 300.0, q.Total)
	})

	t.Run("Non-positive price", func(t *testing.T) {
		_, err := QuoteStay("2025-01-01", "2025-01-04", 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Invalid range", func(t *testing.T) {
		_, err := QuoteStay("2025-01-04", "2025-01-01", 100)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
