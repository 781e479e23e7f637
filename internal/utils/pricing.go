package utils

import (
	"fmt"
	"math"
	"time"

	"chacara-backend/internal/domain"
)

// StayQuote is the price of a stay broken down by full weeks and leftover nights.
type StayQuote struct {
	CheckIn     string  `json:"check_in"`
	CheckOut    string  `json:"check_out"`
	Nights      int     `json:"nights"`
	Weeks       int     `json:"weeks"`
	ExtraNights int     `json:"extra_nights"`
	PricePerDay float64 `json:"price_per_day"`
	Total       float64 `json:"total"`
}

// ParseDate converts a yyyy-mm-dd string into a UTC midnight time.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected yyyy-mm-dd", domain.ErrInvalidInput, dateStr)
	}
	return t, nil
}

// NightsBetween returns the number of nights from check-in to check-out.
// Check-out must be strictly after check-in.
func NightsBetween(checkIn, checkOut string) (int, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return 0, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return 0, err
	}
	if !out.After(in) {
		return 0, fmt.Errorf("%w: check_out must be after check_in", domain.ErrInvalidInput)
	}
	// Both are UTC midnights, so the difference is a whole number of days.
	return int(out.Sub(in).Hours() / 24), nil
}

// QuoteStay prices a stay at a flat daily rate, rounded to cents.
func QuoteStay(checkIn, checkOut string, pricePerDay float64) (StayQuote, error) {
	if pricePerDay <= 0 {
		return StayQuote{}, fmt.Errorf("%w: price per day must be positive", domain.ErrInvalidInput)
	}
	nights, err := NightsBetween(checkIn, checkOut)
	if err != nil {
		return StayQuote{}, err
	}

	const nightsPerWeek = 7
	return StayQuote{
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      nights,
		Weeks:       nights / nightsPerWeek,
		ExtraNights: nights % nightsPerWeek,
		PricePerDay: pricePerDay,
		Total:       roundCents(float64(nights) * pricePerDay),
	}, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
