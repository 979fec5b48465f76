package billing

import (
	"errors"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNights(t *testing.T) {
	cases := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     int
	}{
		{name: "three nights", checkIn: day("2024-01-10"), checkOut: day("2024-01-13"), want: 3},
		{name: "one night", checkIn: day("2024-01-10"), checkOut: day("2024-01-11"), want: 1},
		{name: "month boundary", checkIn: day("2024-01-30"), checkOut: day("2024-02-02"), want: 3},
		{name: "sub-day range clamps to one", checkIn: day("2024-01-10"), checkOut: day("2024-01-10").Add(6 * time.Hour), want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Nights(tc.checkIn, tc.checkOut)
			if err != nil {
				t.Fatalf("Nights: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Nights = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNightsRejectsInvertedRange(t *testing.T) {
	for _, tc := range []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
	}{
		{name: "same day", checkIn: day("2024-01-10"), checkOut: day("2024-01-10")},
		{name: "check-out before check-in", checkIn: day("2024-01-13"), checkOut: day("2024-01-10")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Nights(tc.checkIn, tc.checkOut); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestLodgingDescription(t *testing.T) {
	if got := LodgingDescription(RoomTypeSuite); got != "Lodging in room Suite" {
		t.Fatalf("LodgingDescription = %q", got)
	}
}
