package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseDurationHuman(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr error
	}{
		{"30m", 30 * time.Minute, nil},
		{"2h", 2 * time.Hour, nil},
		{"1h30m", 90 * time.Minute, nil},
		{"90", 90 * time.Minute, nil},
		{"3d", 72 * time.Hour, nil},
		{"1d2h", 26 * time.Hour, nil},
		{"  45M ", 45 * time.Minute, nil},
		{"", 0, ErrEmptyDuration},
		{"soon", 0, ErrInvalidDuration},
		{"0", 0, ErrDurationRange},
		{"31d", 0, ErrDurationRange},
	}
	for _, c := range cases {
		got, err := ParseDurationHuman(c.in)
		if c.wantErr != nil {
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("%q: want error %v, got %v", c.in, c.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%q: want %v, got %v", c.in, c.want, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Minute, "45m"},
		{2*time.Hour + 30*time.Minute, "2h30m"},
		{3 * time.Hour, "3h"},
		{26 * time.Hour, "1d2h"},
		{0, "0m"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.in); got != c.want {
			t.Fatalf("%v: want %q, got %q", c.in, c.want, got)
		}
	}
}

func TestParseBirthDate(t *testing.T) {
	if _, err := ParseBirthDate("2024-03-15"); err != nil {
		t.Fatalf("iso date: %v", err)
	}
	if _, err := ParseBirthDate("15.03.2024"); err != nil {
		t.Fatalf("dotted date: %v", err)
	}
	if _, err := ParseBirthDate("yesterday"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}
