package utils

import (
	"testing"
	"time"
)

func TestParseDateTime(t *testing.T) {
	want := time.Date(2025, 11, 14, 9, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2025-11-14T09:30:00",
		"2025-11-14T09:30",
		"2025-11-14 09:30",
		" 2025-11-14T09:30:00Z ",
		"2025-11-14T10:30:00+01:00",
	} {
		got, err := ParseDateTime(in)
		if err != nil {
			t.Errorf("ParseDateTime(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Errorf("ParseDateTime(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseDateTime("14TH NOV 2025"); err == nil {
		t.Error("expected error for non-ISO input")
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-11-14T15:00:00")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if want := time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ParseDate = %v, want %v", got, want)
	}
	if _, err := ParseDate("tomorrow"); err == nil {
		t.Error("expected error")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in       string
		h, m     int
		wantFail bool
	}{
		{"09:00", 9, 0, false},
		{"9:30", 9, 30, false},
		{"16:30", 16, 30, false},
		{"24:00", 0, 0, true},
		{"10:5", 0, 0, true},
		{"noon", 0, 0, true},
	}
	for _, tt := range tests {
		h, m, err := ParseClock(tt.in)
		if tt.wantFail {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || h != tt.h || m != tt.m {
			t.Errorf("ParseClock(%q) = %d, %d, %v; want %d, %d", tt.in, h, m, err, tt.h, tt.m)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail(" Ada.Lovelace @Example.com "); got != "ada.lovelace@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestUpdatesFromPtrDTO(t *testing.T) {
	first, notes := "  Ada ", "likes math"
	dto := struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Notes     *string `json:"notes,omitempty"`
	}{FirstName: &first, Notes: &notes}

	NormalizePtrDTO(&dto)
	got := UpdatesFromPtrDTO(&dto, map[string]string{"notes": "remarks"})
	if len(got) != 2 || got["first_name"] != "Ada" || got["remarks"] != "likes math" {
		t.Errorf("UpdatesFromPtrDTO = %v", got)
	}
}
