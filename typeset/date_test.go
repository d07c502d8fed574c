package typeset

import (
	"testing"
	"time"
)

func TestNewDate(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		ok    bool
	}{
		{"regular", 2024, time.March, 15, true},
		{"leap day", 2024, time.February, 29, true},
		{"non leap", 2023, time.February, 29, false},
		{"month zero", 2024, 0, 1, false},
		{"month thirteen", 2024, 13, 1, false},
		{"day zero", 2024, time.January, 0, false},
		{"april 31", 2024, time.April, 31, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := NewDate(tt.year, tt.month, tt.day)
			if ok != tt.ok {
				t.Fatalf("NewDate ok = %v, want %v", ok, tt.ok)
			}
			if ok && (d.Year != tt.year || d.Month != tt.month || d.Day != tt.day) {
				t.Errorf("NewDate = %+v", d)
			}
		})
	}
}

func TestDate_String(t *testing.T) {
	d, _ := NewDate(7, time.July, 4)
	if d.String() != "0007-07-04" {
		t.Errorf("String() = %q", d.String())
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("plus14", 14*3600)
	ts := time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC).In(loc)
	d, ok := DateOf(ts)
	if !ok {
		t.Fatal("DateOf failed")
	}
	if d.Year != 2025 || d.Month != time.January || d.Day != 1 {
		t.Errorf("DateOf = %s, want 2025-01-01", d)
	}
}
