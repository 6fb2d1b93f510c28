package util

import "testing"

func TestParseTimeToMinutes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"minutes only", "25 mins", 25},
		{"single minute", "1 min", 1},
		{"hours and minutes", "1 hr 30 mins", 90},
		{"hours only", "2 hrs", 120},
		{"no space before unit", "45mins", 45},
		{"mixed case", "1 Hr 30 Mins", 90},
		{"upper case", "45 MINS", 45},
		{"empty string", "", 0},
		{"unparsable", "a while", 0},
		{"zero minutes", "0 mins", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimeToMinutes(tt.input)
			if got != tt.want {
				t.Errorf("ParseTimeToMinutes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
