package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	hoursRe   = regexp.MustCompile(`(\d+)\s*hr`)
	minutesRe = regexp.MustCompile(`(\d+)\s*min`)
)

// ParseTimeToMinutes converts a human duration string like "1 hr 30 mins" or
// "25 mins" into whole minutes. Matching is case-insensitive. Strings with no
// recognizable hour or minute component yield zero, which downstream code
// reads as "unknown".
func ParseTimeToMinutes(s string) int {
	s = strings.ToLower(s)
	minutes := 0
	if m := hoursRe.FindStringSubmatch(s); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil {
			minutes += h * 60
		}
	}
	if m := minutesRe.FindStringSubmatch(s); m != nil {
		if mins, err := strconv.Atoi(m[1]); err == nil {
			minutes += mins
		}
	}
	return minutes
}
