package analyzemachines

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var levelThresholds = []struct {
	name  string
	score float64
}{
	{"high", 0.7}, {"tinggi", 0.7},
	{"moderate", 0.4}, {"medium", 0.4}, {"sedang", 0.4},
	{"low", 0}, {"rendah", 0},
}

var thresholdNumber = regexp.MustCompile(`(-?\d+(?:[.,]\d+)?)\s*(%)?`)

// parseRiskThreshold accepts a score in [0,1], a percentage or a risk level name.
// Comparators and surrounding words ("> 0.7", "di atas 70%") are ignored.
func parseRiskThreshold(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	if m := thresholdNumber.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err != nil {
			return 0, false
		}
		if m[2] == "%" || (v > 1 && v <= 100) {
			v /= 100
		}
		if v < 0 || v > 1 {
			return 0, false
		}
		return v, true
	}

	for _, l := range levelThresholds {
		if strings.Contains(s, l.name) {
			return l.score, true
		}
	}
	return 0, false
}

var windowPattern = regexp.MustCompile(`(\d+)\s*(jam|hours?|hari|days?|minggu|weeks?|bulan|months?)`)

var windowUnits = map[string]time.Duration{
	"jam": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"hari": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"minggu": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
	"bulan": 30 * 24 * time.Hour, "month": 30 * 24 * time.Hour, "months": 30 * 24 * time.Hour,
}

var windowPhrases = []struct {
	phrase string
	window time.Duration
}{
	{"hari ini", 24 * time.Hour},
	{"today", 24 * time.Hour},
	{"besok", 48 * time.Hour},
	{"tomorrow", 48 * time.Hour},
	{"minggu ini", 7 * 24 * time.Hour},
	{"this week", 7 * 24 * time.Hour},
	{"bulan ini", 30 * 24 * time.Hour},
	{"this month", 30 * 24 * time.Hour},
}

// parseTimeWindow reads windows such as "7 hari", "48 hours" or "minggu ini".
func parseTimeWindow(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	if m := windowPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			return time.Duration(n) * windowUnits[m[2]], true
		}
	}

	for _, p := range windowPhrases {
		if strings.Contains(s, p.phrase) {
			return p.window, true
		}
	}
	return 0, false
}

// wantsSensorTrends reports whether the criteria ask about live sensor behaviour.
func wantsSensorTrends(criteriaType string, compound []string) bool {
	for _, intent := range append([]string{criteriaType}, compound...) {
		switch strings.ToLower(intent) {
		case "anomaly", "overheating":
			return true
		}
	}
	return false
}
