package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberPattern  = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	leadingInteger = regexp.MustCompile(`^\s*(\d+)`)
)

// ParseRange parses range tokens such as "1200-1800" or "10000000+".
// An open upper bound ("+") is returned as +Inf. ok is false for malformed
// tokens, which callers treat as "no constraint".
func ParseRange(token string) (min, max float64, ok bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, 0, false
	}

	if strings.HasSuffix(token, "+") {
		lo, err := parseNumber(strings.TrimSuffix(token, "+"))
		if err != nil {
			return 0, 0, false
		}
		return lo, math.Inf(1), true
	}

	parts := strings.Split(token, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err := parseNumber(parts[0])
	if err != nil {
		return 0, 0, false
	}
	hi, err := parseNumber(parts[1])
	if err != nil || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

// ParseLeadingInt returns the integer a token starts with, e.g. 3 for "3 BHK"
func ParseLeadingInt(token string) (int, bool) {
	m := leadingInteger.FindStringSubmatch(token)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FirstNumber returns the first comma-grouped number found in s, e.g. 1419 for "1,419 sq ft"
func FirstNumber(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := parseNumber(m)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}
