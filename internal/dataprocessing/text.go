package dataprocessing

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidAmount is returned when a balance cannot be parsed
var ErrInvalidAmount = errors.New("invalid amount")

var (
	quarterPattern = regexp.MustCompile(`(\d)T`)
	yearPattern    = regexp.MustCompile(`T(\d{4})`)
)

// ParseAmount parses a currency value.
//
// Surrounding spaces are ignored. When the text contains a comma it is the
// decimal separator and every '.' is a thousands separator ("1.000,50" is
// 1000.5). Without a comma the text is parsed as-is, which covers numeric
// spreadsheet cells ("1000.5"). Empty and non-numeric text is rejected.
func ParseAmount(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	return v, nil
}

// FormatAmount renders v with exactly two decimals
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// QuarterFromSource derives "<d>º Trimestre" from a name such as
// "1T2024.zip". It returns "" when the name carries no quarter.
func QuarterFromSource(name string) string {
	m := quarterPattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1] + "º Trimestre"
}

// YearFromSource derives the four-digit year following "T" in name, or ""
func YearFromSource(name string) string {
	m := yearPattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

// NormalizeText trims, composes (NFC) and upper-cases s
func NormalizeText(s string) string {
	return strings.ToUpper(norm.NFC.String(strings.TrimSpace(s)))
}

// StripFloatSuffix trims s and removes a trailing ".0" left behind when an
// identifier went through a float column upstream.
func StripFloatSuffix(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".0")
}
