package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Portuguese three-letter month abbreviations as printed on invoices.
var monthAbbrev = map[string]time.Month{
	"JAN": time.January,
	"FEV": time.February,
	"MAR": time.March,
	"ABR": time.April,
	"MAI": time.May,
	"JUN": time.June,
	"JUL": time.July,
	"AGO": time.August,
	"SET": time.September,
	"OUT": time.October,
	"NOV": time.November,
	"DEZ": time.December,
}

// Full month names, used when recovering the year from headers like "Maio/2025".
var monthNames = map[string]time.Month{
	"JANEIRO":   time.January,
	"FEVEREIRO": time.February,
	"MARCO":     time.March,
	"ABRIL":     time.April,
	"MAIO":      time.May,
	"JUNHO":     time.June,
	"JULHO":     time.July,
	"AGOSTO":    time.August,
	"SETEMBRO":  time.September,
	"OUTUBRO":   time.October,
	"NOVEMBRO":  time.November,
	"DEZEMBRO":  time.December,
}

var (
	// DD/MM[/YYYY] or DD-MM[-YYYY]
	numericDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?$`)
	// DD MMM[ YYYY]
	textDate = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-zÀ-ÿ]{3,})\.?(?:\s+(\d{2,4}))?$`)
)

// ParseDate builds a calendar date from its parts. month may be a number or
// a Portuguese month abbreviation; unknown abbreviations resolve to January.
// An empty year takes the year of ref.
func ParseDate(day, month, year string, ref time.Time) (time.Time, error) {
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q", day)
	}

	m, err := parseMonth(month)
	if err != nil {
		return time.Time{}, err
	}

	y := ref.Year()
	if year = strings.TrimSpace(year); year != "" {
		y, err = strconv.Atoi(year)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid year %q", year)
		}
		if y < 100 {
			y += 2000
		}
	}

	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31/02 becomes 03/03); reject it instead.
	if t.Day() != d || t.Month() != m {
		return time.Time{}, fmt.Errorf("invalid date %02d/%02d/%d", d, m, y)
	}
	return t, nil
}

// ParseDateString parses "05/05", "05/05/2025", "05-05-2025" or "15 JAN".
func ParseDateString(s string, ref time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if m := numericDate.FindStringSubmatch(s); m != nil {
		return ParseDate(m[1], m[2], m[3], ref)
	}
	if m := textDate.FindStringSubmatch(s); m != nil {
		return ParseDate(m[1], m[2], m[3], ref)
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// MonthFromName resolves a full or abbreviated Portuguese month name.
func MonthFromName(name string) (time.Month, bool) {
	folded := Fold(name)
	if m, ok := monthNames[folded]; ok {
		return m, true
	}
	if len(folded) >= 3 {
		if m, ok := monthAbbrev[folded[:3]]; ok {
			return m, true
		}
	}
	return 0, false
}

func parseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("invalid month %q", s)
		}
		return time.Month(n), nil
	}
	folded := Fold(s)
	if len(folded) > 3 {
		folded = folded[:3]
	}
	if m, ok := monthAbbrev[folded]; ok {
		return m, nil
	}
	// Known accuracy limitation: unrecognized abbreviations become January.
	return time.January, nil
}
