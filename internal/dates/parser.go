package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// Испанские и английские месяцы
	months = map[string]int{
		"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5, "junio": 6,
		"julio": 7, "agosto": 8, "septiembre": 9, "setiembre": 9, "octubre": 10,
		"noviembre": 11, "diciembre": 12,
		"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
		"july": 7, "august": 8, "september": 9, "october": 10, "november": 11,
		"december": 12, "jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7,
		"aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	}

	todayWords    = []string{"today", "hoy", "now"}
	tomorrowWords = []string{"tomorrow", "mañana", "manana"}

	isoRe     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	numericRe = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})(?:[./](\d{4}))?$`)
	wordRe    = regexp.MustCompile(`^(\d{1,2})\s+(?:de\s+)?([a-zñ]+)(?:\s+(?:de\s+)?(\d{4}))?$`)
)

type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// NewParserAt fixes "today" for tests.
func NewParserAt(now time.Time) *Parser {
	return &Parser{now: func() time.Time { return now }}
}

// Parse парсит дату и возвращает time.Time (UTC, 00:00:00)
func (p *Parser) Parse(dateStr string) (time.Time, error) {
	dateStr = strings.ToLower(strings.TrimSpace(dateStr))
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	today := truncate(p.now())
	for _, w := range todayWords {
		if dateStr == w {
			return today, nil
		}
	}
	for _, w := range tomorrowWords {
		if dateStr == w {
			return today.AddDate(0, 0, 1), nil
		}
	}

	if m := isoRe.FindStringSubmatch(dateStr); m != nil {
		return build(m[1], m[2], m[3])
	}

	// Формат: "11/03/2025", "11.03.2025" или "11.03" (день первым)
	if m := numericRe.FindStringSubmatch(dateStr); m != nil {
		year := m[3]
		if year == "" {
			year = fmt.Sprint(today.Year())
		}
		return build(year, m[2], m[1])
	}

	// Формат: "11 marzo 2025", "11 de marzo de 2025", "11 march"
	if m := wordRe.FindStringSubmatch(dateStr); m != nil {
		month, ok := months[m[2]]
		if !ok {
			return time.Time{}, fmt.Errorf("unknown month: %s", m[2])
		}
		year := m[3]
		if year == "" {
			year = fmt.Sprint(today.Year())
		}
		return build(year, fmt.Sprint(month), m[1])
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

func build(yearStr, monthStr, dayStr string) (time.Time, error) {
	year, err := parseIntSafe(yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year: %q: %w", yearStr, err)
	}
	month, err := parseIntSafe(monthStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month: %q: %w", monthStr, err)
	}
	day, err := parseIntSafe(dayStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day: %q: %w", dayStr, err)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month: %d", month)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date нормализует 31.02 в март - такое считаем ошибкой
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid day: %d", day)
	}
	return t, nil
}

func parseIntSafe(s string) (int, error) {
	var result int
	_, err := fmt.Sscanf(s, "%d", &result)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q as int: %w", s, err)
	}
	return result, nil
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
