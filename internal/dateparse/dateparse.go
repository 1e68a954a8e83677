// Package dateparse understands the Russian end dates and intervals an
// operator types for a banner: "неделя", "две недели", "10 дней",
// "1 сентября", "1 сентября 2026 года".
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"AutoPublisher/internal/domain"
)

type unit int

const (
	days unit = iota
	weeks
	months
	years
)

var numbers = map[string]int{
	"один":   1,
	"одна":   1,
	"два":    2,
	"две":    2,
	"три":    3,
	"четыре": 4,
	"пять":   5,
	"шесть":  6,
	"семь":   7,
	"восемь": 8,
	"девять": 9,
	"десять": 10,
}

var simpleIntervals = map[string]unit{
	"день":   days,
	"неделя": weeks,
	"месяц":  months,
	"год":    years,
}

var intervals = map[string]unit{
	"день":    days,
	"дня":     days,
	"дней":    days,
	"неделя":  weeks,
	"недели":  weeks,
	"недель":  weeks,
	"месяц":   months,
	"месяца":  months,
	"месяцев": months,
	"год":     years,
	"года":    years,
	"лет":     years,
}

var monthNames = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

var (
	intervalRe = regexp.MustCompile(`^(\d+|\p{L}+)\s+(\p{L}+)$`)
	dateRe     = regexp.MustCompile(`^(\d{1,2})\s+(\p{L}+)(?:\s+(\d{4})(?:\s+года)?)?$`)
)

// AddDate resolves text relative to start and returns the resulting day at
// midnight in start's location. Dates without a year that fall before start
// are moved to the next year.
func AddDate(text string, start time.Time) (time.Time, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	if u, ok := simpleIntervals[text]; ok {
		return add(day, u, 1), nil
	}

	if m := intervalRe.FindStringSubmatch(text); m != nil {
		if u, ok := intervals[m[2]]; ok {
			n, ok := count(m[1])
			if ok {
				return add(day, u, n), nil
			}
		}
	}

	if m := dateRe.FindStringSubmatch(text); m != nil {
		month, ok := monthNames[m[2]]
		if !ok {
			return time.Time{}, unknown(text)
		}
		d, _ := strconv.Atoi(m[1])
		year := day.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		if !valid(year, month, d) {
			return time.Time{}, unknown(text)
		}
		out := time.Date(year, month, d, 0, 0, 0, 0, day.Location())
		if m[3] == "" && out.Before(day) {
			if !valid(year+1, month, d) {
				return time.Time{}, unknown(text)
			}
			out = time.Date(year+1, month, d, 0, 0, 0, 0, day.Location())
		}
		return out, nil
	}

	return time.Time{}, unknown(text)
}

func unknown(text string) error {
	return fmt.Errorf("%q: %w", text, domain.ErrUnknownDate)
}

func count(word string) (int, bool) {
	if n, ok := numbers[word]; ok {
		return n, true
	}
	n, err := strconv.Atoi(word)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func valid(year int, month time.Month, d int) bool {
	return d >= 1 && d <= daysIn(year, month)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// add moves t by n units. Month and year steps clamp to the last day of the
// target month, so 31 January plus a month is 28 or 29 February.
func add(t time.Time, u unit, n int) time.Time {
	switch u {
	case days:
		return t.AddDate(0, 0, n)
	case weeks:
		return t.AddDate(0, 0, 7*n)
	case years:
		n *= 12
	}
	total := int(t.Month()) - 1 + n
	year := t.Year() + total/12
	month := time.Month(total%12 + 1)
	d := min(t.Day(), daysIn(year, month))
	return time.Date(year, month, d, 0, 0, 0, 0, t.Location())
}
