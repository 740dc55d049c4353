// Package model provides value objects for API parameter validation.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ISOWeek represents an ISO 8601 week value object.
type ISOWeek struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// NewISOWeek creates a new ISO week value object from path parameters.
func NewISOWeek(yearStr, weekStr string) (ISOWeek, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return ISOWeek{}, fmt.Errorf("invalid year parameter: must be an integer")
	}
	week, err := strconv.Atoi(weekStr)
	if err != nil {
		return ISOWeek{}, fmt.Errorf("invalid week parameter: must be an integer")
	}
	w := ISOWeek{Year: year, Week: week}
	if err := w.Validate(); err != nil {
		return ISOWeek{}, err
	}
	return w, nil
}

// ISOWeekOf returns the ISO week containing t.
func ISOWeekOf(t time.Time) ISOWeek {
	y, w := t.ISOWeek()
	return ISOWeek{Year: y, Week: w}
}

// Validate checks that the week exists in its ISO year.
func (w ISOWeek) Validate() error {
	if w.Year < 1 || w.Year > 9999 {
		return NewValidationError("year must be between 1 and 9999")
	}
	if n := WeeksInYear(w.Year); w.Week < 1 || w.Week > n {
		return NewValidationError(fmt.Sprintf("week must be between 1 and %d for %d", n, w.Year))
	}
	return nil
}

// Start returns Monday 00:00 of the week in loc.
func (w ISOWeek) Start(loc *time.Location) time.Time {
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, loc)
	// Monday=0 ... Sunday=6
	offset := (int(jan4.Weekday()) + 6) % 7
	week1 := jan4.AddDate(0, 0, -offset)
	return week1.AddDate(0, 0, 7*(w.Week-1))
}

// End returns Sunday 23:59:59.999999999 of the week in loc.
func (w ISOWeek) End(loc *time.Location) time.Time {
	return w.Start(loc).AddDate(0, 0, 7).Add(-time.Nanosecond)
}

// IsPast reports whether the week had already ended at now.
func (w ISOWeek) IsPast(now time.Time) bool {
	return now.After(w.End(now.Location()))
}

// String returns the week in "2025-W07" form.
func (w ISOWeek) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}

// WeeksInYear returns 52 or 53, the number of ISO weeks in year.
func WeeksInYear(year int) int {
	// Dec 28 always falls in the last ISO week of its year.
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// Slot represents an objective slot index value object.
type Slot struct {
	value int
}

// NewSlot creates a new slot value object.
func NewSlot(slotStr string) (*Slot, error) {
	slot, err := strconv.Atoi(slotStr)
	if err != nil {
		return nil, fmt.Errorf("invalid slot parameter: must be an integer")
	}
	if err := ValidateSlot(slot); err != nil {
		return nil, err
	}
	return &Slot{value: slot}, nil
}

// Int returns the slot index.
func (s *Slot) Int() int {
	return s.value
}

// Year represents a calendar year query parameter.
type Year struct {
	value int
}

// NewYear creates a new year value object. An empty string means the current year.
func NewYear(yearStr string) (*Year, error) {
	if yearStr == "" {
		return &Year{value: time.Now().Year()}, nil
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1 || year > 9999 {
		return nil, fmt.Errorf("invalid year parameter: must be between 1 and 9999")
	}
	return &Year{value: year}, nil
}

// Int returns the year.
func (y *Year) Int() int {
	return y.value
}

// GoalID represents a goal ID value object.
type GoalID struct {
	value uuid.UUID
}

// NewGoalID creates a new goal ID value object.
func NewGoalID(idStr string) (*GoalID, error) {
	if idStr == "" {
		return nil, fmt.Errorf("goal ID is required")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format")
	}

	return &GoalID{value: id}, nil
}

// UUID returns the UUID value.
func (g *GoalID) UUID() uuid.UUID {
	return g.value
}

// Language represents the output language of generated text.
type Language struct {
	value string
}

// NewLanguage creates a language value object. Empty means English.
func NewLanguage(lang string) Language {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = "en"
	}
	return Language{value: lang}
}

// String returns the language code.
func (l Language) String() string {
	return l.value
}

// Pagination represents pagination parameters value object.
type Pagination struct {
	limit  int
	offset int
}

// NewPagination creates a new pagination value object.
func NewPagination(limitStr, offsetStr string) (*Pagination, error) {
	limit := 100 // Default value
	offset := 0  // Default value

	// Process limit parameter
	if limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid limit parameter: must be a positive integer")
		}
		if parsedLimit <= 0 {
			return nil, fmt.Errorf("limit must be greater than 0")
		}
		if parsedLimit > 1000 { // Set upper limit
			parsedLimit = 1000
		}
		limit = parsedLimit
	}

	// Process offset parameter
	if offsetStr != "" {
		parsedOffset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
		}
		if parsedOffset < 0 {
			return nil, fmt.Errorf("offset must be non-negative")
		}
		offset = parsedOffset
	}

	return &Pagination{limit: limit, offset: offset}, nil
}

// Limit returns the limit value.
func (p *Pagination) Limit() int {
	return p.limit
}

// Offset returns the offset value.
func (p *Pagination) Offset() int {
	return p.offset
}
