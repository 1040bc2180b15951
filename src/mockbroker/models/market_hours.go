package models

import (
	"fmt"
	"time"

	// bundled so session math does not depend on the host zoneinfo
	_ "time/tzdata"
)

// MarketHours describes a daily session [Open, Close) on weekdays in a
// single timezone. Exchange holidays are not modelled.
type MarketHours struct {
	Location *time.Location
	Open     time.Duration
	Close    time.Duration
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parseClock: %q: %w", s, err)
	}

	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func NewMarketHours(timezone, open, closing string) (*MarketHours, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("NewMarketHours: failed to load location %s: %w", timezone, err)
	}

	openOffset, err := parseClock(open)
	if err != nil {
		return nil, fmt.Errorf("NewMarketHours: open: %w", err)
	}

	closeOffset, err := parseClock(closing)
	if err != nil {
		return nil, fmt.Errorf("NewMarketHours: close: %w", err)
	}

	if closeOffset <= openOffset {
		return nil, fmt.Errorf("NewMarketHours: close %s must be after open %s", closing, open)
	}

	return &MarketHours{
		Location: loc,
		Open:     openOffset,
		Close:    closeOffset,
	}, nil
}

// DefaultMarketHours is the NYSE regular session.
func DefaultMarketHours() *MarketHours {
	hours, err := NewMarketHours("America/New_York", "09:30", "16:00")
	if err != nil {
		panic(err)
	}

	return hours
}

func (h *MarketHours) SessionLength() time.Duration {
	return h.Close - h.Open
}

func (h *MarketHours) SessionMinutes() int64 {
	return int64(h.SessionLength() / time.Minute)
}

func (h *MarketHours) at(t time.Time, offset time.Duration) time.Time {
	local := t.In(h.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), int(offset/time.Hour), int((offset%time.Hour)/time.Minute), 0, 0, h.Location)
}

func (h *MarketHours) midnight(t time.Time) time.Time {
	return h.at(t, 0)
}

func (h *MarketHours) SessionOpen(t time.Time) time.Time {
	return h.at(t, h.Open)
}

func (h *MarketHours) SessionClose(t time.Time) time.Time {
	return h.at(t, h.Close)
}

func (h *MarketHours) IsTradingDay(t time.Time) bool {
	switch t.In(h.Location).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	return true
}

// PreviousTradingDay returns midnight of the closest trading day strictly
// before t.
func (h *MarketHours) PreviousTradingDay(t time.Time) time.Time {
	day := h.midnight(t).AddDate(0, 0, -1)
	for !h.IsTradingDay(day) {
		day = day.AddDate(0, 0, -1)
	}

	return day
}

func (h *MarketHours) IsOpen(t time.Time) bool {
	if !h.IsTradingDay(t) {
		return false
	}

	return !t.Before(h.SessionOpen(t)) && t.Before(h.SessionClose(t))
}

// NextSessionOpen returns the first session open at or after t.
func (h *MarketHours) NextSessionOpen(t time.Time) time.Time {
	if h.IsTradingDay(t) {
		if open := h.SessionOpen(t); !t.After(open) {
			return open
		}
	}

	day := h.midnight(t).AddDate(0, 0, 1)
	for !h.IsTradingDay(day) {
		day = day.AddDate(0, 0, 1)
	}

	return h.SessionOpen(day)
}

// Normalize clamps t into the session. After the close it freezes at the
// close of the same day; before the open, or on a non trading day, it rolls
// back to the close of the previous trading day.
func (h *MarketHours) Normalize(t time.Time) time.Time {
	local := t.In(h.Location)

	if !h.IsTradingDay(local) {
		return h.SessionClose(h.PreviousTradingDay(local))
	}

	if local.Before(h.SessionOpen(local)) {
		return h.SessionClose(h.PreviousTradingDay(local))
	}

	if sessionClose := h.SessionClose(local); !local.Before(sessionClose) {
		return sessionClose
	}

	return local
}

// SessionMinutesBetween counts whole session minutes in [start, end).
func (h *MarketHours) SessionMinutesBetween(start, end time.Time) int64 {
	if !end.After(start) {
		return 0
	}

	var total time.Duration
	last := h.midnight(end)
	for day := h.midnight(start); !day.After(last); day = day.AddDate(0, 0, 1) {
		if !h.IsTradingDay(day) {
			continue
		}

		lo := h.SessionOpen(day)
		if start.After(lo) {
			lo = start
		}

		hi := h.SessionClose(day)
		if end.Before(hi) {
			hi = end
		}

		if hi.After(lo) {
			total += hi.Sub(lo)
		}
	}

	return int64(total / time.Minute)
}

// ReplayMinute maps a mock timestamp to the session minute, counted from
// windowStart, whose bar is in effect at that time. A timestamp frozen at the
// close resolves to the last minute of that session.
func (h *MarketHours) ReplayMinute(windowStart, t time.Time) int64 {
	normalized := h.Normalize(t)
	minutes := h.SessionMinutesBetween(windowStart, normalized)
	if !h.IsOpen(normalized) && minutes > 0 {
		minutes--
	}

	return minutes
}

// DateKey identifies the market calendar day of t.
func (h *MarketHours) DateKey(t time.Time) string {
	return t.In(h.Location).Format("2006-01-02")
}
