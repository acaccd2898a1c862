package utils

import (
	"strings"
	"time"
	_ "time/tzdata"

	"candle-feed/src/config"
	"candle-feed/src/logger"
	"candle-feed/src/models"

	"github.com/scmhub/calendar"
)

// TradingCalendar is the session clock of one exchange: a fixed wall-clock
// window in the exchange's civil time zone, weekdays only, optionally
// narrowed by a scmhub/calendar holiday calendar.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Timezone *time.Location
	Open     time.Duration // offset from local midnight, inclusive
	Close    time.Duration // offset from local midnight, inclusive
}

// -----------------------------------------------------------------------------

// NewTradingCalendar never fails: a zone or window that cannot be loaded
// leaves Timezone nil and the calendar reports the session as closed.
func NewTradingCalendar(session models.MSessionConfig, l *logger.Logger) *TradingCalendar {
	tc := &TradingCalendar{}

	loc, err := time.LoadLocation(session.Timezone)
	if err != nil {
		l.Error("Failed to load timezone '%s': %v. Session will be treated as closed.", session.Timezone, err)
		return tc
	}

	open, errOpen := config.ParseClock(session.Open)
	closeAt, errClose := config.ParseClock(session.Close)
	if errOpen != nil || errClose != nil {
		l.Error("Invalid session window %s-%s. Session will be treated as closed.", session.Open, session.Close)
		return tc
	}

	tc.Timezone = loc
	tc.Open = open
	tc.Close = closeAt

	if mic := strings.ToLower(strings.TrimSpace(session.Calendar)); mic != "" {
		// scmhub/calendar.GetCalendar returns a calendar by MIC (ISO 10383)
		cal := calendar.GetCalendar(mic)
		if cal == nil {
			l.Warning("Holiday calendar '%s' not available. Only weekends are excluded.", mic)
		} else {
			tc.Calendar = cal
		}
	}

	return tc
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc == nil || tc.Timezone == nil {
		return false
	}
	date = date.In(tc.Timezone)

	weekday := date.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}
	if tc.Calendar != nil {
		// Library handles IsHoliday / IsBusinessDay
		return tc.Calendar.IsBusinessDay(date)
	}
	return true
}

// -----------------------------------------------------------------------------

// IsSessionOpen reports whether t falls inside the trading window, bounds inclusive.
func (tc *TradingCalendar) IsSessionOpen(t time.Time) bool {
	if !tc.IsTradingDay(t) {
		return false
	}

	local := t.In(tc.Timezone)
	sinceMidnight := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())

	// The close bound covers the whole closing minute
	return sinceMidnight >= tc.Open && sinceMidnight < tc.Close+time.Minute
}
