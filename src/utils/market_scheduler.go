package utils

import (
	"strings"
	"sync"
	"time"

	"candle-feed/src/logger"
	"candle-feed/src/models"
)

// MarketScheduler resolves the session clock of each exchange. Exchanges
// without an explicit session fall back to the default one.
type MarketScheduler struct {
	Default   *TradingCalendar
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(defaultSession models.MSessionConfig, exchanges map[string]models.MSessionConfig, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Default:   NewTradingCalendar(defaultSession, l),
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	ms.MapExchangesToCalendars(exchanges)
	return ms
}

// -----------------------------------------------------------------------------

// MapExchangesToCalendars replaces the per-exchange session overrides
func (ms *MarketScheduler) MapExchangesToCalendars(exchanges map[string]models.MSessionConfig) {
	calendars := make(map[string]*TradingCalendar, len(exchanges))
	for exchange, session := range exchanges {
		calendars[strings.ToUpper(exchange)] = NewTradingCalendar(session, ms.Logger)
	}

	ms.mu.Lock()
	ms.Calendars = calendars
	ms.mu.Unlock()

	ms.Logger.Info("MarketScheduler: %d exchange session overrides loaded.", len(calendars))
}

// -----------------------------------------------------------------------------

// CalendarFor returns the session clock used for an exchange
func (ms *MarketScheduler) CalendarFor(exchange string) *TradingCalendar {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if cal, ok := ms.Calendars[strings.ToUpper(exchange)]; ok {
		return cal
	}
	return ms.Default
}

// -----------------------------------------------------------------------------

// IsSessionOpen checks the exchange's session at now. An empty exchange
// resolves to the default session.
func (ms *MarketScheduler) IsSessionOpen(exchange string, now time.Time) bool {
	if ms == nil {
		return false
	}
	return ms.CalendarFor(exchange).IsSessionOpen(now)
}
