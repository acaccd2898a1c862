package interfaces

import (
	"context"
	"time"

	"candle-feed/src/models"
)

// -----------------------------------------------------------------------------
// ISessionClock decides whether an exchange's trading session is open.
// -----------------------------------------------------------------------------

type ISessionClock interface {
	IsSessionOpen(exchange string, now time.Time) bool
}

// -----------------------------------------------------------------------------
// ILiveFeed is the outbound surface consumed by transports.
// -----------------------------------------------------------------------------

type ILiveFeed interface {
	Subscribe(ctx context.Context, subscriberID string, key models.InstrumentKey, ch IPushChannel) error

	// -----------------------------------------------------------------------------

	// Unsubscribe is idempotent
	Unsubscribe(subscriberID string)

	// -----------------------------------------------------------------------------

	// Status is a diagnostic snapshot with no side effects
	Status() models.MStatus
}
