package interfaces

import (
	"context"

	"candle-feed/src/models"
)

// -----------------------------------------------------------------------------
// IQuoteProvider fetches the latest quote for one instrument from upstream.
// -----------------------------------------------------------------------------

type IQuoteProvider interface {

	// Name returns the unique identifier of the provider
	Name() string

	// -----------------------------------------------------------------------------

	// GetQuote returns last traded price plus day open/high/low.
	// Called at sub-second cadence; failures are expected and non-fatal.
	GetQuote(ctx context.Context, key models.InstrumentKey) (*models.MQuote, error)
}

// -----------------------------------------------------------------------------
// IConnectivityProbe reports whether the upstream connector is usable.
// -----------------------------------------------------------------------------

type IConnectivityProbe interface {
	IsConnected() bool
}

// -----------------------------------------------------------------------------
// ISeedProvider supplies the reference OHLC used to warm-start a candle.
// -----------------------------------------------------------------------------

type ISeedProvider interface {

	// GetSeed returns (nil, nil) when no seed exists for the instrument.
	GetSeed(ctx context.Context, key models.InstrumentKey) (*models.MSeedCandle, error)

	// -----------------------------------------------------------------------------

	// Close releases the underlying connection
	Close() error
}
