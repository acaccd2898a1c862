package datasource

import (
	"fmt"

	"candle-feed/src/config"
	"candle-feed/src/data_source/broker"
	"candle-feed/src/data_source/simulated"
	"candle-feed/src/interfaces"
	"candle-feed/src/logger"
)

// QuoteSource bundles the quote provider with the probe reporting whether it
// can currently be called.
type QuoteSource struct {
	Quotes interfaces.IQuoteProvider
	Probe  interfaces.IConnectivityProbe
}

// -----------------------------------------------------------------------------

// NewQuoteSource builds the upstream selected by upstream.mode.
func NewQuoteSource(cfg *config.Config, log *logger.Logger) (*QuoteSource, error) {
	switch cfg.Upstream.Mode {
	case "broker":
		src := broker.NewBrokerSource(cfg, log)
		if !src.IsConnected() {
			log.Warning("No upstream access token configured. Pollers will skip ticks until one is set.")
		}
		return &QuoteSource{Quotes: src, Probe: src}, nil
	case "simulated":
		log.Info("Using simulated quotes")
		src := simulated.NewSimulatedSource(0)
		return &QuoteSource{Quotes: src, Probe: src}, nil
	default:
		return nil, fmt.Errorf("unsupported upstream mode: %s", cfg.Upstream.Mode)
	}
}
