package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"candle-feed/src/config"
	"candle-feed/src/helpers"
	"candle-feed/src/logger"
	"candle-feed/src/models"
	"candle-feed/src/network"
)

// BrokerSource reads market quotes from a SmartAPI-style REST endpoint and
// doubles as the connectivity probe for that session.
type BrokerSource struct {
	BaseURL   string
	QuotePath string
	APIKey    string
	Network   *network.NetworkManager
	Logger    *logger.Logger

	// RejectCooldown pauses quotes after a 401/403. Once it has passed the
	// source reports connected again so the next tick re-checks the token.
	RejectCooldown time.Duration

	mu          sync.RWMutex
	accessToken string
	rejected    bool
	rejectedAt  time.Time
}

// -----------------------------------------------------------------------------

func NewBrokerSource(cfg *config.Config, log *logger.Logger) *BrokerSource {
	if log == nil {
		log = logger.NewLogger(cfg.MConfig, "BrokerSource")
	}
	up := cfg.Upstream

	return &BrokerSource{
		BaseURL:     strings.TrimRight(up.BaseURL, "/"),
		QuotePath:   up.QuotePath,
		APIKey:      up.APIKey,
		Network:     network.NewNetworkManager(up.RatePerSecond, up.Burst, cfg.RequestTimeout(), log),
		Logger:      log,
		accessToken: up.AccessToken,

		RejectCooldown: cfg.RejectCooldown(),
	}
}

// -----------------------------------------------------------------------------

func (s *BrokerSource) Name() string {
	return "broker"
}

// -----------------------------------------------------------------------------

// IsConnected is true while a session token is held and the upstream has not
// rejected it within the last RejectCooldown.
func (s *BrokerSource) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accessToken == "" {
		return false
	}
	return !s.rejected || time.Since(s.rejectedAt) >= s.RejectCooldown
}

// -----------------------------------------------------------------------------

// SetAccessToken installs a fresh session token and clears any rejection.
func (s *BrokerSource) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
	s.rejected = false
}

// -----------------------------------------------------------------------------

type quoteRequest struct {
	Mode           string              `json:"mode"`
	ExchangeTokens map[string][]string `json:"exchangeTokens"`
}

type quoteResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    *struct {
		Fetched []struct {
			Exchange      string  `json:"exchange"`
			TradingSymbol string  `json:"tradingSymbol"`
			SymbolToken   string  `json:"symbolToken"`
			Ltp           float64 `json:"ltp"`
			Open          float64 `json:"open"`
			High          float64 `json:"high"`
			Low           float64 `json:"low"`
			Close         float64 `json:"close"`
		} `json:"fetched"`
		Unfetched []json.RawMessage `json:"unfetched"`
	} `json:"data"`
}

// -----------------------------------------------------------------------------

func (s *BrokerSource) GetQuote(ctx context.Context, key models.InstrumentKey) (*models.MQuote, error) {
	s.mu.RLock()
	token := s.accessToken
	s.mu.RUnlock()

	headers := map[string]string{
		"Authorization":   "Bearer " + token,
		"X-PrivateKey":    s.APIKey,
		"X-UserType":      "USER",
		"X-SourceID":      "WEB",
		"X-ClientLocalIP": "127.0.0.1",
	}
	body := quoteRequest{
		Mode:           "OHLC",
		ExchangeTokens: map[string][]string{strings.ToUpper(key.Exchange): {key.Token}},
	}

	data, err := s.Network.PostJSON(ctx, s.BaseURL+s.QuotePath, headers, body)
	if err != nil {
		var upstream *helpers.UpstreamError
		if errors.As(err, &upstream) &&
			(upstream.StatusCode == http.StatusUnauthorized || upstream.StatusCode == http.StatusForbidden) {
			s.markRejected(upstream.StatusCode)
		}
		return nil, err
	}
	s.markAccepted()

	return s.parseQuoteResponse(key, data)
}

// -----------------------------------------------------------------------------

func (s *BrokerSource) parseQuoteResponse(key models.InstrumentKey, data []byte) (*models.MQuote, error) {
	var resp quoteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}
	if !resp.Status {
		return nil, helpers.NewUpstreamError(fmt.Sprintf("quote rejected for %s: %s", key, resp.Message), http.StatusOK, nil)
	}
	if resp.Data == nil || len(resp.Data.Fetched) == 0 {
		return nil, fmt.Errorf("no quote for %s: %w", key, helpers.ErrEmptyQuote)
	}

	q := resp.Data.Fetched[0]
	return &models.MQuote{Last: q.Ltp, Open: q.Open, High: q.High, Low: q.Low}, nil
}

// -----------------------------------------------------------------------------

func (s *BrokerSource) markRejected(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rejected {
		s.Logger.Warning("Upstream rejected the session token (status %d). Quotes paused for %s.", status, s.RejectCooldown)
	}
	s.rejected = true
	s.rejectedAt = time.Now()
}

// markAccepted clears a rejection once the upstream answers 2xx again.
func (s *BrokerSource) markAccepted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejected {
		s.Logger.Info("Upstream accepted the session token again. Quotes resumed.")
	}
	s.rejected = false
}
