package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"candle-feed/src/helpers"
	"candle-feed/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// instrumentFromQuery reads exchange, symbol and token query parameters.
func instrumentFromQuery(c *gin.Context) (models.InstrumentKey, error) {
	key := models.InstrumentKey{
		Exchange: strings.ToUpper(strings.TrimSpace(c.Query("exchange"))),
		Symbol:   strings.TrimSpace(c.Query("symbol")),
		Token:    strings.TrimSpace(c.Query("token")),
	}

	var missing []string
	if key.Exchange == "" {
		missing = append(missing, "exchange")
	}
	if key.Symbol == "" {
		missing = append(missing, "symbol")
	}
	if key.Token == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return key, fmt.Errorf("missing query parameters: %s", strings.Join(missing, ", "))
	}
	return key, nil
}

// -----------------------------------------------------------------------------

func subscribeStatus(err error) int {
	switch {
	case errors.Is(err, helpers.ErrDuplicateSubscriber):
		return http.StatusConflict
	case errors.Is(err, helpers.ErrFeedClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
