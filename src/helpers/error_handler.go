package helpers

import (
	"context"
	"errors"
	"fmt"

	"candle-feed/src/logger"
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

var (
	ErrNotConnected        = errors.New("upstream not connected")
	ErrEmptyQuote          = errors.New("upstream returned no usable price")
	ErrChannelClosed       = errors.New("push channel closed")
	ErrChannelFull         = errors.New("push channel queue full")
	ErrDuplicateSubscriber = errors.New("subscriber id already registered")
	ErrFeedClosed          = errors.New("live feed closed")
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type CandleFeedError struct {
	Message string
	Cause   error
}

func (e *CandleFeedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CandleFeedError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As
type UpstreamError struct {
	CandleFeedError
	StatusCode int
}
type SeedError struct{ CandleFeedError }
type ChannelError struct {
	CandleFeedError
	SubscriberID string
}

// -----------------------------------------------------------------------------

func NewUpstreamError(message string, statusCode int, cause error) *UpstreamError {
	return &UpstreamError{CandleFeedError: CandleFeedError{Message: message, Cause: cause}, StatusCode: statusCode}
}

func NewSeedError(message string, cause error) *SeedError {
	return &SeedError{CandleFeedError{Message: message, Cause: cause}}
}

func NewChannelError(subscriberID string, cause error) *ChannelError {
	return &ChannelError{
		CandleFeedError: CandleFeedError{Message: fmt.Sprintf("push to subscriber %s failed", subscriberID), Cause: cause},
		SubscriberID:    subscriberID,
	}
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler logs non-fatal errors for one component
type ErrorHandler struct {
	Logger *logger.Logger
}

func NewErrorHandler(l *logger.Logger) *ErrorHandler {
	if l == nil {
		l = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{Logger: l}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) Handle(err error, where string) {
	if err == nil {
		return
	}

	var upstream *UpstreamError
	var channel *ChannelError
	switch {
	case errors.Is(err, ErrNotConnected):
		e.Logger.Warning("%s skipped: %v", where, err)
	case errors.Is(err, ErrEmptyQuote), errors.Is(err, context.DeadlineExceeded):
		e.Logger.Warning("Transient failure in %s: %v", where, err)
	case errors.As(err, &upstream):
		e.Logger.Warning("Upstream failure in %s (status %d): %v", where, upstream.StatusCode, err)
	case errors.As(err, &channel):
		e.Logger.Info("Dropping delivery in %s: %v", where, err)
	case errors.Is(err, context.Canceled):
		e.Logger.Debug("%s canceled: %v", where, err)
	default:
		e.Logger.Error("Error in %s: %v", where, err)
	}
}
