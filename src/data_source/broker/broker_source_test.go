package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"candle-feed/src/config"
	"candle-feed/src/helpers"
	"candle-feed/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reliance = models.InstrumentKey{Exchange: "nse", Symbol: "RELIANCE", Token: "2885"}

func newSource(t *testing.T, baseURL, token string) *BrokerSource {
	t.Helper()
	cfg, err := config.Parse([]byte(fmt.Sprintf(`
name: test
host: 127.0.0.1
port: 8090
upstream:
  mode: broker
  base_url: %s/
  quote_path: /quote
  api_key: key-123
  access_token: %q
  rate_per_second: 1000
  burst: 10
`, baseURL, token)))
	require.NoError(t, err)
	return NewBrokerSource(cfg, nil)
}

func TestGetQuoteParsesFetchedRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "key-123", r.Header.Get("X-PrivateKey"))

		var body quoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "OHLC", body.Mode)
		assert.Equal(t, map[string][]string{"NSE": {"2885"}}, body.ExchangeTokens)

		fmt.Fprint(w, `{"status":true,"message":"SUCCESS","data":{"fetched":[
			{"exchange":"NSE","tradingSymbol":"RELIANCE-EQ","symbolToken":"2885","ltp":2510.5,"open":2500,"high":2520,"low":2490,"close":2495}
		],"unfetched":[]}}`)
	}))
	defer srv.Close()

	src := newSource(t, srv.URL, "tok")
	require.True(t, src.IsConnected())

	q, err := src.GetQuote(context.Background(), reliance)
	require.NoError(t, err)
	assert.Equal(t, &models.MQuote{Last: 2510.5, Open: 2500, High: 2520, Low: 2490}, q)
}

func TestGetQuoteEmptyFetchIsEmptyQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":true,"message":"SUCCESS","data":{"fetched":[],"unfetched":[{}]}}`)
	}))
	defer srv.Close()

	_, err := newSource(t, srv.URL, "tok").GetQuote(context.Background(), reliance)
	assert.ErrorIs(t, err, helpers.ErrEmptyQuote)
}

func TestGetQuoteStatusFalseIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":false,"message":"Invalid Token","data":null}`)
	}))
	defer srv.Close()

	_, err := newSource(t, srv.URL, "tok").GetQuote(context.Background(), reliance)
	var upstream *helpers.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Contains(t, err.Error(), "Invalid Token")
}

func TestRejectedTokenDisconnectsUntilReplaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"status":true,"data":{"fetched":[{"ltp":1}]}}`)
	}))
	defer srv.Close()

	src := newSource(t, srv.URL, "stale")
	_, err := src.GetQuote(context.Background(), reliance)

	var upstream *helpers.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
	assert.False(t, src.IsConnected())

	src.SetAccessToken("fresh")
	assert.True(t, src.IsConnected())
	q, err := src.GetQuote(context.Background(), reliance)
	require.NoError(t, err)
	assert.Equal(t, 1.0, q.Last)
}

func TestRejectionExpiresAndHealthyUpstreamReconnects(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"status":true,"data":{"fetched":[{"ltp":2512}]}}`)
	}))
	defer srv.Close()

	src := newSource(t, srv.URL, "tok")
	src.RejectCooldown = 50 * time.Millisecond

	_, err := src.GetQuote(context.Background(), reliance)
	require.Error(t, err)
	for i := 0; i < 5; i++ {
		assert.False(t, src.IsConnected())
	}
	assert.Equal(t, int32(1), calls.Load())

	require.Eventually(t, src.IsConnected, 2*time.Second, 5*time.Millisecond)
	q, err := src.GetQuote(context.Background(), reliance)
	require.NoError(t, err)
	assert.Equal(t, 2512.0, q.Last)
	assert.Equal(t, int32(2), calls.Load())

	// The accepted call clears the rejection outright
	src.RejectCooldown = time.Hour
	assert.True(t, src.IsConnected())
}

func TestRepeatedRejectionRestartsCooldown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := newSource(t, srv.URL, "tok")
	src.RejectCooldown = 50 * time.Millisecond

	_, err := src.GetQuote(context.Background(), reliance)
	require.Error(t, err)
	require.Eventually(t, src.IsConnected, 2*time.Second, 5*time.Millisecond)

	_, err = src.GetQuote(context.Background(), reliance)
	require.Error(t, err)
	assert.False(t, src.IsConnected())
}

func TestServerErrorKeepsConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := newSource(t, srv.URL, "tok")
	_, err := src.GetQuote(context.Background(), reliance)
	assert.Error(t, err)
	assert.True(t, src.IsConnected())
}

func TestNoTokenMeansDisconnected(t *testing.T) {
	src := newSource(t, "http://127.0.0.1:1", "")
	assert.False(t, src.IsConnected())
}
