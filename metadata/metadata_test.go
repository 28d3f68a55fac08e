package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "status": "ok",
  "data": [
    {"symbol": "btcusdt", "state": "online",  "trade_enabled": true,  "cancel_enabled": true,  "visible": true,  "delist": false, "country_disabled": false},
    {"symbol": "ethusdt", "state": "online",  "trade_enabled": true,  "cancel_enabled": true,  "visible": true,  "delist": false, "country_disabled": false},
    {"symbol": "suspend1","state": "suspend", "trade_enabled": true,  "cancel_enabled": true,  "visible": true,  "delist": false, "country_disabled": false},
    {"symbol": "notrade", "state": "online",  "trade_enabled": false, "cancel_enabled": true,  "visible": true,  "delist": false, "country_disabled": false},
    {"symbol": "delisted","state": "online",  "trade_enabled": true,  "cancel_enabled": true,  "visible": true,  "delist": true,  "country_disabled": false},
    {"symbol": "geoblock","state": "online",  "trade_enabled": true,  "cancel_enabled": true,  "visible": true,  "delist": false, "country_disabled": true}
  ]
}`

func TestFetchFiltered_AppliesAllSixPredicates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, CatalogPath, r.URL.Path)
		w.Write([]byte(sampleCatalog))
	}))
	defer srv.Close()

	got, err := FetchFiltered(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"btcusdt", "ethusdt"}, got)
}

func TestFetchFiltered_ExchangeErrorStatusIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","err-msg":"rate limited"}`))
	}))
	defer srv.Close()

	_, err := FetchFiltered(context.Background(), srv.Client(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestFetchFiltered_ZeroInstrumentsIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","data":[]}`))
	}))
	defer srv.Close()

	_, err := FetchFiltered(context.Background(), srv.Client(), srv.URL)
	require.Error(t, err)
}
