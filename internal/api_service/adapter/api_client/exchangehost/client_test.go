package exchangehost

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/langowen/exchange-rates/internal/api_service/metrics"
	"github.com/langowen/exchange-rates/internal/entities"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, m *metrics.Metrics) *HTTPClient {
	return NewHTTPClient(Config{
		BaseURL:    url,
		Timeout:    50 * time.Millisecond,
		Attempts:   3,
		RetryDelay: time.Millisecond,
	}, m)
}

func TestHTTPClient_FetchRates(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"success":true,"base":"EUR","rates":{"USD":1.09,"gbp":0.85}}`))
	}))
	defer srv.Close()

	rates, err := newTestClient(srv.URL, nil).FetchRates(context.Background(), "EUR", []string{"GBP", "USD"})

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 1.09, "GBP": 0.85}, rates)
	assert.Equal(t, "base=EUR&symbols=GBP%2CUSD", gotQuery)
}

func TestHTTPClient_FetchRatesWithoutQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("symbols"))
		assert.Equal(t, "secret", r.URL.Query().Get("access_key"))
		_, _ = w.Write([]byte(`{"rates":{"USD":1.09}}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{BaseURL: srv.URL, AccessKey: "secret", Attempts: 3}, nil)

	rates, err := client.FetchRates(context.Background(), "EUR", nil)

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 1.09}, rates)
}

func TestHTTPClient_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		reason     entities.UpstreamReason
		statusCode int
	}{
		{name: "server error", status: http.StatusServiceUnavailable, body: "down", reason: entities.UpstreamServerError, statusCode: 503},
		{name: "client error", status: http.StatusNotFound, body: "nope", reason: entities.UpstreamClientError, statusCode: 404},
		{name: "malformed body", status: http.StatusOK, body: "{not json", reason: entities.UpstreamUnreachable},
		{name: "missing rates", status: http.StatusOK, body: `{"base":"EUR"}`, reason: entities.UpstreamUnreachable},
		{name: "rejected", status: http.StatusOK, body: `{"success":false,"error":{"code":101,"info":"invalid key"}}`, reason: entities.UpstreamClientError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, nil).FetchRates(context.Background(), "EUR", []string{"USD"})

			require.Error(t, err)
			assert.ErrorIs(t, err, entities.ErrUpstream)

			var upErr *entities.UpstreamError
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, tt.reason, upErr.Reason)
			assert.Equal(t, tt.statusCode, upErr.StatusCode)
			assert.Equal(t, int32(1), calls.Load(), "non-timeout failures must not be retried")
		})
	}
}

func TestHTTPClient_TimeoutRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	m := metrics.New(prometheus.NewRegistry())

	_, err := newTestClient(srv.URL, m).FetchRates(context.Background(), "EUR", []string{"USD"})

	var upErr *entities.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, entities.UpstreamUnreachable, upErr.Reason)
	assert.True(t, upErr.Timeout)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpstreamRetriesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("latest", "unreachable")))
}

func TestHTTPClient_TimeoutThenSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			<-r.Context().Done()
			return
		}
		_, _ = w.Write([]byte(`{"rates":{"USD":1.1}}`))
	}))
	defer srv.Close()

	rates, err := newTestClient(srv.URL, nil).FetchRates(context.Background(), "EUR", []string{"USD"})

	require.NoError(t, err)
	assert.Equal(t, 1.1, rates["USD"])
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, nil).FetchRates(context.Background(), "EUR", nil)

	var upErr *entities.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, entities.UpstreamUnreachable, upErr.Reason)
	assert.False(t, upErr.Timeout)
}

func TestHTTPClient_CanceledContextIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{BaseURL: srv.URL, Timeout: time.Second, Attempts: 3}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.FetchRates(ctx, "EUR", nil)

	assert.ErrorIs(t, err, entities.ErrUpstream)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClient_FetchSupportedCurrencies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/symbols", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"symbols":{
			"EUR":{"description":"Euro","code":"EUR"},
			"usd":{"description":"United States Dollar"}
		}}`))
	}))
	defer srv.Close()

	symbols, err := newTestClient(srv.URL, nil).FetchSupportedCurrencies(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"EUR": "Euro", "USD": "United States Dollar"}, symbols)
}

func TestHTTPClient_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"rates":{"USD":1.1}}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{BaseURL: srv.URL, Attempts: 1, RPS: 1, Burst: 1}, nil)

	_, err := client.FetchRates(context.Background(), "EUR", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.FetchRates(ctx, "EUR", nil)
	assert.ErrorIs(t, err, entities.ErrUpstream)
	assert.Equal(t, int32(1), calls.Load())
}
