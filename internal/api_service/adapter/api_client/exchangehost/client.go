package exchangehost

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/langowen/exchange-rates/internal/api_service/metrics"
	"github.com/langowen/exchange-rates/internal/entities"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	endpointLatest  = "latest"
	endpointSymbols = "symbols"

	errorBodyLimit = 512
)

type Config struct {
	BaseURL   string
	AccessKey string
	// Timeout bounds a single attempt.
	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration
	// RPS limits outbound calls; zero disables the limiter.
	RPS   float64
	Burst int
}

type HTTPClient struct {
	client  *http.Client
	cfg     Config
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

func NewHTTPClient(cfg Config, m *metrics.Metrics) *HTTPClient {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &HTTPClient{
		client:  &http.Client{},
		cfg:     cfg,
		limiter: limiter,
		metrics: m,
	}
}

type apiError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

type latestResponse struct {
	Success *bool              `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   *apiError          `json:"error"`
}

type symbol struct {
	Description string `json:"description"`
	Code        string `json:"code"`
}

type symbolsResponse struct {
	Success *bool             `json:"success"`
	Symbols map[string]symbol `json:"symbols"`
	Error   *apiError         `json:"error"`
}

// FetchRates asks for the latest rates of base. A nil or empty quotes slice
// asks for every rate the provider knows.
func (c *HTTPClient) FetchRates(ctx context.Context, base string, quotes []string) (map[string]float64, error) {
	const op = "exchangehost.FetchRates"

	query := url.Values{}
	query.Set("base", base)
	if len(quotes) > 0 {
		query.Set("symbols", strings.Join(quotes, ","))
	}

	var resp latestResponse
	if err := c.get(ctx, endpointLatest, query, &resp); err != nil {
		return nil, errors.Wrap(err, op)
	}

	if err := rejected(resp.Success, resp.Error); err != nil {
		return nil, errors.Wrap(err, op)
	}

	if resp.Rates == nil {
		return nil, errors.Wrap(entities.Malformed(errors.New("response has no rates")), op)
	}

	rates := make(map[string]float64, len(resp.Rates))
	for code, value := range resp.Rates {
		rates[entities.NormalizeCode(code)] = value
	}

	return rates, nil
}

// FetchSupportedCurrencies returns code -> description for every symbol the
// provider supports.
func (c *HTTPClient) FetchSupportedCurrencies(ctx context.Context) (map[string]string, error) {
	const op = "exchangehost.FetchSupportedCurrencies"

	var resp symbolsResponse
	if err := c.get(ctx, endpointSymbols, url.Values{}, &resp); err != nil {
		return nil, errors.Wrap(err, op)
	}

	if err := rejected(resp.Success, resp.Error); err != nil {
		return nil, errors.Wrap(err, op)
	}

	if len(resp.Symbols) == 0 {
		return nil, errors.Wrap(entities.Malformed(errors.New("response has no symbols")), op)
	}

	symbols := make(map[string]string, len(resp.Symbols))
	for key, s := range resp.Symbols {
		code := s.Code
		if code == "" {
			code = key
		}
		symbols[entities.NormalizeCode(code)] = s.Description
	}

	return symbols, nil
}

func (c *HTTPClient) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	const op = "exchangehost.get"

	if c.cfg.AccessKey != "" {
		query.Set("access_key", c.cfg.AccessKey)
	}

	u, err := url.JoinPath(c.cfg.BaseURL, endpoint)
	if err != nil {
		return errors.Wrap(err, op)
	}
	u += "?" + query.Encode()

	start := time.Now()
	attempt := 0

	operation := func() error {
		attempt++
		if attempt > 1 {
			c.metrics.ObserveRetry()
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(entities.ClassifyTransport(err))
		}

		err := c.do(ctx, u, out)
		if err == nil {
			return nil
		}

		upErr := entities.ClassifyTransport(err)
		if upErr.Timeout && ctx.Err() == nil {
			return upErr
		}

		return backoff.Permanent(upErr)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.RetryDelay), uint64(c.cfg.Attempts-1)),
		ctx,
	)

	err = backoff.RetryNotify(operation, policy, func(err error, next time.Duration) {
		slog.Warn("rate provider timed out, retrying", "endpoint", endpoint, "attempt", attempt, "next", next, "error", err)
	})

	outcome := "ok"
	if err != nil {
		upErr := entities.ClassifyTransport(err)
		outcome = upErr.Reason.String()
		err = upErr
	}
	c.metrics.ObserveUpstream(endpoint, outcome, time.Since(start))

	if err != nil {
		slog.Error("rate provider call failed", "endpoint", endpoint, "attempts", attempt, "error", err)
		return err
	}

	slog.Debug("rate provider call", "endpoint", endpoint, "attempts", attempt, "took", time.Since(start))

	return nil
}

func (c *HTTPClient) do(ctx context.Context, u string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return entities.Malformed(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return entities.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return entities.ClassifyStatus(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return entities.ClassifyTransport(err)
	}

	return nil
}

// rejected handles providers that answer 200 with success=false.
func rejected(success *bool, apiErr *apiError) error {
	if success == nil || *success {
		return nil
	}

	msg := "request rejected by provider"
	if apiErr != nil && apiErr.Info != "" {
		msg = apiErr.Info
	}

	return &entities.UpstreamError{
		Reason: entities.UpstreamClientError,
		Err:    errors.New(msg),
	}
}
