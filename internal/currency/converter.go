// Package currency converts transaction amounts into the base currency
// using an external exchange-rate API. Conversion is best-effort: callers
// that cannot tolerate a failed rate lookup fall back to an identity rate
// instead of failing the write they are part of.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"finflow/internal/logger"
)

const defaultCacheTTL = time.Hour

// Conversion is the result of converting an amount into the base currency.
type Conversion struct {
	ConvertedAmount int64
	ExchangeRate    float64
}

// Identity returns a 1:1 conversion for the given amount.
func Identity(amountCents int64) Conversion {
	return Conversion{ConvertedAmount: amountCents, ExchangeRate: 1.0}
}

type cachedRate struct {
	rate      float64
	fetchedAt time.Time
}

// Converter fetches exchange rates and converts amounts to the base
// currency. Rates are cached in-memory with a TTL so a burst of
// transaction writes does not hammer the rate API.
type Converter struct {
	httpClient   *http.Client
	baseURL      string // overridable for tests
	baseCurrency string
	cacheTTL     time.Duration
	mu           sync.RWMutex
	rates        map[string]cachedRate // e.g. "EUR" -> 1.09 (1 EUR = 1.09 USD)
}

// NewConverter creates a Converter targeting the given base currency. A nil
// httpClient gets a default client with a request timeout.
func NewConverter(httpClient *http.Client, baseURL, baseCurrency string) *Converter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Converter{
		httpClient:   httpClient,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		baseCurrency: strings.ToUpper(baseCurrency),
		cacheTTL:     defaultCacheTTL,
		rates:        make(map[string]cachedRate),
	}
}

// BaseCurrency returns the target currency code (e.g. "USD").
func (c *Converter) BaseCurrency() string {
	return c.baseCurrency
}

// GetRate returns the exchange rate from the given currency to the base
// currency, fetching it from the rate API unless a fresh cached value exists.
func (c *Converter) GetRate(ctx context.Context, fromCurrency string) (float64, error) {
	from := strings.ToUpper(fromCurrency)
	if from == c.baseCurrency {
		return 1.0, nil
	}

	c.mu.RLock()
	cached, ok := c.rates[from]
	c.mu.RUnlock()
	if ok && time.Since(cached.fetchedAt) < c.cacheTTL {
		return cached.rate, nil
	}

	rate, err := c.fetchRate(ctx, from)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.rates[from] = cachedRate{rate: rate, fetchedAt: time.Now()}
	c.mu.Unlock()

	return rate, nil
}

// Convert converts an amount in cents from the given currency to the base currency.
func (c *Converter) Convert(ctx context.Context, amountCents int64, fromCurrency string) (Conversion, error) {
	rate, err := c.GetRate(ctx, fromCurrency)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{
		ConvertedAmount: int64(math.Round(float64(amountCents) * rate)),
		ExchangeRate:    rate,
	}, nil
}

// ConvertWithFallback converts an amount to the base currency, degrading to
// an identity conversion when the rate lookup fails. The failure is logged
// and never propagated; a transaction write must not be aborted by a rate
// API outage.
func (c *Converter) ConvertWithFallback(ctx context.Context, amountCents int64, fromCurrency string) Conversion {
	conv, err := c.Convert(ctx, amountCents, fromCurrency)
	if err != nil {
		logger.Get().Warnw("exchange rate lookup failed, using identity rate",
			"from", fromCurrency,
			"to", c.baseCurrency,
			"error", err.Error(),
		)
		return Identity(amountCents)
	}
	return conv
}

// rateResponse mirrors the exchange-rate API payload.
type rateResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// fetchRate fetches the rate table for fromCurrency and picks out the base currency.
func (c *Converter) fetchRate(ctx context.Context, fromCurrency string) (float64, error) {
	url := c.baseURL + "/" + fromCurrency

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("building rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rate http request for %s: %w", fromCurrency, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate request for %s: unexpected status %d", fromCurrency, resp.StatusCode)
	}

	var payload rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decoding rate response for %s: %w", fromCurrency, err)
	}

	if payload.Result != "" && payload.Result != "success" {
		return 0, fmt.Errorf("rate API returned result %q for %s", payload.Result, fromCurrency)
	}

	rate, ok := payload.Rates[c.baseCurrency]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("no usable %s rate in response for %s", c.baseCurrency, fromCurrency)
	}

	return rate, nil
}
