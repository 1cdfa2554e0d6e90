package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trading-journal/internal/models"
	"trading-journal/pkg/utils"
)

// DefaultAPIBaseURL is the freecurrencyapi.com endpoint.
const DefaultAPIBaseURL = "https://api.freecurrencyapi.com"

// ErrNoAPIKey is returned by FreeCurrencyAPI when no key is configured.
var ErrNoAPIKey = errors.New("freecurrencyapi key not set")

// RateSource fetches live rates quoted against USD.
type RateSource interface {
	FetchRates(ctx context.Context) (Rates, error)
}

// APIConfig configures the freecurrencyapi.com client.
type APIConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Currencies []models.Currency
}

// FreeCurrencyAPI is a RateSource backed by freecurrencyapi.com.
type FreeCurrencyAPI struct {
	baseURL    string
	apiKey     string
	currencies []models.Currency
	httpClient *http.Client
}

// NewFreeCurrencyAPI creates a client. Missing fields take defaults.
func NewFreeCurrencyAPI(cfg APIConfig) *FreeCurrencyAPI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if len(cfg.Currencies) == 0 {
		cfg.Currencies = []models.Currency{models.IDR}
	}
	return &FreeCurrencyAPI{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		currencies: cfg.Currencies,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type latestResponse struct {
	Data map[string]float64 `json:"data"`
}

// FetchRates calls /v1/latest. Requested currencies missing from the response
// keep their fallback rate.
func (c *FreeCurrencyAPI) FetchRates(ctx context.Context) (Rates, error) {
	if c.apiKey == "" {
		return nil, utils.Permanent(ErrNoAPIKey)
	}

	codes := make([]string, len(c.currencies))
	for i, cur := range c.currencies {
		codes[i] = string(Normalize(cur))
	}
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("base_currency", string(Base))
	q.Set("currencies", strings.Join(codes, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/latest?"+q.Encode(), nil)
	if err != nil {
		return nil, utils.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("rate API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, utils.Permanent(err)
		}
		return nil, err
	}

	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rates: %w", err)
	}

	fallback := FallbackRates()
	rates := Rates{Base: 1}
	for _, code := range codes {
		cur := models.Currency(code)
		if v, ok := payload.Data[code]; ok && v > 0 {
			rates[cur] = v
		} else if v, ok := fallback[cur]; ok {
			rates[cur] = v
		}
	}
	return rates, nil
}
