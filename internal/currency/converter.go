package currency

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/logging"
	"trading-journal/internal/models"
	"trading-journal/internal/observability"
	"trading-journal/internal/resilience"
	"trading-journal/pkg/utils"
)

// Rate sources reported in snapshots and metrics.
const (
	SourceCache    = "cache"
	SourceAPI      = "api"
	SourceFallback = "fallback"
)

// Snapshot is a set of rates and where they came from.
type Snapshot struct {
	Base      models.Currency `json:"base"`
	Rates     Rates           `json:"rates"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
}

// Amount is a value in one currency.
type Amount struct {
	Amount   float64         `json:"amount"`
	Currency models.Currency `json:"currency"`
}

// Conversion is a single converted amount.
type Conversion struct {
	Original  Amount  `json:"original"`
	Converted Amount  `json:"converted"`
	Rate      float64 `json:"rate"`
}

// BatchItem is one entry of a batch conversion.
type BatchItem struct {
	Original  Amount `json:"original"`
	Converted Amount `json:"converted"`
}

// Batch is the result of converting several amounts into one currency.
type Batch struct {
	Items []BatchItem `json:"items"`
	Total Amount      `json:"total"`
	Rates Rates       `json:"rates"`
}

// Converter serves cached live rates, falling back to a static table when
// the source is unavailable. Lookups never fail.
type Converter struct {
	source   RateSource
	cache    *RateCache
	cacheTTL time.Duration
	fallback Rates
	retry    utils.RetryConfig
	breaker  *resilience.CircuitBreaker
	metrics  *observability.Metrics
	now      func() time.Time
	logger   zerolog.Logger
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithCacheTTL sets how long fetched rates are reused.
func WithCacheTTL(ttl time.Duration) ConverterOption {
	return func(c *Converter) { c.cacheTTL = ttl }
}

// WithFallbackRates replaces the static fallback table.
func WithFallbackRates(r Rates) ConverterOption {
	return func(c *Converter) {
		if len(r) > 0 {
			c.fallback = r.Clone()
		}
	}
}

// WithClock sets the time source for the cache and breaker, including a
// breaker given with WithCircuitBreaker in any order.
func WithClock(now func() time.Time) ConverterOption {
	return func(c *Converter) { c.now = now }
}

// WithRetry sets the retry policy for live fetches.
func WithRetry(cfg utils.RetryConfig) ConverterOption {
	return func(c *Converter) { c.retry = cfg }
}

// WithCircuitBreaker sets the breaker guarding the source.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) ConverterOption {
	return func(c *Converter) { c.breaker = cb }
}

// WithMetrics records where rates came from.
func WithMetrics(m *observability.Metrics) ConverterOption {
	return func(c *Converter) { c.metrics = m }
}

// NewConverter creates a converter. source may be nil, in which case the
// fallback table is always served.
func NewConverter(source RateSource, logger zerolog.Logger, opts ...ConverterOption) *Converter {
	c := &Converter{
		source:   source,
		fallback: FallbackRates(),
		retry:    utils.DefaultRetryConfig(),
		breaker:  resilience.NewCircuitBreaker("currency-rates", resilience.DefaultCircuitBreakerConfig()),
		cacheTTL: DefaultCacheTTL,
		logger:   logging.WithOperation(logger, "currency"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.now == nil {
		c.now = time.Now
	} else {
		c.breaker.WithClock(c.now)
	}
	c.cache = NewRateCache(c.cacheTTL, c.now)
	return c
}

// Breaker returns the circuit breaker guarding the rate source.
func (c *Converter) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

// Rates returns the current rates.
func (c *Converter) Rates(ctx context.Context) Snapshot {
	if rates, at, ok := c.cache.Get(); ok {
		c.metrics.RecordRateFetch(SourceCache)
		return Snapshot{Base: Base, Rates: rates, Timestamp: at, Source: SourceCache}
	}

	if c.source != nil {
		start := time.Now()
		rates, err := resilience.Execute(ctx, c.breaker, func(ctx context.Context) (Rates, error) {
			return utils.RetryWithResult(ctx, c.retry, c.source.FetchRates)
		})
		logging.LogAPICall(c.logger, "GET", "/v1/latest", time.Since(start), err)
		if err == nil {
			at := c.cache.Put(rates)
			c.metrics.RecordRateFetch(SourceAPI)
			return Snapshot{Base: Base, Rates: rates, Timestamp: at, Source: SourceAPI}
		}
		if errors.Is(err, ErrNoAPIKey) {
			c.logger.Warn().Msg("FREECURRENCY_API_KEY not set, using fallback rates")
		} else {
			c.logger.Error().Err(err).Str("breaker", string(c.breaker.State())).Msg("Failed to fetch exchange rates, using fallback rates")
		}
	}

	c.metrics.RecordRateFetch(SourceFallback)
	return Snapshot{Base: Base, Rates: c.fallback.Clone(), Timestamp: c.now(), Source: SourceFallback}
}

// Convert converts amount between two currencies.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to models.Currency) (*Conversion, error) {
	from, to = Normalize(from), Normalize(to)
	if from == "" || to == "" {
		return nil, apperrors.NewValidationError("currency", string(from)+"->"+string(to), "from and to are required")
	}
	rates := c.Rates(ctx).Rates
	return &Conversion{
		Original:  Amount{Amount: amount, Currency: from},
		Converted: Amount{Amount: rates.Convert(amount, from, to), Currency: to},
		Rate:      rates.CrossRate(from, to),
	}, nil
}

// ConvertMany converts every amount into target and sums them.
func (c *Converter) ConvertMany(ctx context.Context, amounts []Amount, target models.Currency) (*Batch, error) {
	target = Normalize(target)
	if target == "" {
		return nil, apperrors.NewValidationError("targetCurrency", target, "is required")
	}
	if amounts == nil {
		return nil, apperrors.NewValidationError("amounts", nil, "is required")
	}

	rates := c.Rates(ctx).Rates
	batch := &Batch{Items: make([]BatchItem, 0, len(amounts)), Total: Amount{Currency: target}, Rates: rates}
	for _, a := range amounts {
		converted := rates.Convert(a.Amount, a.Currency, target)
		batch.Items = append(batch.Items, BatchItem{
			Original:  a,
			Converted: Amount{Amount: converted, Currency: target},
		})
		batch.Total.Amount += converted
	}
	return batch, nil
}
