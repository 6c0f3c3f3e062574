// Package translate looks up Chinese translations for English words.
//
// Providers talk to a remote service and may fail; Client wraps a provider
// in a circuit breaker and turns every failure into placeholder text, so
// callers always get something they can store.
package translate

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/japaniel/wordlens/pkg/logger"
	"github.com/japaniel/wordlens/pkg/metrics"
)

const (
	// MissingText is stored when the service answered without a translation.
	MissingText = "翻译异常"
	// NetworkErrorText is stored when the service could not be reached or
	// its answer could not be decoded.
	NetworkErrorText = "网络错误"
)

// Result is a translation and best-guess part of speech.
type Result struct {
	Translation  string `json:"translation"`
	PartOfSpeech string `json:"pos"`
}

// Translator is what the rest of the program depends on. Lookup never fails.
type Translator interface {
	Lookup(ctx context.Context, word string) Result
}

// Provider performs a single remote lookup.
type Provider interface {
	Translate(ctx context.Context, word string) (Result, error)
}

// Noop answers every lookup with an empty result.
type Noop struct{}

func (Noop) Translate(ctx context.Context, word string) (Result, error) {
	return Result{}, nil
}

// BreakerOptions tunes the circuit breaker.
type BreakerOptions struct {
	// MaxFailures consecutive failures open the breaker. Zero disables it.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Client is the Translator used in production.
type Client struct {
	name     string
	provider Provider
	breaker  *gobreaker.CircuitBreaker
}

// NewClient wraps p with a circuit breaker.
func NewClient(name string, p Provider, opts BreakerOptions) *Client {
	c := &Client{name: name, provider: p}
	if opts.MaxFailures > 0 {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     opts.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= opts.MaxFailures
			},
			IsSuccessful: func(err error) bool {
				// a caller giving up says nothing about the service
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.L().Warn("translation breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}
	return c
}

// Lookup translates word, degrading to placeholder text on any failure.
func (c *Client) Lookup(ctx context.Context, word string) Result {
	res, err := c.translate(ctx, word)
	if err != nil {
		logger.L().Warn("translation failed", zap.String("word", word), zap.Error(err))
		metrics.RecordTranslation(c.name, metrics.TranslationError)
		return Result{Translation: NetworkErrorText}
	}
	if res.Translation == "" {
		metrics.RecordTranslation(c.name, metrics.TranslationMissing)
		res.Translation = MissingText
		return res
	}
	metrics.RecordTranslation(c.name, metrics.TranslationOK)
	return res
}

// State reports the breaker state, or closed when no breaker is configured.
func (c *Client) State() gobreaker.State {
	if c.breaker == nil {
		return gobreaker.StateClosed
	}
	return c.breaker.State()
}

func (c *Client) translate(ctx context.Context, word string) (Result, error) {
	if c.breaker == nil {
		return c.provider.Translate(ctx, word)
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.provider.Translate(ctx, word)
	})
	if err != nil {
		return Result{}, err
	}
	return out.(Result), nil
}
