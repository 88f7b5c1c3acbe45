// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package codeforces

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pshanbhag/codetrack/internal/config"
	"github.com/pshanbhag/codetrack/internal/logging"
	"github.com/pshanbhag/codetrack/internal/metrics"
	"github.com/pshanbhag/codetrack/internal/models"
)

// CircuitBreakerClient wraps Client with the circuit breaker pattern,
// preventing cascading failures when the Codeforces API is unavailable or
// slow. An invalid handle is a valid upstream answer, not a failure, so it
// never counts toward tripping the breaker.
//
// DETERMINISM NOTE: the breaker uses real time for its interval and timeout
// calculations. Tests should mock the underlying client rather than the
// breaker.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewCircuitBreakerClient creates a Codeforces client with circuit breaker.
// Configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window in closed state
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(cfg *config.CodeforcesConfig) *CircuitBreakerClient {
	client := NewClient(cfg)
	cbName := "codeforces-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false // need statistical significance
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrInvalidHandle)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: cbName}
}

// execute wraps one API call with circuit breaker protection.
func (c *CircuitBreakerClient) execute(endpoint string, fn func() (any, error)) (any, error) {
	result, err := c.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CodeforcesRequests.WithLabelValues(endpoint, "rejected").Inc()
			return nil, fmt.Errorf("%w: circuit breaker: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return result, nil
}

// castResult safely type-casts the circuit breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// FetchUserInfo implements ClientInterface with breaker protection.
func (c *CircuitBreakerClient) FetchUserInfo(ctx context.Context, handle string) (*UserInfo, error) {
	return castResult[*UserInfo](c.execute("user.info", func() (any, error) {
		return c.client.FetchUserInfo(ctx, handle)
	}))
}

// FetchRatingHistory implements ClientInterface with breaker protection.
func (c *CircuitBreakerClient) FetchRatingHistory(ctx context.Context, handle string) ([]RatingChange, error) {
	return castResult[[]RatingChange](c.execute("user.rating", func() (any, error) {
		return c.client.FetchRatingHistory(ctx, handle)
	}))
}

// FetchSubmissions implements ClientInterface with breaker protection.
func (c *CircuitBreakerClient) FetchSubmissions(ctx context.Context, handle string, count int) ([]Submission, error) {
	return castResult[[]Submission](c.execute("user.status", func() (any, error) {
		return c.client.FetchSubmissions(ctx, handle, count)
	}))
}

// FetchProblems implements ClientInterface with breaker protection.
func (c *CircuitBreakerClient) FetchProblems(ctx context.Context) ([]models.Problem, error) {
	return castResult[[]models.Problem](c.execute("problemset.problems", func() (any, error) {
		return c.client.FetchProblems(ctx)
	}))
}

// State returns the current breaker state for health reporting.
func (c *CircuitBreakerClient) State() string {
	return stateToString(c.cb.State())
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
