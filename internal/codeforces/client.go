// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

// Package codeforces provides a typed client for the Codeforces REST API.
//
// The client covers the four endpoints codetrack consumes:
//
//   - user.info: profile info by handle
//   - user.rating: full rating history by handle
//   - user.status: submission log by handle (bounded count)
//   - problemset.problems: the global problem catalog
//
// Every response arrives in the common envelope {status, result, comment}.
// A non-OK status for user.info, or an empty user.info result, classifies
// as ErrInvalidHandle; timeouts and transport failures classify as
// ErrUnavailable. Missing rating history or submissions normalize to empty
// slices rather than errors.
//
// All calls share one rate limiter: the upstream API is globally rate
// limited, so outbound pressure is bounded regardless of how many profile
// syncs run concurrently.
//
// Thread safety: all methods are safe for concurrent use.
package codeforces

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/pshanbhag/codetrack/internal/config"
	"github.com/pshanbhag/codetrack/internal/metrics"
	"github.com/pshanbhag/codetrack/internal/models"
)

// maxErrorBodySize limits how much of a response body is read for error
// reporting, preventing unbounded allocation on large error responses.
const maxErrorBodySize = 64 * 1024 // 64KB

// ClientInterface defines the Codeforces API operations used by codetrack.
// Implemented by Client for production and by mocks in tests; the circuit
// breaker wrapper also satisfies it.
type ClientInterface interface {
	FetchUserInfo(ctx context.Context, handle string) (*UserInfo, error)
	FetchRatingHistory(ctx context.Context, handle string) ([]RatingChange, error)
	FetchSubmissions(ctx context.Context, handle string, count int) ([]Submission, error)
	FetchProblems(ctx context.Context) ([]models.Problem, error)
}

// Client communicates with the Codeforces HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewClient creates a Codeforces API client from configuration.
// Each call carries its own timeout (cfg.RequestTimeout, default 10s) and
// waits on the shared rate limiter before hitting the network.
func NewClient(cfg *config.CodeforcesConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		timeout: cfg.RequestTimeout,
	}
}

// readBodyForError reads up to maxErrorBodySize of the body for diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// makeRequest performs one API call and decodes the envelope.
//
// The returned envelope may have a non-OK status; callers classify that per
// endpoint. Transport failures and timeouts return ErrUnavailable. HTTP 400
// responses still carry a JSON envelope with a comment and are decoded, not
// treated as transport errors.
func (c *Client) makeRequest(ctx context.Context, endpoint string, params url.Values) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.CodeforcesRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CodeforcesRequests.WithLabelValues(endpoint, "failure").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusBadRequest:
		// Both carry the JSON envelope; 400 signals a FAILED status.
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		metrics.CodeforcesRequests.WithLabelValues(endpoint, "failure").Inc()
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrUnavailable, endpoint, resp.StatusCode)
	default:
		metrics.CodeforcesRequests.WithLabelValues(endpoint, "failure").Inc()
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("%w: %s returned HTTP %d: %s", ErrUnavailable, endpoint, resp.StatusCode, string(body))
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.CodeforcesRequests.WithLabelValues(endpoint, "failure").Inc()
		return nil, fmt.Errorf("%w: failed to decode %s response: %v", ErrUnavailable, endpoint, err)
	}

	metrics.CodeforcesRequests.WithLabelValues(endpoint, "success").Inc()
	return &envelope, nil
}

// FetchUserInfo retrieves profile info for a handle via user.info.
// A non-OK status or an empty result yields ErrInvalidHandle.
func (c *Client) FetchUserInfo(ctx context.Context, handle string) (*UserInfo, error) {
	params := url.Values{}
	params.Set("handles", handle)

	envelope, err := c.makeRequest(ctx, "user.info", params)
	if err != nil {
		return nil, err
	}

	if envelope.Status != "OK" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, envelope.Comment)
	}

	var users []UserInfo
	if err := json.Unmarshal(envelope.Result, &users); err != nil {
		return nil, fmt.Errorf("%w: failed to parse user.info result: %v", ErrUnavailable, err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: empty user.info result for %q", ErrInvalidHandle, handle)
	}

	return &users[0], nil
}

// FetchRatingHistory retrieves the full rating history via user.rating.
// A non-OK status normalizes to an empty history: unrated users have none,
// and the absence of a history is never an error.
func (c *Client) FetchRatingHistory(ctx context.Context, handle string) ([]RatingChange, error) {
	params := url.Values{}
	params.Set("handle", handle)

	envelope, err := c.makeRequest(ctx, "user.rating", params)
	if err != nil {
		return nil, err
	}

	if envelope.Status != "OK" {
		return []RatingChange{}, nil
	}

	var history []RatingChange
	if err := json.Unmarshal(envelope.Result, &history); err != nil {
		return nil, fmt.Errorf("%w: failed to parse user.rating result: %v", ErrUnavailable, err)
	}
	if history == nil {
		history = []RatingChange{}
	}

	return history, nil
}

// FetchSubmissions retrieves up to count submissions via user.status,
// newest first. A non-OK status normalizes to an empty log.
func (c *Client) FetchSubmissions(ctx context.Context, handle string, count int) ([]Submission, error) {
	params := url.Values{}
	params.Set("handle", handle)
	params.Set("from", "1")
	params.Set("count", strconv.Itoa(count))

	envelope, err := c.makeRequest(ctx, "user.status", params)
	if err != nil {
		return nil, err
	}

	if envelope.Status != "OK" {
		return []Submission{}, nil
	}

	var subs []Submission
	if err := json.Unmarshal(envelope.Result, &subs); err != nil {
		return nil, fmt.Errorf("%w: failed to parse user.status result: %v", ErrUnavailable, err)
	}
	if subs == nil {
		subs = []Submission{}
	}

	return subs, nil
}

// FetchProblems retrieves the global problem catalog via problemset.problems.
// The catalog is large (multi-thousand entries); callers cache it.
func (c *Client) FetchProblems(ctx context.Context) ([]models.Problem, error) {
	envelope, err := c.makeRequest(ctx, "problemset.problems", nil)
	if err != nil {
		return nil, err
	}

	if envelope.Status != "OK" {
		return nil, fmt.Errorf("%w: problemset.problems: %s", ErrUnavailable, envelope.Comment)
	}

	var result problemsetResult
	if err := json.Unmarshal(envelope.Result, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse problemset.problems result: %v", ErrUnavailable, err)
	}

	problems := make([]models.Problem, 0, len(result.Problems))
	for _, p := range result.Problems {
		problems = append(problems, models.Problem{
			ContestID: p.ContestID,
			Index:     p.Index,
			Name:      p.Name,
			Rating:    p.Rating,
			Tags:      p.Tags,
		})
	}

	return problems, nil
}

// IsInvalidHandle reports whether err classifies as an invalid handle.
func IsInvalidHandle(err error) bool {
	return errors.Is(err, ErrInvalidHandle)
}

// IsUnavailable reports whether err classifies as upstream unavailability.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
