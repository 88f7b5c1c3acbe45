// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package codeforces

import "errors"

// Sentinel errors for upstream failure classification.
var (
	// ErrInvalidHandle indicates the handle does not resolve on the
	// upstream service. Not retried automatically.
	ErrInvalidHandle = errors.New("codeforces: handle not found")

	// ErrUnavailable indicates a timeout, network failure, or upstream
	// rate limiting. The profile may be retried on the next cycle.
	ErrUnavailable = errors.New("codeforces: service unavailable")
)
