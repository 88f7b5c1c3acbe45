// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

// Package notify delivers inactivity reminders.
//
// The sync orchestrator invokes a Notifier at most once per profile per
// sync cycle. Delivery failures are reported to the caller but never fail
// the sync itself; the orchestrator only advances the profile's reminder
// counters on success.
package notify

import (
	"context"

	"github.com/pshanbhag/codetrack/internal/models"
)

// Notifier sends an inactivity reminder to a profile's contact address.
type Notifier interface {
	// SendInactivityReminder delivers one reminder. inactiveDays is the
	// number of whole days since the profile's last submission.
	SendInactivityReminder(ctx context.Context, profile *models.Profile, inactiveDays int) error
}

// Noop is a Notifier that silently discards reminders. Used when email
// delivery is disabled.
type Noop struct{}

// SendInactivityReminder implements Notifier.
func (Noop) SendInactivityReminder(ctx context.Context, profile *models.Profile, inactiveDays int) error {
	return nil
}
