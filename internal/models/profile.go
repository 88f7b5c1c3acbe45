// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

// Package models defines the core data structures shared across codetrack.
package models

import (
	"fmt"
	"time"
)

// Profile is a tracked competitive-programming profile.
//
// The sync orchestrator owns the record during a sync: ContestHistory and
// RecentSubmissions are fully replaced on every successful sync rather than
// merged, and ProblemSolvingData is recomputed from scratch. All other
// components read profiles but never write them.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Handle string `json:"handle"`

	CurrentRating  int `json:"current_rating"`
	MaxRating      int `json:"max_rating"`
	ProblemsSolved int `json:"problems_solved"`

	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`

	Notifications NotificationState `json:"notifications"`

	ContestHistory     []ContestResult    `json:"contest_history,omitempty"`
	RecentSubmissions  []Submission       `json:"recent_submissions,omitempty"`
	ProblemSolvingData ProblemSolvingData `json:"problem_solving_data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationState tracks inactivity reminder delivery for a profile.
type NotificationState struct {
	Enabled    bool       `json:"enabled"`
	SentCount  int        `json:"sent_count"`
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
}

// ContestResult is a single entry in a profile's rating history.
type ContestResult struct {
	ContestID   int       `json:"contest_id"`
	ContestName string    `json:"contest_name"`
	Rank        int       `json:"rank"`
	OldRating   int       `json:"old_rating"`
	NewRating   int       `json:"new_rating"`
	At          time.Time `json:"at"`
}

// Submission is one retained submission from the bounded recent window.
// Only the most recent N submissions (source order) are kept verbatim;
// everything else is consumed into ProblemSolvingData during aggregation.
type Submission struct {
	ProblemID     string     `json:"problem_id"`
	ProblemName   string     `json:"problem_name"`
	ProblemRating *int       `json:"problem_rating,omitempty"`
	Verdict       string     `json:"verdict"`
	At            time.Time  `json:"at"`
	Problem       ProblemRef `json:"problem"`
}

// ProblemRef identifies a problem within a submission record.
type ProblemRef struct {
	ContestID int      `json:"contest_id"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    *int     `json:"rating,omitempty"`
	Tags      []string `json:"tags"`
}

// Key returns the canonical problem identity, contestId followed by index.
// A problem solved through several accepted submissions counts once under
// this key.
func (p ProblemRef) Key() string {
	return fmt.Sprintf("%d%s", p.ContestID, p.Index)
}

// ProblemSolvingData holds derived statistics aggregated from the full
// submission log of a profile.
type ProblemSolvingData struct {
	TotalSolved      int            `json:"total_solved"`
	ProblemsByRating []RatingBucket `json:"problems_by_rating"`
	TagStats         []TagStat      `json:"tag_stats"`
	AveragePerDay    string         `json:"average_per_day"`
}

// RatingBucket is one histogram bucket: distinct solved problems at a rating.
type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// TagStat aggregates per-tag outcomes. Attempted counts every submission
// touching the tag regardless of verdict, so Attempted >= Solved always
// holds. SuccessRate is a fixed-point percentage with one decimal ("66.7").
type TagStat struct {
	Tag         string `json:"tag"`
	Solved      int    `json:"solved"`
	Attempted   int    `json:"attempted"`
	SuccessRate string `json:"success_rate"`
}

// ProfileSummary is the listing projection of a profile: summary fields
// only, plus an optional warning when the latest sync for the profile
// failed and the data shown may be stale.
type ProfileSummary struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Handle         string     `json:"handle"`
	CurrentRating  int        `json:"current_rating"`
	MaxRating      int        `json:"max_rating"`
	ProblemsSolved int        `json:"problems_solved"`
	AveragePerDay  string     `json:"average_per_day"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	SyncWarning    string     `json:"sync_warning,omitempty"`
}

// Summary projects the profile into its listing form.
func (p *Profile) Summary() ProfileSummary {
	avg := p.ProblemSolvingData.AveragePerDay
	if avg == "" {
		avg = "0.00"
	}
	return ProfileSummary{
		ID:             p.ID,
		Name:           p.Name,
		Handle:         p.Handle,
		CurrentRating:  p.CurrentRating,
		MaxRating:      p.MaxRating,
		ProblemsSolved: p.ProblemsSolved,
		AveragePerDay:  avg,
		LastSyncedAt:   p.LastSyncedAt,
	}
}
