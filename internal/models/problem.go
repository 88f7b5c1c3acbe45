// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package models

import "fmt"

// Problem is a single entry of the global problem catalog.
// Rating is nil for unrated problems.
type Problem struct {
	ContestID int      `json:"contest_id"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    *int     `json:"rating,omitempty"`
	Tags      []string `json:"tags"`
}

// Key returns the canonical problem identity, contestId followed by index.
func (p Problem) Key() string {
	return fmt.Sprintf("%d%s", p.ContestID, p.Index)
}

// Difficulty classification thresholds, bucketed by problem rating.
const (
	DifficultyEasy   = "easy"   // rating < 1200
	DifficultyMedium = "medium" // rating < 1600
	DifficultyHard   = "hard"   // rating < 2000
	DifficultyExpert = "expert" // rating >= 2000
)

// DifficultyFor classifies a rating into a difficulty label.
func DifficultyFor(rating int) string {
	switch {
	case rating < 1200:
		return DifficultyEasy
	case rating < 1600:
		return DifficultyMedium
	case rating < 2000:
		return DifficultyHard
	default:
		return DifficultyExpert
	}
}

// RecommendedProblem is a catalog entry decorated with presentation fields.
// Transient: produced on demand, never persisted.
type RecommendedProblem struct {
	Problem
	Difficulty string `json:"difficulty"`
	ProblemURL string `json:"problem_url"`
	ContestURL string `json:"contest_url"`
}

// RecommendationBucket is one titled, ordered set of recommended problems.
type RecommendationBucket struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Problems    []RecommendedProblem `json:"problems"`
}
