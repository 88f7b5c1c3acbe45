// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package codeforces

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// apiResponse is the common Codeforces response envelope.
// Status is "OK" on success; anything else carries a Comment.
type apiResponse struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// UserInfo is the user.info result entry for one handle.
type UserInfo struct {
	Handle    string `json:"handle"`
	Rating    int    `json:"rating"`
	MaxRating int    `json:"maxRating"`
	Rank      string `json:"rank"`
	MaxRank   string `json:"maxRank"`
}

// RatingChange is one user.rating result entry.
type RatingChange struct {
	ContestID               int    `json:"contestId"`
	ContestName             string `json:"contestName"`
	Handle                  string `json:"handle"`
	Rank                    int    `json:"rank"`
	RatingUpdateTimeSeconds int64  `json:"ratingUpdateTimeSeconds"`
	OldRating               int    `json:"oldRating"`
	NewRating               int    `json:"newRating"`
}

// At returns the rating update time as time.Time.
func (r RatingChange) At() time.Time {
	return time.Unix(r.RatingUpdateTimeSeconds, 0).UTC()
}

// Problem is the problem reference embedded in submissions and the
// problemset listing. Rating is nil for unrated problems.
type Problem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    *int     `json:"rating,omitempty"`
	Tags      []string `json:"tags"`
}

// Key returns the canonical problem identity, contest id concatenated
// with the problem index ("1872A"). Problems reappearing across
// divisions have distinct keys.
func (p Problem) Key() string {
	return fmt.Sprintf("%d%s", p.ContestID, p.Index)
}

// Submission is one user.status result entry. Codeforces returns
// submissions newest first.
type Submission struct {
	ID                  int64   `json:"id"`
	ContestID           int     `json:"contestId"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Problem             Problem `json:"problem"`
	Verdict             string  `json:"verdict"`
	ProgrammingLanguage string  `json:"programmingLanguage"`
}

// At returns the submission creation time as time.Time.
func (s Submission) At() time.Time {
	return time.Unix(s.CreationTimeSeconds, 0).UTC()
}

// VerdictOK is the verdict marking an accepted submission.
const VerdictOK = "OK"

// Accepted reports whether the submission was accepted.
func (s Submission) Accepted() bool {
	return s.Verdict == VerdictOK
}

// problemsetResult is the problemset.problems result shape.
type problemsetResult struct {
	Problems []Problem `json:"problems"`
}
