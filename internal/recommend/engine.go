// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

// Package recommend produces practice recommendations for a profile.
//
// The engine filters the cached problem catalog against the profile's
// stored statistics into exactly three fixed buckets: rating progression,
// weak areas, and practice problems. Results are transient, recomputed on
// every request, never persisted.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pshanbhag/codetrack/internal/catalog"
	"github.com/pshanbhag/codetrack/internal/logging"
	"github.com/pshanbhag/codetrack/internal/models"
	"github.com/pshanbhag/codetrack/internal/stats"
)

// Rating range boundaries shared by the buckets.
const (
	floorRating   = 800
	ceilingRating = 2000
	bucketSize    = 5
)

// weakTagThreshold marks a tag as weak when its success rate falls below
// this percentage.
const weakTagThreshold = 50.0

// Engine generates the three recommendation buckets from the catalog
// cache and a profile's derived statistics.
type Engine struct {
	catalog *catalog.Cache
}

// NewEngine creates a recommendation engine backed by the given catalog
// cache.
func NewEngine(c *catalog.Cache) *Engine {
	return &Engine{catalog: c}
}

// Recommend returns exactly three buckets in fixed order. A bucket with
// no eligible catalog entries is returned empty, never as an error; the
// only error path is a cold catalog cache.
func (e *Engine) Recommend(ctx context.Context, profile *models.Profile) ([]models.RecommendationBucket, error) {
	problems, err := e.catalog.Get(ctx)
	if err != nil {
		return nil, err
	}

	solved := stats.SolvedSet(profile.RecentSubmissions)
	attempted := stats.AttemptedSet(profile.RecentSubmissions)
	weak := weakTags(profile.ProblemSolvingData.TagStats)

	current := profile.CurrentRating
	minRating := max(current-100, floorRating)
	targetRating := min(current+200, ceilingRating)

	buckets := []models.RecommendationBucket{
		{
			Title:       "Rating Progression",
			Description: "Problems to help you progress to the next rating level",
			Problems: pick(problems, solved, attempted, func(p models.Problem) bool {
				return *p.Rating >= minRating && *p.Rating <= targetRating
			}),
		},
		{
			Title:       "Weak Areas",
			Description: "Problems to improve your weaker topics",
			Problems: pick(problems, solved, attempted, func(p models.Problem) bool {
				return *p.Rating >= minRating && *p.Rating <= current+100 && hasAnyTag(p.Tags, weak)
			}),
		},
		{
			Title:       "Practice Problems",
			Description: "Problems at your current level to maintain consistency",
			Problems: pick(problems, solved, attempted, func(p models.Problem) bool {
				return *p.Rating >= current-100 && *p.Rating <= current+100
			}),
		},
	}

	logging.Debug().
		Str("profile_id", profile.ID).
		Int("catalog_size", len(problems)).
		Int("weak_tags", len(weak)).
		Ints("bucket_sizes", []int{len(buckets[0].Problems), len(buckets[1].Problems), len(buckets[2].Problems)}).
		Msg("Generated recommendations")

	return buckets, nil
}

// pick filters the catalog through the eligibility predicate, drops
// solved and attempted problems, sorts ascending by rating (stable, so
// equal ratings retain catalog order), and keeps the first bucketSize.
// Unrated entries are skipped before the predicate runs, so predicates
// may dereference Rating freely.
func pick(problems []models.Problem, solved, attempted map[string]struct{}, eligible func(models.Problem) bool) []models.RecommendedProblem {
	var matched []models.Problem
	for _, p := range problems {
		if p.Rating == nil {
			continue
		}
		if !eligible(p) {
			continue
		}
		key := p.Key()
		if _, ok := solved[key]; ok {
			continue
		}
		if _, ok := attempted[key]; ok {
			continue
		}
		matched = append(matched, p)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return *matched[i].Rating < *matched[j].Rating
	})

	if len(matched) > bucketSize {
		matched = matched[:bucketSize]
	}

	out := make([]models.RecommendedProblem, 0, len(matched))
	for _, p := range matched {
		out = append(out, decorate(p))
	}
	return out
}

func decorate(p models.Problem) models.RecommendedProblem {
	return models.RecommendedProblem{
		Problem:    p,
		Difficulty: models.DifficultyFor(*p.Rating),
		ProblemURL: fmt.Sprintf("https://codeforces.com/problemset/problem/%d/%s", p.ContestID, p.Index),
		ContestURL: fmt.Sprintf("https://codeforces.com/contest/%d", p.ContestID),
	}
}

// weakTags extracts tags whose success rate is below the threshold.
func weakTags(tagStats []models.TagStat) map[string]struct{} {
	weak := make(map[string]struct{})
	for _, ts := range tagStats {
		rate, err := strconv.ParseFloat(ts.SuccessRate, 64)
		if err != nil {
			continue
		}
		if rate < weakTagThreshold {
			weak[ts.Tag] = struct{}{}
		}
	}
	return weak
}

func hasAnyTag(tags []string, want map[string]struct{}) bool {
	for _, tag := range tags {
		if _, ok := want[tag]; ok {
			return true
		}
	}
	return false
}

// CatalogStatus reports cache freshness for the health endpoint.
func (e *Engine) CatalogStatus() (int, time.Time) {
	return e.catalog.Len(), e.catalog.LastRefresh()
}
