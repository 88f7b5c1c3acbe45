// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

// Package stats aggregates a raw submission log into derived statistics.
//
// The aggregation is a single pass over the log in source order (newest
// first, per the upstream API convention). It is pure: no I/O, no clock,
// no shared state. The sync orchestrator calls it once per profile per
// cycle and stores the result on the profile record.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/pshanbhag/codetrack/internal/codeforces"
	"github.com/pshanbhag/codetrack/internal/models"
)

const secondsPerDay = 86400

type tagCounter struct {
	solved    int
	attempted int
}

// Aggregate consumes the full submission log and produces derived
// statistics, the bounded recent window (first `window` submissions in
// source order, verdict-independent), and the latest activity timestamp.
//
// Counting rules:
//   - A problem counts toward TotalSolved and the rating histogram once,
//     on its first accepted submission; repeat acceptances are idempotent.
//   - Tag attempted counts increment on every submission touching the
//     tag; tag solved counts increment on every accepted submission, so
//     attempted >= solved holds per tag.
//   - Submissions without a problem rating are absorbed: they still feed
//     tag stats and the solved set, but skip the histogram.
//
// Zero submissions yield an all-zero result and a nil activity time, not
// an error.
func Aggregate(subs []codeforces.Submission, window int) (models.ProblemSolvingData, []models.Submission, *time.Time) {
	solved := make(map[string]bool)
	tags := make(map[string]*tagCounter)
	histogram := make(map[int]int)

	var minTs, maxTs int64
	recent := make([]models.Submission, 0, window)

	for _, sub := range subs {
		if ts := sub.CreationTimeSeconds; ts > 0 {
			if minTs == 0 || ts < minTs {
				minTs = ts
			}
			if ts > maxTs {
				maxTs = ts
			}
		}

		if len(recent) < window {
			recent = append(recent, toStoredSubmission(sub))
		}

		accepted := sub.Accepted()
		for _, tag := range sub.Problem.Tags {
			cnt := tags[tag]
			if cnt == nil {
				cnt = &tagCounter{}
				tags[tag] = cnt
			}
			cnt.attempted++
			if accepted {
				cnt.solved++
			}
		}

		if accepted {
			key := sub.Problem.Key()
			if !solved[key] {
				solved[key] = true
				if sub.Problem.Rating != nil {
					histogram[*sub.Problem.Rating]++
				}
			}
		}
	}

	data := models.ProblemSolvingData{
		TotalSolved:      len(solved),
		ProblemsByRating: buildHistogram(histogram),
		TagStats:         buildTagStats(tags),
		AveragePerDay:    averagePerDay(len(solved), minTs, maxTs),
	}

	var lastActivity *time.Time
	if maxTs > 0 {
		t := time.Unix(maxTs, 0).UTC()
		lastActivity = &t
	}

	return data, recent, lastActivity
}

func toStoredSubmission(sub codeforces.Submission) models.Submission {
	return models.Submission{
		ProblemID:     sub.Problem.Key(),
		ProblemName:   sub.Problem.Name,
		ProblemRating: sub.Problem.Rating,
		Verdict:       sub.Verdict,
		At:            sub.At(),
		Problem: models.ProblemRef{
			ContestID: sub.Problem.ContestID,
			Index:     sub.Problem.Index,
			Name:      sub.Problem.Name,
			Rating:    sub.Problem.Rating,
			Tags:      sub.Problem.Tags,
		},
	}
}

func buildHistogram(histogram map[int]int) []models.RatingBucket {
	buckets := make([]models.RatingBucket, 0, len(histogram))
	for rating, count := range histogram {
		buckets = append(buckets, models.RatingBucket{Rating: rating, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Rating < buckets[j].Rating
	})
	return buckets
}

func buildTagStats(tags map[string]*tagCounter) []models.TagStat {
	stats := make([]models.TagStat, 0, len(tags))
	for tag, cnt := range tags {
		if cnt.attempted == 0 {
			continue
		}
		stats = append(stats, models.TagStat{
			Tag:         tag,
			Solved:      cnt.solved,
			Attempted:   cnt.attempted,
			SuccessRate: successRate(cnt.solved, cnt.attempted),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Attempted != stats[j].Attempted {
			return stats[i].Attempted > stats[j].Attempted
		}
		return stats[i].Tag < stats[j].Tag
	})
	return stats
}

// successRate formats solved/attempted as a percentage with one decimal.
func successRate(solved, attempted int) string {
	if attempted == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(solved)/float64(attempted)*100)
}

// averagePerDay is the solved-set size over the span of the submission
// log in days, with a floor of one day so a single-day burst still
// yields a finite pace.
func averagePerDay(totalSolved int, minTs, maxTs int64) string {
	days := int64(1)
	if maxTs > minTs {
		span := maxTs - minTs
		days = span / secondsPerDay
		if span%secondsPerDay != 0 {
			days++
		}
	}
	return fmt.Sprintf("%.2f", float64(totalSolved)/float64(days))
}

// SolvedSet extracts the problem keys with an accepted verdict from
// stored submissions.
func SolvedSet(subs []models.Submission) map[string]struct{} {
	set := make(map[string]struct{})
	for _, sub := range subs {
		if sub.Verdict == codeforces.VerdictOK {
			set[sub.Problem.Key()] = struct{}{}
		}
	}
	return set
}

// AttemptedSet extracts every problem key from stored submissions,
// verdict-independent.
func AttemptedSet(subs []models.Submission) map[string]struct{} {
	set := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		set[sub.Problem.Key()] = struct{}{}
	}
	return set
}
