// Package models holds the derived trust state: one Node per
// (identity, cohort) pair plus the append-only history feed the volatility
// tracker reads.
package models

import (
	"time"

	"vouch/pkg/domain"
)

// MetricCredibility is the history metric every score mutation appends to.
const MetricCredibility = "credibility"

// Node is the derived credibility state for one (identity, cohort) pair.
// Created lazily on the first event referencing the pair, mutated in place,
// never deleted.
type Node struct {
	IdentityID       domain.IdentityID
	Cohort           domain.Cohort
	Score            float64
	CrossCohortDelta float64
	Volatility       float64
	QualityRatio     float64
	SameCount        int
	CrossCount       int
	CrossEventCount  int
	AlgoVersion      string
	ComputedAt       time.Time
}

// RecomputeQualityRatio restores the invariant
// ratio = same / (same + cross + crossEvent), 0 when the denominator is 0.
func (n *Node) RecomputeQualityRatio() {
	total := n.SameCount + n.CrossCount + n.CrossEventCount
	if total == 0 {
		n.QualityRatio = 0
		return
	}
	n.QualityRatio = float64(n.SameCount) / float64(total)
}

// HistoryEntry is one observation of a metric for a (identity, cohort) pair.
// Entries are append-only; volatility is the absolute difference between the
// two most recent entries for the same metric.
type HistoryEntry struct {
	IdentityID domain.IdentityID
	Cohort     domain.Cohort
	Metric     string
	Value      float64
	RecordedAt time.Time
}
