// Package insights builds and serves the anonymized rollups. Rows are keyed
// by coarse time buckets and non-identifying dimensions only; no identity
// ever reaches these tables, and queries suppress rows below the k-anonymity
// floor before returning. The suppression is a hard privacy rule, not a
// display choice.
package insights

import "time"

// DefaultTopic buckets events whose payload names no topic.
const DefaultTopic = "general"

// Aggregation weights for the topic volatility-contribution rollup. These are
// per-event-kind weights over activity counts, unrelated to the per-identity
// volatility index.
const (
	WeightPost        = 1.0
	WeightReply       = 2.0
	WeightEndorsement = 3.0
)

// ActivityRow is one day-bucketed (topic, cohort) activity count.
type ActivityRow struct {
	Day    time.Time `json:"day"`
	Topic  string    `json:"topic"`
	Cohort string    `json:"cohort"`
	Count  int64     `json:"count"`
}

// VolatilityRow is one day-bucketed topic volatility contribution. Count
// tracks the underlying observations for k-gating; Weight is the exposed
// metric.
type VolatilityRow struct {
	Day    time.Time `json:"day"`
	Topic  string    `json:"topic"`
	Weight float64   `json:"weight"`
	Count  int64     `json:"count"`
}

// WindowRow is one hour-bucketed count keyed by whether a global-event window
// was active at ingestion time.
type WindowRow struct {
	Hour   time.Time `json:"hour"`
	Active bool      `json:"window_active"`
	Count  int64     `json:"count"`
}

// HeatmapCell is an aggregated (topic, cohort) consensus count over a query
// window.
type HeatmapCell struct {
	Topic  string `json:"topic"`
	Cohort string `json:"cohort"`
	Count  int64  `json:"count"`
}

// DayBucket truncates to the UTC day.
func DayBucket(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// HourBucket truncates to the UTC hour.
func HourBucket(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}
