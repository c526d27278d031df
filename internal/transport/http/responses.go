package httptransport

import (
	"time"

	"vouch/internal/trust/models"
)

// nodeResponse is the wire shape of one trust node.
type nodeResponse struct {
	IdentityID       string    `json:"identity_id"`
	Cohort           string    `json:"cohort"`
	Score            float64   `json:"score"`
	CrossCohortDelta float64   `json:"cross_cohort_delta"`
	Volatility       float64   `json:"volatility"`
	QualityRatio     float64   `json:"quality_ratio"`
	SameCount        int       `json:"same_count"`
	CrossCount       int       `json:"cross_count"`
	CrossEventCount  int       `json:"cross_event_count"`
	AlgoVersion      string    `json:"algo_version"`
	ComputedAt       time.Time `json:"computed_at"`
}

type historyResponse struct {
	Cohort     string    `json:"cohort"`
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

type identityViewResponse struct {
	IdentityID string            `json:"identity_id"`
	Nodes      []nodeResponse    `json:"nodes"`
	History    []historyResponse `json:"history"`
}

type volatileResponse struct {
	Threshold float64        `json:"threshold"`
	Nodes     []nodeResponse `json:"nodes"`
}

type credibilityRequest struct {
	IdentityIDs []string `json:"identity_ids"`
}

type credibilityResponse struct {
	Scores map[string]float64 `json:"scores"`
}

type recomputeRequest struct {
	Cohort string `json:"cohort,omitempty"`
	DryRun bool   `json:"dry_run,omitempty"`
}

type recomputeResponse struct {
	RunID          string `json:"run_id"`
	Scope          string `json:"scope"`
	DryRun         bool   `json:"dry_run"`
	EventsReplayed int    `json:"events_replayed"`
	AlgoVersion    string `json:"algo_version"`
	EmittedEventID string `json:"emitted_event_id"`
}

func toNodeResponse(n *models.Node) nodeResponse {
	return nodeResponse{
		IdentityID:       n.IdentityID.String(),
		Cohort:           string(n.Cohort),
		Score:            n.Score,
		CrossCohortDelta: n.CrossCohortDelta,
		Volatility:       n.Volatility,
		QualityRatio:     n.QualityRatio,
		SameCount:        n.SameCount,
		CrossCount:       n.CrossCount,
		CrossEventCount:  n.CrossEventCount,
		AlgoVersion:      n.AlgoVersion,
		ComputedAt:       n.ComputedAt,
	}
}

func toNodeResponses(nodes []*models.Node) []nodeResponse {
	out := make([]nodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, toNodeResponse(n))
	}
	return out
}

func toHistoryResponses(entries []models.HistoryEntry) []historyResponse {
	out := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyResponse{
			Cohort:     string(e.Cohort),
			Metric:     e.Metric,
			Value:      e.Value,
			RecordedAt: e.RecordedAt,
		})
	}
	return out
}
