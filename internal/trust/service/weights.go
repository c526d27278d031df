package service

// Signal is a weighted trust signal derived from an event type plus its
// contextual flags (cohort relationship, window activity).
type Signal string

const (
	SignalPostCreated          Signal = "post_created"
	SignalReplyCreated         Signal = "reply_created"
	SignalEndorseSame          Signal = "endorse_same_cohort"
	SignalEndorseCross         Signal = "endorse_cross_cohort"
	SignalEndorseCrossWindow   Signal = "endorse_cross_cohort_window"
	SignalCredentialEarned     Signal = "credential_earned"
	SignalCredentialSpent      Signal = "credential_spent"
	SignalSafetyEnforced       Signal = "safety_enforced"
	SignalAnnotationCreated    Signal = "annotation_created"
	SignalAnnotationFeatured   Signal = "annotation_featured"
	SignalAnnotationFeaturedX  Signal = "annotation_featured_cross"
	SignalAnnotationDeprecated Signal = "annotation_deprecated"
)

// WeightSet is the versioned, table-driven rule set. Bumping the version and
// replaying the event log is the upgrade path; live state records which
// version produced it.
type WeightSet struct {
	Version string
	deltas  map[Signal]float64
}

// Weight returns the signed delta for a signal; unknown signals weigh 0.
func (w *WeightSet) Weight(sig Signal) float64 {
	return w.deltas[sig]
}

// DefaultWeights is rule set v1.
//
// Invariants the insight rules depend on:
//   - same-cohort endorsement > plain cross-cohort endorsement
//     (cross-cohort carries higher scrutiny)
//   - cross-cohort during a global-event window > plain cross-cohort
//     (cross-cohort interaction is the point of the window)
func DefaultWeights() *WeightSet {
	return &WeightSet{
		Version: "v1",
		deltas: map[Signal]float64{
			SignalPostCreated:          1.0,
			SignalReplyCreated:         2.0,
			SignalEndorseSame:          4.0,
			SignalEndorseCross:         2.5,
			SignalEndorseCrossWindow:   6.0,
			SignalCredentialEarned:     0.5,
			SignalCredentialSpent:      -0.5,
			SignalSafetyEnforced:       -10.0,
			SignalAnnotationCreated:    1.5,
			SignalAnnotationFeatured:   3.0,
			SignalAnnotationFeaturedX:  5.0,
			SignalAnnotationDeprecated: -2.0,
		},
	}
}

// scoreBound saturates cumulative scores. The upstream behavior left scores
// unbounded; we cap at a magnitude far above any organic accumulation so the
// ranking semantics are unchanged while the column stays finite.
const scoreBound = 10000.0

func saturate(score float64) float64 {
	if score > scoreBound {
		return scoreBound
	}
	if score < -scoreBound {
		return -scoreBound
	}
	return score
}
