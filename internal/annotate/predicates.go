package annotate

import "fmt"

// Predicate vocabulary. Each annotation type draws from a small closed set;
// predicates are selected by table-driven mapping in the normalizers, never
// by free-text heuristics.
const (
	PredActivityAt       = "activity at"
	PredInactiveAt       = "inactive at"
	PredInteractionOther = "interaction:generic"

	PredHasIndication = "indicated for"
	PredHasTrial      = "trial for" // prefixed with "phase-N " by TrialPredicate

	PredCoOccursWith = "co-occurs with"

	PredInteractsWith = "interacts with"

	PredAcuteEffect = "has acute effect"

	PredHasProperty = "has property"

	PredHasClass = "has chemical class"

	PredFoundInTissue = "found in tissue"
)

// ATCPredicate returns the predicate for an ATC code at the given level,
// e.g. "has ATC L4 code".
func ATCPredicate(level int) string {
	return fmt.Sprintf("has ATC L%d code", level)
}

// TrialPredicate returns the predicate for a clinical trial at the given
// phase, e.g. "phase-3 trial for". Phase 0 means the phase is unknown.
func TrialPredicate(phase int) string {
	if phase <= 0 {
		return PredHasTrial
	}
	return fmt.Sprintf("phase-%d %s", phase, PredHasTrial)
}

// InteractionPredicate returns the predicate for a named drug/gene
// interaction kind, e.g. "inhibitor for". An empty kind falls back to the
// generic interaction predicate.
func InteractionPredicate(kind string) string {
	if kind == "" {
		return PredInteractionOther
	}
	return kind + " for"
}
