package lifecycle

import (
	"fmt"

	"github.com/sells-group/ideaflow/internal/model"
)

// order is the forward path of an idea.
var order = []model.IdeaStatus{
	model.IdeaStatusSubmitted,
	model.IdeaStatusAnalyzing,
	model.IdeaStatusAnalyzed,
	model.IdeaStatusMatched,
	model.IdeaStatusFunded,
	model.IdeaStatusInProgress,
	model.IdeaStatusCompleted,
}

// InvalidTransitionError is returned for any move other than the immediate
// successor or a rejection of a non-terminal idea.
type InvalidTransitionError struct {
	From model.IdeaStatus
	To   model.IdeaStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("lifecycle: invalid transition %s -> %s", e.From, e.To)
}

// Next returns the successor of s, or false for terminal and unknown statuses.
func Next(s model.IdeaStatus) (model.IdeaStatus, bool) {
	for i, st := range order {
		if st == s && i+1 < len(order) {
			return order[i+1], true
		}
	}
	return "", false
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to model.IdeaStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == model.IdeaStatusRejected {
		return true
	}
	next, ok := Next(from)
	return ok && next == to
}

// CheckTransition is CanTransition as an error.
func CheckTransition(from, to model.IdeaStatus) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
