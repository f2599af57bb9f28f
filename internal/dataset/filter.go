package dataset

import "github.com/mwiater/physbench/internal/logging"

// Identified is implemented by records keyed by a problem id.
type Identified interface {
	ProblemID() ProblemID
}

func (w WorkItem) ProblemID() ProblemID       { return w.ID }
func (e EvaluationItem) ProblemID() ProblemID { return e.ID }

// Dedupe keeps the first record for each id, preserving order. Dropped duplicates are logged.
func Dedupe[T Identified](items []T) []T {
	seen := make(IDSet, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		id := item.ProblemID()
		if seen.Has(id) {
			logging.LogEvent("duplicate Problem_ID %s ignored", id)
			continue
		}
		seen.Add(id)
		out = append(out, item)
	}
	return out
}

// Pending returns the items whose id is not in completed, preserving order.
func Pending[T Identified](items []T, completed IDSet) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if completed.Has(item.ProblemID()) {
			continue
		}
		out = append(out, item)
	}
	return out
}
