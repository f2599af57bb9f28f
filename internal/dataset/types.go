// Package dataset defines the physics problem records that flow between the propose and evaluate
// pipelines, and loads them from disk.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInput marks input that cannot be used to start a run.
var ErrInput = errors.New("invalid input")

// ProblemID identifies a problem. Inputs may carry it as a JSON string or number;
// it is always written back as a string.
type ProblemID string

// UnmarshalJSON accepts string and numeric identifiers.
func (id *ProblemID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return errors.New("problem id is null")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = ProblemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("problem id must be a string or number: %w", err)
	}
	*id = ProblemID(n.String())
	return nil
}

func (id ProblemID) String() string { return string(id) }

// WorkItem is one problem read from the proposer input.
type WorkItem struct {
	ID                ProblemID `json:"Problem_ID"`
	Problem           string    `json:"problem"`
	ReferenceSolution string    `json:"elaborated_solution_steps"`
}

// ProposalRecord is one generated solution, carrying the full problem and reference so the
// output file is self-contained.
type ProposalRecord struct {
	ID                ProblemID `json:"Problem_ID"`
	Problem           string    `json:"problem"`
	GeneratedSolution string    `json:"ai_solution"`
	ReferenceSolution string    `json:"elaborated_solution_steps"`
}

// NewProposalRecord pairs a work item with the solution generated for it.
func NewProposalRecord(item WorkItem, solution string) ProposalRecord {
	return ProposalRecord{
		ID:                item.ID,
		Problem:           item.Problem,
		GeneratedSolution: solution,
		ReferenceSolution: item.ReferenceSolution,
	}
}

// EvaluationItem is one line of a proposer output file as read by the evaluator.
type EvaluationItem struct {
	ID                ProblemID `json:"Problem_ID"`
	Problem           string    `json:"problem,omitempty"`
	GeneratedSolution string    `json:"ai_solution"`
	ReferenceSolution string    `json:"elaborated_solution_steps"`
}

// IDSet is a set of problem identifiers.
type IDSet map[ProblemID]struct{}

// Has reports whether id is in the set.
func (s IDSet) Has(id ProblemID) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set.
func (s IDSet) Add(id ProblemID) { s[id] = struct{}{} }
