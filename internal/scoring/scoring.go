// Package scoring turns a judge's per-metric ratings into the PPS composite score.
package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mwiater/physbench/internal/logging"
)

// ErrScoreComputation marks ratings that cannot be converted to numbers.
var ErrScoreComputation = errors.New("score computation failed")

// Metric names as they appear in judge replies.
const (
	MathematicalAccuracy = "mathematical_accuracy"
	LogicalConsistency   = "logical_consistency"
	FormulasPrinciples   = "formulas_principles"
	Completeness         = "completeness"
	AssumptionsMade      = "assumptions_made"
	ClarityAndCoherence  = "clarity_and_coherence"
	OverallCorrectness   = "overall_correctness"
)

const (
	minRating = 1.0
	maxRating = 5.0
)

// Weight is one weighted metric of the composite.
type Weight struct {
	Metric string
	Weight float64
}

// Weights lists the weighted metrics in summation order. The weights sum to 1.
var Weights = []Weight{
	{Metric: MathematicalAccuracy, Weight: 0.30},
	{Metric: LogicalConsistency, Weight: 0.25},
	{Metric: FormulasPrinciples, Weight: 0.20},
	{Metric: Completeness, Weight: 0.10},
	{Metric: AssumptionsMade, Weight: 0.10},
	{Metric: ClarityAndCoherence, Weight: 0.05},
}

// RatingSet holds the judge's numeric ratings. Metrics absent from the reply are absent here.
type RatingSet struct {
	Metrics            map[string]float64
	OverallCorrectness *float64
}

// Rating returns the rating for metric, or the minimum rating when it is missing.
func (r RatingSet) Rating(metric string) float64 {
	if v, ok := r.Metrics[metric]; ok {
		return v
	}
	return minRating
}

// Composite maps the weighted sum of ratings from [1,5] onto [0,100], rounded to two decimals.
// Ratings outside [1,5] are not clamped and can push the result outside [0,100].
func Composite(r RatingSet) float64 {
	weighted := 0.0
	for _, w := range Weights {
		weighted += r.Rating(w.Metric) * w.Weight
	}
	normalized := ((weighted - minRating) / (maxRating - minRating)) * 100
	return round2(normalized)
}

// RatingsFromReply extracts a RatingSet from a decoded judge reply. Numbers and numeric strings
// are accepted; any other value for a known metric fails with ErrScoreComputation.
func RatingsFromReply(reply map[string]any) (RatingSet, error) {
	rs := RatingSet{Metrics: make(map[string]float64, len(Weights))}
	for _, w := range Weights {
		raw, ok := reply[w.Metric]
		if !ok {
			continue
		}
		v, err := toFloat(raw)
		if err != nil {
			return RatingSet{}, fmt.Errorf("%w: %s: %w", ErrScoreComputation, w.Metric, err)
		}
		rs.Metrics[w.Metric] = v
	}
	// overall_correctness never feeds the composite.
	if raw, ok := reply[OverallCorrectness]; ok {
		if v, err := toFloat(raw); err == nil {
			rs.OverallCorrectness = &v
		} else {
			logging.Debugf("[SCORE] ignoring %s: %v", OverallCorrectness, err)
		}
	}
	return rs, nil
}

// ScoreReply combines RatingsFromReply and Composite.
func ScoreReply(reply map[string]any) (float64, error) {
	rs, err := RatingsFromReply(reply)
	if err != nil {
		return 0, err
	}
	score := Composite(rs)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("%w: composite overflowed", ErrScoreComputation)
	}
	return score, nil
}

// toFloat converts a judge rating. NaN and infinities are rejected.
func toFloat(v any) (float64, error) {
	f, err := rawFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite rating %v", v)
	}
	return f, nil
}

func rawFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	case nil:
		return 0, errors.New("null rating")
	default:
		return 0, fmt.Errorf("unexpected rating type %T", v)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Mean accumulates composite scores. The zero value is ready to use; it is not safe for
// concurrent use.
type Mean struct {
	Sum   float64
	Count int
}

// Add includes one score.
func (m *Mean) Add(score float64) {
	m.Sum += score
	m.Count++
}

// Average returns the arithmetic mean, and false when no scores were added.
func (m Mean) Average() (float64, bool) {
	if m.Count == 0 {
		return 0, false
	}
	return m.Sum / float64(m.Count), true
}
