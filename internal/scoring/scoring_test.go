package scoring

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func uniform(v float64) map[string]any {
	reply := map[string]any{}
	for _, w := range Weights {
		reply[w.Metric] = v
	}
	return reply
}

func TestWeightsSumToOne(t *testing.T) {
	total := 0.0
	for _, w := range Weights {
		total += w.Weight
	}
	if math.Abs(total-1) > 1e-9 {
		t.Fatalf("weights sum to %v", total)
	}
}

func TestScoreReply(t *testing.T) {
	withoutClarity := uniform(5)
	delete(withoutClarity, ClarityAndCoherence)

	mixed := map[string]any{
		MathematicalAccuracy: 4.0,
		LogicalConsistency:   3.0,
		FormulasPrinciples:   5.0,
		Completeness:         2.0,
		AssumptionsMade:      4.0,
		ClarityAndCoherence:  5.0,
		OverallCorrectness:   7.0,
	}

	outOfRange := uniform(5)
	outOfRange[MathematicalAccuracy] = 9.0

	tests := []struct {
		name  string
		reply map[string]any
		want  float64
	}{
		{name: "all fives", reply: uniform(5), want: 100},
		{name: "all ones", reply: uniform(1), want: 0},
		{name: "all threes", reply: uniform(3), want: 50},
		{name: "missing clarity defaults to one", reply: withoutClarity, want: 95},
		{name: "empty reply scores as all ones", reply: map[string]any{}, want: 0},
		// 4*.3+3*.25+5*.2+2*.1+4*.1+5*.05 = 3.8 -> 70
		{name: "mixed", reply: mixed, want: 70},
		{name: "numeric strings", reply: map[string]any{MathematicalAccuracy: "5", LogicalConsistency: " 5 ", FormulasPrinciples: 5.0, Completeness: 5.0, AssumptionsMade: 5.0, ClarityAndCoherence: 5.0}, want: 100},
		// 9*.3 + 5*.7 = 6.2 -> 130, passed through without clamping
		{name: "out of range passthrough", reply: outOfRange, want: 130},
		{name: "zero ratings go negative", reply: uniform(0), want: -25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScoreReply(tt.reply)
			if err != nil {
				t.Fatalf("ScoreReply: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ScoreReply()=%v want %v", got, tt.want)
			}
		})
	}
}

func TestScoreReplyIsDeterministic(t *testing.T) {
	reply := map[string]any{MathematicalAccuracy: 4.0, LogicalConsistency: 2.0, Completeness: 3.0}
	first, _ := ScoreReply(reply)
	for i := 0; i < 100; i++ {
		got, _ := ScoreReply(reply)
		if got != first {
			t.Fatalf("iteration %d: %v != %v", i, got, first)
		}
	}
}

func TestCompositeRoundsToTwoDecimals(t *testing.T) {
	// 4*.3 + 4*.25 + 4*.2 + 4*.1 + 4*.1 + 3*.05 = 3.95 -> 73.75
	rs := RatingSet{Metrics: map[string]float64{
		MathematicalAccuracy: 4, LogicalConsistency: 4, FormulasPrinciples: 4,
		Completeness: 4, AssumptionsMade: 4, ClarityAndCoherence: 3,
	}}
	if got := Composite(rs); got != 73.75 {
		t.Fatalf("Composite()=%v want 73.75", got)
	}
	// 2*.3 + 1*.7 = 1.3 -> 7.5
	rs = RatingSet{Metrics: map[string]float64{MathematicalAccuracy: 2}}
	if got := Composite(rs); got != 7.5 {
		t.Fatalf("Composite()=%v want 7.5", got)
	}
}

func TestRatingsFromReplyRecordsOverall(t *testing.T) {
	var reply map[string]any
	dec := json.NewDecoder(strings.NewReader(`{"mathematical_accuracy": 5, "overall_correctness": 12}`))
	dec.UseNumber()
	if err := dec.Decode(&reply); err != nil {
		t.Fatal(err)
	}
	rs, err := RatingsFromReply(reply)
	if err != nil {
		t.Fatalf("RatingsFromReply: %v", err)
	}
	if rs.OverallCorrectness == nil || *rs.OverallCorrectness != 12 {
		t.Fatalf("expected overall_correctness 12 to pass through, got %v", rs.OverallCorrectness)
	}
	if rs.Metrics[MathematicalAccuracy] != 5 {
		t.Fatalf("expected json.Number rating to decode, got %v", rs.Metrics)
	}
	if rs.Rating(Completeness) != 1 {
		t.Fatalf("missing metric must default to 1")
	}
}

func TestRatingsFromReplyRejectsNonNumeric(t *testing.T) {
	for _, bad := range []any{"excellent", nil, true, []any{5}, map[string]any{"v": 5}} {
		reply := uniform(5)
		reply[LogicalConsistency] = bad
		if _, err := RatingsFromReply(reply); !errors.Is(err, ErrScoreComputation) {
			t.Fatalf("value %#v: expected ErrScoreComputation, got %v", bad, err)
		}
	}
}

func TestRatingsFromReplyRejectsNonFinite(t *testing.T) {
	for _, bad := range []any{"NaN", "nan", "Inf", "+Inf", "-Infinity", math.NaN(), math.Inf(1), json.Number("NaN")} {
		reply := map[string]any{MathematicalAccuracy: bad, LogicalConsistency: 5}
		if _, err := ScoreReply(reply); !errors.Is(err, ErrScoreComputation) {
			t.Fatalf("value %#v: expected ErrScoreComputation, got %v", bad, err)
		}
	}
}

func TestScoreReplyRejectsOverflow(t *testing.T) {
	reply := uniform(5)
	for k := range reply {
		reply[k] = "1.7e308"
	}
	if _, err := ScoreReply(reply); !errors.Is(err, ErrScoreComputation) {
		t.Fatalf("expected overflowing composite to fail, got %v", err)
	}
}

func TestOverallCorrectnessDoesNotAffectComposite(t *testing.T) {
	for _, overall := range []any{"N/A", nil, "NaN", true} {
		reply := uniform(5)
		reply[OverallCorrectness] = overall
		rs, err := RatingsFromReply(reply)
		if err != nil {
			t.Fatalf("overall %#v: RatingsFromReply: %v", overall, err)
		}
		if rs.OverallCorrectness != nil {
			t.Fatalf("overall %#v: expected nil, got %v", overall, *rs.OverallCorrectness)
		}
		got, err := ScoreReply(reply)
		if err != nil {
			t.Fatalf("overall %#v: ScoreReply: %v", overall, err)
		}
		if got != 100 {
			t.Fatalf("overall %#v: got %v want 100", overall, got)
		}
	}
}

func TestMean(t *testing.T) {
	var m Mean
	if _, ok := m.Average(); ok {
		t.Fatal("expected no average for empty accumulator")
	}
	m.Add(100)
	m.Add(50)
	m.Add(0)
	avg, ok := m.Average()
	if !ok || avg != 50 {
		t.Fatalf("Average()=%v,%v want 50,true", avg, ok)
	}
}
