package evaluator

import (
	"fmt"
	"strings"

	"github.com/mwiater/physbench/internal/dataset"
	"github.com/mwiater/physbench/internal/scoring"
)

// metricGuide is the order and wording the judge sees; weights come from the scoring table.
var metricGuide = []struct {
	metric string
	guide  string
}{
	{scoring.MathematicalAccuracy, "Calculation correctness, units, and numerical values."},
	{scoring.LogicalConsistency, "Step-by-step reasoning and physics logic."},
	{scoring.Completeness, "Addressing all parts of the problem."},
	{scoring.ClarityAndCoherence, "Organization and use of terminology."},
	{scoring.FormulasPrinciples, "Correct identification and application of physical laws."},
	{scoring.AssumptionsMade, "Explicit and justified assumptions."},
}

func weightOf(metric string) float64 {
	for _, w := range scoring.Weights {
		if w.Metric == metric {
			return w.Weight
		}
	}
	return 0
}

// BuildJudgePrompt renders the grading instructions for one candidate solution.
func BuildJudgePrompt(item dataset.EvaluationItem) string {
	var b strings.Builder
	b.WriteString("You are an expert physics problem evaluator. Your task is to meticulously and STRICTLY evaluate an AI-generated solution against a ground-truth solution.\n\n")
	b.WriteString("Evaluation Categories and Scoring Guidelines (Score 1-5):\n")
	n := 0
	for _, m := range metricGuide {
		n++
		fmt.Fprintf(&b, "%d. %s (Weight %.2f): %s\n", n, m.metric, weightOf(m.metric), m.guide)
	}
	fmt.Fprintf(&b, "%d. %s (Score 0-10): Overall fidelity to ground truth.\n\n", n+1, scoring.OverallCorrectness)

	fmt.Fprintf(&b, "Problem ID: %s\n", item.ID)
	b.WriteString("Ground Truth Elaborated Steps:\n")
	b.WriteString(item.ReferenceSolution)
	b.WriteString("\n\nAI-Generated Solution:\n")
	b.WriteString(item.GeneratedSolution)
	b.WriteString("\n\nProvide evaluation STRICTLY as a JSON object.\n{\n")
	fmt.Fprintf(&b, "    \"problem_id\": %q,\n", string(item.ID))
	for _, m := range metricGuide {
		fmt.Fprintf(&b, "    %q: <1-5>,\n", m.metric)
	}
	fmt.Fprintf(&b, "    %q: <0-10>\n}", scoring.OverallCorrectness)
	return b.String()
}
