package evaluator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mwiater/physbench/internal/util"
	"github.com/xeipuuv/gojsonschema"
)

// ErrJudgeReply marks judge replies that contain no JSON object.
var ErrJudgeReply = errors.New("judge reply is not a JSON object")

// ParseJudgeReply decodes the judge's reply. The whole text is tried first; failing that, the
// first brace-delimited object embedded in surrounding prose or code fences is used.
// Numbers are kept as json.Number so they re-encode exactly as the judge wrote them.
func ParseJudgeReply(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	if obj, ok := decodeObject(trimmed); ok {
		return obj, nil
	}
	for i := strings.IndexByte(trimmed, '{'); i >= 0; {
		if obj, ok := decodeObject(trimmed[i:]); ok {
			return obj, nil
		}
		next := strings.IndexByte(trimmed[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, fmt.Errorf("%w: %q", ErrJudgeReply, util.TruncateRunes(util.SingleLine(trimmed), 120))
}

// decodeObject reads one JSON object from the start of s. Trailing text is ignored.
func decodeObject(s string) (map[string]any, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

const judgeReplySchema = `{
  "type": "object",
  "required": [
    "mathematical_accuracy", "logical_consistency", "completeness",
    "clarity_and_coherence", "formulas_principles", "assumptions_made", "overall_correctness"
  ],
  "properties": {
    "problem_id":            {"type": ["string", "number"]},
    "mathematical_accuracy": {"type": "number", "minimum": 1, "maximum": 5},
    "logical_consistency":   {"type": "number", "minimum": 1, "maximum": 5},
    "completeness":          {"type": "number", "minimum": 1, "maximum": 5},
    "clarity_and_coherence": {"type": "number", "minimum": 1, "maximum": 5},
    "formulas_principles":   {"type": "number", "minimum": 1, "maximum": 5},
    "assumptions_made":      {"type": "number", "minimum": 1, "maximum": 5},
    "overall_correctness":   {"type": "number", "minimum": 0, "maximum": 10}
  }
}`

var judgeSchema = gojsonschema.NewStringLoader(judgeReplySchema)

// CheckJudgeReply lists how reply deviates from the expected judge shape. Deviations are
// informational; scoring still proceeds on whatever the judge returned.
func CheckJudgeReply(reply map[string]any) []string {
	raw, err := json.Marshal(reply)
	if err != nil {
		return []string{err.Error()}
	}
	result, err := gojsonschema.Validate(judgeSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return []string{err.Error()}
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, e.String())
	}
	return issues
}
