package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/mwiater/physbench/internal/logging"
	"github.com/mwiater/physbench/internal/resultlog"
	"github.com/xeipuuv/gojsonschema"
)

// workItemsSchema describes the proposer input: an array of problem objects.
var workItemsSchema = gojsonschema.NewStringLoader(`{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["Problem_ID", "problem", "elaborated_solution_steps"],
    "properties": {
      "Problem_ID": {"type": ["string", "number"]},
      "problem": {"type": "string"},
      "elaborated_solution_steps": {"type": "string"}
    }
  }
}`)

// maxSchemaErrors caps how many validation failures are quoted in an error.
const maxSchemaErrors = 5

// LoadWorkItems reads the proposer input. Any problem with the file or its records is fatal.
func LoadWorkItems(path string) ([]WorkItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: input file %s not found", ErrInput, path)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrInput, path, err)
	}

	result, err := gojsonschema.Validate(workItemsSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrInput, path, err)
	}
	if !result.Valid() {
		var details []string
		for i, desc := range result.Errors() {
			if i == maxSchemaErrors {
				details = append(details, fmt.Sprintf("and %d more", len(result.Errors())-maxSchemaErrors))
				break
			}
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("%w: %s failed validation: %s", ErrInput, path, strings.Join(details, "; "))
	}

	var items []WorkItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInput, path, err)
	}
	return items, nil
}

// LoadEvaluationItems reads a proposer output file. Malformed lines are logged and skipped.
func LoadEvaluationItems(path string) ([]EvaluationItem, error) {
	var items []EvaluationItem
	err := resultlog.Scan(path, func(lineNo int, line []byte) {
		var item EvaluationItem
		if err := json.Unmarshal(line, &item); err != nil {
			logging.LogEvent("skipping malformed line %d in %s: %v", lineNo, path, err)
			return
		}
		if item.ID == "" {
			logging.LogEvent("skipping line %d in %s: missing Problem_ID", lineNo, path)
			return
		}
		items = append(items, item)
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: input file %s not found", ErrInput, path)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrInput, path, err)
	}
	return items, nil
}

// CompletedIDs recovers the identifiers already present in an output log. A missing file yields
// an empty set; lines that do not parse or carry no identifier are ignored.
func CompletedIDs(path string) (IDSet, error) {
	done := IDSet{}
	err := resultlog.Scan(path, func(lineNo int, line []byte) {
		var rec struct {
			ID *ProblemID `json:"Problem_ID"`
		}
		if err := json.Unmarshal(line, &rec); err != nil || rec.ID == nil {
			logging.Debugf("ignoring unreadable line %d in %s", lineNo, path)
			return
		}
		done.Add(*rec.ID)
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return done, nil
}
