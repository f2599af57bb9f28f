package dataset

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestProblemIDAcceptsStringsAndNumbers(t *testing.T) {
	var items []WorkItem
	raw := `[{"Problem_ID":"P-1","problem":"a","elaborated_solution_steps":"s"},
	         {"Problem_ID":42,"problem":"b","elaborated_solution_steps":"t"}]`
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if items[0].ID != "P-1" || items[1].ID != "42" {
		t.Fatalf("unexpected ids: %q %q", items[0].ID, items[1].ID)
	}

	out, err := json.Marshal(NewProposalRecord(items[1], "answer"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Problem_ID":"42","problem":"b","ai_solution":"answer","elaborated_solution_steps":"t"}`
	if string(out) != want {
		t.Fatalf("record JSON=%s want %s", out, want)
	}

	var bad WorkItem
	if err := json.Unmarshal([]byte(`{"Problem_ID":null}`), &bad); err == nil {
		t.Fatal("expected null id to be rejected")
	}
}

func TestLoadWorkItems(t *testing.T) {
	path := writeFile(t, "input.json", `[
	  {"Problem_ID":"1","problem":"A block slides...","elaborated_solution_steps":"Step 1..."},
	  {"Problem_ID":2,"problem":"A pendulum...","elaborated_solution_steps":"Step 1..."}
	]`)
	items, err := LoadWorkItems(path)
	if err != nil {
		t.Fatalf("LoadWorkItems: %v", err)
	}
	if len(items) != 2 || items[1].ID != "2" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestLoadWorkItemsFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "not json", content: `[{`, want: "parse"},
		{name: "not an array", content: `{"Problem_ID":"1"}`, want: "failed validation"},
		{name: "missing field", content: `[{"Problem_ID":"1","problem":"x"}]`, want: "elaborated_solution_steps"},
		{name: "bad id type", content: `[{"Problem_ID":true,"problem":"x","elaborated_solution_steps":"y"}]`, want: "Problem_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "input.json", tt.content)
			_, err := LoadWorkItems(path)
			if !errors.Is(err, ErrInput) {
				t.Fatalf("expected ErrInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}

	if _, err := LoadWorkItems(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, ErrInput) {
		t.Fatalf("expected ErrInput for missing file, got %v", err)
	}
}

func TestLoadEvaluationItemsSkipsMalformedLines(t *testing.T) {
	path := writeFile(t, "proposed.jsonl", strings.Join([]string{
		`{"Problem_ID":"1","problem":"p","ai_solution":"a","elaborated_solution_steps":"r"}`,
		`{"Problem_ID":"2","ai_solution":`,
		``,
		`{"problem":"no id"}`,
		`{"Problem_ID":3,"ai_solution":"b","elaborated_solution_steps":"s"}`,
	}, "\n"))

	items, err := LoadEvaluationItems(path)
	if err != nil {
		t.Fatalf("LoadEvaluationItems: %v", err)
	}
	want := []EvaluationItem{
		{ID: "1", Problem: "p", GeneratedSolution: "a", ReferenceSolution: "r"},
		{ID: "3", GeneratedSolution: "b", ReferenceSolution: "s"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadEvaluationItems(filepath.Join(t.TempDir(), "none.jsonl")); !errors.Is(err, ErrInput) {
		t.Fatalf("expected ErrInput for missing file, got %v", err)
	}
}

func TestCompletedIDs(t *testing.T) {
	path := writeFile(t, "out.jsonl", strings.Join([]string{
		`{"Problem_ID":"a","ai_solution":"x"}`,
		`garbage`,
		`{"Problem_ID":7}`,
		`{"ai_solution":"no id"}`,
		`{"Problem_ID":"b"`,
	}, "\n")+"\n")

	done, err := CompletedIDs(path)
	if err != nil {
		t.Fatalf("CompletedIDs: %v", err)
	}
	if diff := cmp.Diff(IDSet{"a": {}, "7": {}}, done); diff != "" {
		t.Fatalf("completed mismatch (-want +got):\n%s", diff)
	}

	empty, err := CompletedIDs(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty set, got %v", empty)
	}
}

func TestDedupeAndPending(t *testing.T) {
	items := []WorkItem{{ID: "1"}, {ID: "2"}, {ID: "1", Problem: "dup"}, {ID: "3"}}

	unique := Dedupe(items)
	if diff := cmp.Diff([]WorkItem{{ID: "1"}, {ID: "2"}, {ID: "3"}}, unique); diff != "" {
		t.Fatalf("dedupe mismatch (-want +got):\n%s", diff)
	}

	pending := Pending(unique, IDSet{"2": {}, "99": {}})
	if diff := cmp.Diff([]WorkItem{{ID: "1"}, {ID: "3"}}, pending); diff != "" {
		t.Fatalf("pending mismatch (-want +got):\n%s", diff)
	}
}
