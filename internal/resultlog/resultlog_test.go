package resultlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type record struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

func TestAppendConcurrentWritersProduceWholeLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	const writers = 50
	body := strings.Repeat("physics ", 2000)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := l.Append(record{ID: fmt.Sprintf("p%02d", i), Body: body}); err != nil {
				t.Errorf("Append: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	seen := map[string]bool{}
	err = Scan(path, func(lineNo int, line []byte) {
		var r record
		if err := json.Unmarshal(line, &r); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lineNo, err)
		}
		if r.Body != body {
			t.Fatalf("line %d body was interleaved", lineNo)
		}
		seen[r.ID] = true
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(seen) != writers {
		t.Fatalf("expected %d distinct records, got %d", writers, len(seen))
	}
}

func TestAppendAfterCloseFails(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "out.jsonl"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = l.Close()
	if err := l.Append(record{ID: "x"}); err == nil {
		t.Fatal("expected append on closed log to fail")
	}
}

func TestOpenAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	if err := os.WriteFile(path, []byte(`{"id":"old"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Append(record{ID: "new"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_ = l.Close()

	var ids []string
	_ = Scan(path, func(_ int, line []byte) {
		var r record
		_ = json.Unmarshal(line, &r)
		ids = append(ids, r.ID)
	})
	if diff := cmp.Diff([]string{"old", "new"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestScanSkipsBlankLinesAndHandlesMissingNewline(t *testing.T) {
	input := "first\n\n   \nsecond\nthird"
	var got []string
	var lines []int
	if err := ScanReader(strings.NewReader(input), func(lineNo int, line []byte) {
		got = append(got, string(line))
		lines = append(lines, lineNo)
	}); err != nil {
		t.Fatalf("ScanReader: %v", err)
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, got); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 4, 5}, lines); diff != "" {
		t.Fatalf("line numbers mismatch (-want +got):\n%s", diff)
	}
}

func TestScanMissingFile(t *testing.T) {
	err := Scan(filepath.Join(t.TempDir(), "absent.jsonl"), func(int, []byte) {
		t.Fatal("callback must not run for a missing file")
	})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}
