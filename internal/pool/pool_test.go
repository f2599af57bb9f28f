package pool

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMapNeverExceedsLimit(t *testing.T) {
	t.Parallel()

	for _, limit := range []int{1, 3, 8} {
		items := make([]int, 40)
		for i := range items {
			items[i] = i
		}

		var active, peak atomic.Int64
		outcomes := Map(context.Background(), items, limit, func(ctx context.Context, n int) (int, error) {
			cur := active.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
			return n * n, nil
		})

		count := 0
		for o := range outcomes {
			if o.Err != nil {
				t.Fatalf("limit=%d: unexpected error %v", limit, o.Err)
			}
			if o.Value != o.Item*o.Item {
				t.Fatalf("limit=%d: value %d for item %d", limit, o.Value, o.Item)
			}
			count++
		}
		if count != len(items) {
			t.Fatalf("limit=%d: got %d outcomes want %d", limit, count, len(items))
		}
		if got := peak.Load(); got > int64(limit) {
			t.Fatalf("limit=%d: observed %d concurrent workers", limit, got)
		}
	}
}

func TestMapIsolatesFailures(t *testing.T) {
	t.Parallel()

	items := []string{"a", "b", "boom", "c", "panic", "d"}
	outcomes := Map(context.Background(), items, 3, func(ctx context.Context, s string) (string, error) {
		switch s {
		case "boom":
			return "", errors.New("remote failure")
		case "panic":
			panic("worker blew up")
		}
		return s + "!", nil
	})

	var succeeded []string
	failed := map[string]error{}
	for o := range outcomes {
		if o.Err != nil {
			failed[o.Item] = o.Err
			continue
		}
		succeeded = append(succeeded, o.Value)
	}
	sort.Strings(succeeded)

	if diff := cmp.Diff([]string{"a!", "b!", "c!", "d!"}, succeeded); diff != "" {
		t.Fatalf("succeeded mismatch (-want +got):\n%s", diff)
	}
	if len(failed) != 2 {
		t.Fatalf("expected 2 failures, got %v", failed)
	}
	if !errors.Is(failed["panic"], ErrPanic) {
		t.Fatalf("expected ErrPanic for panicking item, got %v", failed["panic"])
	}
}

func TestMapSequenceAndIndex(t *testing.T) {
	t.Parallel()

	items := []int{30, 10, 20}
	outcomes := Map(context.Background(), items, len(items), func(ctx context.Context, ms int) (int, error) {
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return ms, nil
	})

	var seqs []int
	indexByItem := map[int]int{}
	for o := range outcomes {
		seqs = append(seqs, o.Seq)
		indexByItem[o.Item] = o.Index
	}
	if diff := cmp.Diff([]int{1, 2, 3}, seqs); diff != "" {
		t.Fatalf("sequence numbers must count completions (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[int]int{30: 0, 10: 1, 20: 2}, indexByItem); diff != "" {
		t.Fatalf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestMapEmptyAndZeroLimit(t *testing.T) {
	t.Parallel()

	for range Map(context.Background(), []int(nil), 4, func(ctx context.Context, n int) (int, error) { return n, nil }) {
		t.Fatal("expected no outcomes for empty input")
	}

	count := 0
	for range Map(context.Background(), []int{1, 2}, 0, func(ctx context.Context, n int) (int, error) { return n, nil }) {
		count++
	}
	if count != 2 {
		t.Fatalf("expected zero limit to still run every item, got %d", count)
	}
}
