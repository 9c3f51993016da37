package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCacheDiffAndCommit(t *testing.T) {
	c := NewCache()
	next := map[int]string{1: "a", 2: ""}
	if diff := cmp.Diff(next, c.Diff(next)); diff != "" {
		t.Fatalf("missing entries must count as changed (-want +got):\n%s", diff)
	}
	c.Commit(next, map[int]struct{}{1: {}, 2: {}})

	got := c.Diff(map[int]string{1: "a", 2: "b"})
	if diff := cmp.Diff(map[int]string{2: "b"}, got); diff != "" {
		t.Fatalf("unexpected diff (-want +got):\n%s", diff)
	}
}

func TestCacheCommitOnlyStoresAccepted(t *testing.T) {
	c := NewCache()
	known := map[int]struct{}{1: {}, 2: {}}
	c.Commit(map[int]string{1: "a"}, known)
	if got := c.Diff(map[int]string{1: "a", 2: "b"}); len(got) != 1 || got[2] != "b" {
		t.Fatalf("rejected rename must be retried, got %v", got)
	}
}

func TestCachePrunesUnknownWorkspaces(t *testing.T) {
	c := NewCache()
	c.Commit(map[int]string{1: "a", 2: "b"}, map[int]struct{}{1: {}, 2: {}})
	c.Commit(nil, map[int]struct{}{1: {}})
	if diff := cmp.Diff(map[int]string{1: "a"}, c.Snapshot()); diff != "" {
		t.Fatalf("unexpected cache (-want +got):\n%s", diff)
	}
	if got := c.Diff(map[int]string{2: "b"}); got[2] != "b" {
		t.Fatalf("reappearing workspace must be a cache miss, got %v", got)
	}
}

func TestCacheReset(t *testing.T) {
	c := NewCache()
	c.Commit(map[int]string{1: "a"}, map[int]struct{}{1: {}})
	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %v", c.Snapshot())
	}
	if got := c.Diff(map[int]string{1: "a"}); len(got) != 1 {
		t.Fatalf("reset must force re-emission, got %v", got)
	}
}

func TestCacheSnapshotIsACopy(t *testing.T) {
	c := NewCache()
	c.Commit(map[int]string{1: "a"}, map[int]struct{}{1: {}})
	snap := c.Snapshot()
	snap[1] = "mutated"
	if got := c.Snapshot()[1]; got != "a" {
		t.Fatalf("snapshot aliases cache state: %q", got)
	}
}
