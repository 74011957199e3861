package graph

import (
	"fmt"
	"time"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// commit builds a record committed `minutes` after baseTime.
func commit(id string, minutes int, parents []string, refs ...string) CommitRecord {
	ts := baseTime.Add(time.Duration(minutes) * time.Minute)
	return CommitRecord{
		ID:          id,
		Parents:     parents,
		CommitTime:  ts,
		AuthorTime:  ts,
		AuthorName:  "Test User",
		AuthorEmail: "test@example.com",
		Message:     "commit " + id,
		Refs:        refs,
	}
}

func parents(ids ...string) []string {
	return ids
}

// linearHistory returns n commits c0..c(n-1), oldest first, with HEAD and main on the tip.
func linearHistory(n int) []CommitRecord {
	records := make([]CommitRecord, 0, n)
	for i := 0; i < n; i++ {
		var p []string
		if i > 0 {
			p = parents(fmt.Sprintf("c%d", i-1))
		}
		var refs []string
		if i == n-1 {
			refs = []string{"HEAD", "refs/heads/main"}
		}
		records = append(records, commit(fmt.Sprintf("c%d", i), i, p, refs...))
	}
	return records
}

func newTestGraph() *Graph {
	return New(WithLocation(time.UTC), WithClock(func() time.Time { return baseTime.Add(24 * time.Hour) }))
}

func names(refs []*Ref) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return out
}
