package git

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/emirpasic/gods/trees/binaryheap"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/kurobon/gitgraph/internal/graph"
)

// DefaultLogLimit matches the graph's node cap.
const DefaultLogLimit = graph.MaxNodes

const tagDecorationPrefix = "tag: "

// LogResult is one complete fetch of the commit graph.
type LogResult struct {
	Commits      []graph.CommitRecord
	ActiveBranch string
	HasRemotes   bool
}

// Update converts the fetch into the graph's refresh input.
func (r *LogResult) Update() graph.Update {
	return graph.Update{
		Commits:      r.Commits,
		ActiveBranch: r.ActiveBranch,
		HasRemotes:   r.HasRemotes,
	}
}

// Log walks the commits reachable from HEAD, local branches, remote-tracking
// branches and tags, newest first, reading at most limit of them. Each record
// carries its refs decorated as `git log --decorate=full` prints them.
func (s *Session) Log(ctx context.Context, limit int) (*LogResult, error) {
	s.RLock()
	defer s.RUnlock()

	repo := s.GetRepo()
	if repo == nil {
		return nil, ErrNotRepository
	}
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	decorations, seeds, err := collectDecorations(repo)
	if err != nil {
		return nil, err
	}

	commits, err := walkCommits(ctx, repo, seeds, limit)
	if err != nil {
		return nil, err
	}
	sortCommits(commits)

	result := &LogResult{
		Commits:      make([]graph.CommitRecord, 0, len(commits)),
		ActiveBranch: ActiveBranch(repo),
		HasRemotes:   HasRemotes(repo),
	}
	for _, c := range commits {
		parents := make([]string, 0, len(c.ParentHashes))
		for _, p := range c.ParentHashes {
			parents = append(parents, p.String())
		}
		result.Commits = append(result.Commits, graph.CommitRecord{
			ID:          c.Hash.String(),
			Parents:     parents,
			CommitTime:  c.Committer.When,
			AuthorTime:  c.Author.When,
			AuthorName:  c.Author.Name,
			AuthorEmail: c.Author.Email,
			Message:     c.Message,
			Refs:        decorations[c.Hash],
		})
	}
	return result, nil
}

// collectDecorations maps commit hashes to decorated ref names and returns the
// walk seeds. Annotated tags are peeled to their commit.
func collectDecorations(repo *gogit.Repository) (map[plumbing.Hash][]string, []plumbing.Hash, error) {
	decorations := make(map[plumbing.Hash][]string)
	var seeds []plumbing.Hash
	add := func(hash plumbing.Hash, name string) {
		decorations[hash] = append(decorations[hash], name)
		seeds = append(seeds, hash)
	}

	if head, err := repo.Head(); err == nil {
		add(head.Hash(), plumbing.HEAD.String())
	}

	refs, err := repo.References()
	if err != nil {
		return nil, nil, fmt.Errorf("list references: %w", err)
	}
	err = refs.ForEach(func(r *plumbing.Reference) error {
		name := r.Name()
		switch {
		case name.IsBranch():
			if r.Type() == plumbing.HashReference {
				add(r.Hash(), name.String())
			}
		case name.IsRemote():
			resolved, err := repo.Reference(name, true)
			if err != nil {
				return nil
			}
			add(resolved.Hash(), name.String())
		case name.IsTag():
			hash := r.Hash()
			if tag, err := repo.TagObject(hash); err == nil {
				commit, err := tag.Commit()
				if err != nil {
					return nil
				}
				hash = commit.Hash
			}
			add(hash, tagDecorationPrefix+name.String())
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return decorations, seeds, nil
}

// walkCommits pops commits newest first by committer time from a heap seeded with
// every tip and stops after limit pops, so at most limit commits plus the pending
// frontier are read from storage.
func walkCommits(ctx context.Context, repo *gogit.Repository, seeds []plumbing.Hash, limit int) ([]*object.Commit, error) {
	queue := binaryheap.NewWith(newestFirst)
	seen := make(map[plumbing.Hash]bool)
	push := func(h plumbing.Hash) {
		if seen[h] {
			return
		}
		seen[h] = true
		c, err := repo.CommitObject(h)
		if err != nil {
			// Shallow clones and dangling refs leave holes in the history.
			return
		}
		queue.Push(c)
	}
	for _, h := range seeds {
		push(h)
	}

	commits := make([]*object.Commit, 0, limit)
	for len(commits) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, ok := queue.Pop()
		if !ok {
			break
		}
		c := v.(*object.Commit)
		commits = append(commits, c)
		for _, p := range c.ParentHashes {
			push(p)
		}
	}
	return commits, nil
}

func newestFirst(a, b interface{}) int {
	ca, cb := a.(*object.Commit), b.(*object.Commit)
	ta, tb := ca.Committer.When, cb.Committer.When
	switch {
	case ta.After(tb):
		return -1
	case ta.Before(tb):
		return 1
	}
	return -strings.Compare(ca.Hash.String(), cb.Hash.String())
}

// sortCommits orders newest first by committer time. Ties put descendants before
// their ancestors, then fall back to the hash so the order is deterministic.
func sortCommits(commits []*object.Commit) {
	byHash := make(map[plumbing.Hash]*object.Commit, len(commits))
	for _, c := range commits {
		byHash[c.Hash] = c
	}

	isAncestor := func(ancestor, descendant *object.Commit) bool {
		const maxSteps = 500
		queue := []plumbing.Hash{descendant.Hash}
		visited := map[plumbing.Hash]bool{descendant.Hash: true}
		for steps := 0; len(queue) > 0 && steps < maxSteps; steps++ {
			current := queue[0]
			queue = queue[1:]
			if current == ancestor.Hash {
				return true
			}
			c, ok := byHash[current]
			if !ok {
				continue
			}
			for _, p := range c.ParentHashes {
				if !visited[p] {
					visited[p] = true
					queue = append(queue, p)
				}
			}
		}
		return false
	}

	sort.SliceStable(commits, func(i, j int) bool {
		ci, cj := commits[i], commits[j]
		ti, tj := ci.Committer.When, cj.Committer.When
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		if isAncestor(ci, cj) {
			return false
		}
		if isAncestor(cj, ci) {
			return true
		}
		return ci.Hash.String() > cj.Hash.String()
	})
}
