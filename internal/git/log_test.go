package git_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/gitgraph/internal/git"
	"github.com/kurobon/gitgraph/internal/gittest"
	"github.com/kurobon/gitgraph/internal/graph"
)

func recordsByID(res *git.LogResult) map[string]graph.CommitRecord {
	out := make(map[string]graph.CommitRecord, len(res.Commits))
	for _, c := range res.Commits {
		out[c.ID] = c
	}
	return out
}

func TestLog_DecoratesRefs(t *testing.T) {
	r := gittest.New(t)
	c1 := r.Commit("a.txt", "a", "first\n\nbody")
	c2 := r.Commit("b.txt", "b", "second")

	r.Checkout("feature", true)
	r.SetRef("refs/heads/feature", c1)
	r.Checkout("feature", false)
	f1 := r.Commit("f.txt", "f", "feature work")
	r.Checkout("master", false)

	_, err := r.Git.CreateTag("v1", c1, &gogit.CreateTagOptions{
		Message: "release",
		Tagger:  git.Signature(r.Git),
	})
	require.NoError(t, err)
	r.SetRef("refs/tags/light", c2)
	r.AddRemote("origin")
	r.SetRef("refs/remotes/origin/master", c1)

	res, err := r.Session.Log(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, "master", res.ActiveBranch)
	assert.True(t, res.HasRemotes)
	require.Len(t, res.Commits, 3)
	assert.Equal(t, []string{f1.String(), c2.String(), c1.String()}, []string{
		res.Commits[0].ID, res.Commits[1].ID, res.Commits[2].ID,
	})

	byID := recordsByID(res)
	assert.ElementsMatch(t, []string{"HEAD", "refs/heads/master", "tag: refs/tags/light"}, byID[c2.String()].Refs)
	assert.ElementsMatch(t, []string{"refs/remotes/origin/master", "tag: refs/tags/v1"}, byID[c1.String()].Refs)
	assert.ElementsMatch(t, []string{"refs/heads/feature"}, byID[f1.String()].Refs)
	assert.Equal(t, []string{c1.String()}, byID[c2.String()].Parents)
	assert.Equal(t, "first\n\nbody", byID[c1.String()].Message)
	assert.Equal(t, "Test", byID[c1.String()].AuthorName)
}

func TestLog_Limit(t *testing.T) {
	r := gittest.New(t)
	var last plumbing.Hash
	for i := 0; i < 5; i++ {
		last = r.Commit("f.txt", string(rune('a'+i)), "commit")
	}

	res, err := r.Session.Log(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, res.Commits, 2)
	assert.Equal(t, last.String(), res.Commits[0].ID)
}

// countingStorage counts commit object reads.
type countingStorage struct {
	*memory.Storage
	commitReads int
}

func (s *countingStorage) EncodedObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	if t == plumbing.CommitObject || t == plumbing.AnyObject {
		s.commitReads++
	}
	return s.Storage.EncodedObject(t, h)
}

func storeCommit(t *testing.T, s *countingStorage, c *object.Commit) plumbing.Hash {
	t.Helper()
	obj := s.NewEncodedObject()
	require.NoError(t, c.Encode(obj))
	h, err := s.SetEncodedObject(obj)
	require.NoError(t, err)
	return h
}

func TestLog_ReadsOnlyUpToLimit(t *testing.T) {
	s := &countingStorage{Storage: memory.NewStorage()}
	repo, err := gogit.Init(s, nil)
	require.NoError(t, err)

	treeObj := s.NewEncodedObject()
	require.NoError(t, (&object.Tree{}).Encode(treeObj))
	tree, err := s.SetEncodedObject(treeObj)
	require.NoError(t, err)

	const history = 2000
	var tip plumbing.Hash
	for i := 0; i < history; i++ {
		sig := object.Signature{Name: "Test", Email: "test@example.com", When: gittest.Epoch.Add(time.Duration(i) * time.Minute)}
		c := &object.Commit{Author: sig, Committer: sig, Message: fmt.Sprintf("c%d", i), TreeHash: tree}
		if i > 0 {
			c.ParentHashes = []plumbing.Hash{tip}
		}
		tip = storeCommit(t, s, c)
	}
	require.NoError(t, s.SetReference(plumbing.NewHashReference("refs/heads/master", tip)))

	s.commitReads = 0
	res, err := git.NewSession("", repo).Log(context.Background(), 100)
	require.NoError(t, err)

	require.Len(t, res.Commits, 100)
	assert.Equal(t, tip.String(), res.Commits[0].ID)
	assert.Equal(t, "c1900", res.Commits[99].Message)
	assert.LessOrEqual(t, s.commitReads, 110)
}

func TestLog_LimitSpansBranches(t *testing.T) {
	r := gittest.New(t)
	r.Commit("a.txt", "a", "m0")
	m1 := r.Commit("a.txt", "b", "m1")
	r.Checkout("feature", true)
	f0 := r.Commit("f.txt", "f", "f0")
	r.Checkout("master", false)
	m2 := r.Commit("a.txt", "c", "m2")

	res, err := r.Session.Log(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, res.Commits, 3)
	assert.Equal(t, []string{m2.String(), f0.String(), m1.String()}, []string{
		res.Commits[0].ID, res.Commits[1].ID, res.Commits[2].ID,
	})
}

func TestLog_DetachedHead(t *testing.T) {
	r := gittest.New(t)
	c1 := r.Commit("a.txt", "a", "first")
	r.Commit("a.txt", "b", "second")

	w, err := r.Git.Worktree()
	require.NoError(t, err)
	require.NoError(t, w.Checkout(&gogit.CheckoutOptions{Hash: c1, Force: true}))

	res, err := r.Session.Log(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, res.ActiveBranch)
	assert.False(t, res.HasRemotes)
	assert.Contains(t, recordsByID(res)[c1.String()].Refs, "HEAD")
}

func TestLog_FeedsGraph(t *testing.T) {
	r := gittest.New(t)
	r.Commit("a.txt", "a", "first")
	tip := r.Commit("a.txt", "b", "second")

	res, err := r.Session.Log(context.Background(), 0)
	require.NoError(t, err)

	g := graph.New()
	g.Refresh(res.Update())
	require.NotNil(t, g.Head())
	assert.Equal(t, tip.String(), g.Head().Hash)
	assert.Len(t, g.Nodes(), 2)
}

func TestLog_Cancelled(t *testing.T) {
	r := gittest.New(t)
	r.Commit("a.txt", "a", "first")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Session.Log(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := git.Open(t.TempDir())
	assert.ErrorIs(t, err, git.ErrNotRepository)
}

func TestOpen_OnDisk(t *testing.T) {
	r := gittest.NewOnDisk(t)
	r.Commit("a.txt", "a", "first")

	s, err := git.Open(r.Session.Path)
	require.NoError(t, err)
	assert.Equal(t, "master", git.ActiveBranch(s.GetRepo()))
	assert.Equal(t, filepath.Join(r.Session.Path, ".git"), s.GitDir())
	assert.Empty(t, gittest.New(t).Session.GitDir())
}

func TestResolveRevision(t *testing.T) {
	r := gittest.New(t)
	c1 := r.Commit("a.txt", "a", "first")
	c2 := r.Commit("a.txt", "b", "second")

	h, err := git.ResolveRevision(r.Git, "master")
	require.NoError(t, err)
	assert.Equal(t, c2, *h)

	h, err = git.ResolveRevision(r.Git, c1.String()[:7])
	require.NoError(t, err)
	assert.Equal(t, c1, *h)

	_, err = git.ResolveRevision(r.Git, "does-not-exist")
	assert.ErrorIs(t, err, git.ErrRefNotFound)
}

func TestIsFastForward(t *testing.T) {
	r := gittest.New(t)
	c1 := r.Commit("a.txt", "a", "first")
	c2 := r.Commit("a.txt", "b", "second")

	ff, err := git.IsFastForward(r.Git, c1, c2)
	require.NoError(t, err)
	assert.True(t, ff)

	ff, err = git.IsFastForward(r.Git, c2, c1)
	require.NoError(t, err)
	assert.False(t, ff)
}
