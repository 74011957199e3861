// Package gittest builds throwaway repositories for tests.
package gittest

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/gitgraph/internal/git"
)

// Epoch is the author time of the first commit made through a Repo.
var Epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Repo is an in-memory repository with a monotonic commit clock.
type Repo struct {
	t       *testing.T
	Session *git.Session
	Git     *gogit.Repository
	clock   time.Time
}

// New initialises an in-memory repository on branch master.
func New(t *testing.T) *Repo {
	t.Helper()
	r, err := gogit.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	return &Repo{t: t, Session: git.NewSession("", r), Git: r, clock: Epoch}
}

// NewOnDisk initialises a repository under t.TempDir.
func NewOnDisk(t *testing.T) *Repo {
	t.Helper()
	dir := t.TempDir()
	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	return &Repo{t: t, Session: git.NewSession(dir, r), Git: r, clock: Epoch}
}

// Commit writes file with content, stages it and commits on the current HEAD.
// Each commit is one minute after the previous one.
func (r *Repo) Commit(file, content, msg string) plumbing.Hash {
	r.t.Helper()
	w, err := r.Git.Worktree()
	require.NoError(r.t, err)

	f, err := w.Filesystem.Create(file)
	require.NoError(r.t, err)
	_, err = f.Write([]byte(content))
	require.NoError(r.t, err)
	require.NoError(r.t, f.Close())

	_, err = w.Add(file)
	require.NoError(r.t, err)

	sig := &object.Signature{Name: "Test", Email: "test@example.com", When: r.clock}
	r.clock = r.clock.Add(time.Minute)
	h, err := w.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig})
	require.NoError(r.t, err)
	return h
}

// Checkout switches to an existing branch, or creates it at HEAD when create is set.
func (r *Repo) Checkout(branch string, create bool) {
	r.t.Helper()
	w, err := r.Git.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, w.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
		Force:  true,
	}))
}

// SetRef points name at hash directly.
func (r *Repo) SetRef(name string, hash plumbing.Hash) {
	r.t.Helper()
	require.NoError(r.t, r.Git.Storer.SetReference(plumbing.NewHashReference(plumbing.ReferenceName(name), hash)))
}

// Ref resolves name to a hash.
func (r *Repo) Ref(name string) plumbing.Hash {
	r.t.Helper()
	ref, err := r.Git.Reference(plumbing.ReferenceName(name), true)
	require.NoError(r.t, err)
	return ref.Hash()
}

// HasRef reports whether name exists.
func (r *Repo) HasRef(name string) bool {
	_, err := r.Git.Reference(plumbing.ReferenceName(name), true)
	return err == nil
}

// AddRemote creates an empty in-memory remote named name and registers it with the session.
func (r *Repo) AddRemote(name string) *gogit.Repository {
	r.t.Helper()
	remote, err := gogit.Init(memory.NewStorage(), nil)
	require.NoError(r.t, err)

	url := "mem://" + name
	_, err = r.Git.CreateRemote(&config.RemoteConfig{
		Name:  name,
		URLs:  []string{url},
		Fetch: []config.RefSpec{config.RefSpec("+refs/heads/*:refs/remotes/" + name + "/*")},
	})
	require.NoError(r.t, err)
	r.Session.Remotes[url] = remote
	return remote
}
