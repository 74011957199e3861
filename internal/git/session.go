package git

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Session holds the repository being visualised and the repositories its
// remotes point at. Commands hold the session lock for their whole run.
type Session struct {
	Path string

	// Remotes maps a remote URL to an already opened repository. URLs that are
	// not registered are opened from disk on first use.
	Remotes map[string]*gogit.Repository

	repo *gogit.Repository
	mu   sync.RWMutex
}

// Open opens the repository at path, walking up to the enclosing work tree.
func Open(path string) (*Session, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == gogit.ErrRepositoryNotExists {
			return nil, fmt.Errorf("%s: %w", abs, ErrNotRepository)
		}
		return nil, fmt.Errorf("open %s: %w", abs, err)
	}
	return NewSession(abs, repo), nil
}

// OpenMemory initialises an empty repository backed by memfs and in-memory storage.
func OpenMemory() (*Session, error) {
	repo, err := gogit.Init(memory.NewStorage(), memfs.New())
	if err != nil {
		return nil, fmt.Errorf("init in-memory repository: %w", err)
	}
	return NewSession("", repo), nil
}

// NewSession wraps an already opened repository.
func NewSession(path string, repo *gogit.Repository) *Session {
	return &Session{
		Path:    path,
		Remotes: make(map[string]*gogit.Repository),
		repo:    repo,
	}
}

func (s *Session) Lock()    { s.mu.Lock() }
func (s *Session) Unlock()  { s.mu.Unlock() }
func (s *Session) RLock()   { s.mu.RLock() }
func (s *Session) RUnlock() { s.mu.RUnlock() }

// GetRepo returns the underlying repository. Callers must hold the session lock.
func (s *Session) GetRepo() *gogit.Repository {
	return s.repo
}

// GitDir returns the on-disk git directory, or "" for in-memory repositories.
func (s *Session) GitDir() string {
	fs, ok := s.repo.Storer.(*filesystem.Storage)
	if !ok {
		return ""
	}
	return fs.Filesystem().Root()
}

// ActiveBranch returns the short name of the branch HEAD points at, or "" when
// HEAD is detached or unborn.
func ActiveBranch(repo *gogit.Repository) string {
	head, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil || head.Type() != plumbing.SymbolicReference {
		return ""
	}
	if _, err := repo.Reference(head.Target(), false); err != nil {
		return ""
	}
	return head.Target().Short()
}

// HasRemotes reports whether the repository configures at least one remote.
func HasRemotes(repo *gogit.Repository) bool {
	remotes, err := repo.Remotes()
	return err == nil && len(remotes) > 0
}

// RemoteInfo describes one configured remote.
type RemoteInfo struct {
	Name string   `json:"name"`
	URLs []string `json:"urls"`
}

// ListRemotes returns the configured remotes sorted by name.
func (s *Session) ListRemotes() ([]RemoteInfo, error) {
	s.RLock()
	defer s.RUnlock()

	remotes, err := s.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}
	out := make([]RemoteInfo, 0, len(remotes))
	for _, rem := range remotes {
		cfg := rem.Config()
		out = append(out, RemoteInfo{Name: cfg.Name, URLs: append([]string{}, cfg.URLs...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RemoteRepository resolves the repository behind a configured remote.
func (s *Session) RemoteRepository(remoteName string) (*gogit.Repository, string, error) {
	rem, err := s.repo.Remote(remoteName)
	if err != nil {
		return nil, "", fmt.Errorf("'%s' does not appear to be a git repository: %w", remoteName, ErrRefNotFound)
	}
	cfg := rem.Config()
	if len(cfg.URLs) == 0 {
		return nil, "", fmt.Errorf("remote %s has no URL defined", remoteName)
	}
	url := cfg.URLs[0]

	if repo, ok := s.Remotes[url]; ok {
		return repo, url, nil
	}

	path := strings.TrimPrefix(url, "file://")
	if !filepath.IsAbs(path) && s.Path != "" {
		path = filepath.Join(s.Path, path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, url, fmt.Errorf("remote repository '%s' is not reachable: only local remotes are supported", url)
	}
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, url, fmt.Errorf("open remote %s: %w", url, err)
	}
	s.Remotes[url] = repo
	return repo, url, nil
}

// UpdateOrigHead records the current HEAD commit as ORIG_HEAD before a
// history-rewriting command.
func (s *Session) UpdateOrigHead() {
	head, err := s.repo.Head()
	if err != nil {
		return
	}
	_ = s.repo.Storer.SetReference(plumbing.NewHashReference("ORIG_HEAD", head.Hash()))
}
