package commands

import (
	"context"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kurobon/gitgraph/internal/git"
)

func init() {
	git.RegisterCommand("branch", func() git.Command { return &BranchCommand{} })
}

// BranchCommand lists, creates, force-moves and deletes branches. With -r it acts
// on remote-tracking branches.
type BranchCommand struct{}

func (c *BranchCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	s.Lock()
	defer s.Unlock()

	var (
		deleteMode bool
		force      bool
		remoteMode bool
		branchName string
		startPoint string
	)
	for _, arg := range args[1:] {
		switch arg {
		case "-h", "--help":
			return c.Help(), nil
		case "-d", "--delete":
			deleteMode = true
		case "-D":
			deleteMode = true
			force = true
		case "-f", "--force":
			force = true
		case "-r", "--remotes":
			remoteMode = true
		default:
			if strings.HasPrefix(arg, "-") {
				return "", fmt.Errorf("unknown option: %s", arg)
			}
			if branchName == "" {
				branchName = arg
			} else if startPoint == "" {
				startPoint = arg
			}
		}
	}

	repo := s.GetRepo()
	switch {
	case deleteMode:
		if branchName == "" {
			return "", fmt.Errorf("branch name required")
		}
		if remoteMode {
			return c.deleteRemoteBranch(repo, branchName)
		}
		return c.deleteBranch(repo, branchName, force)
	case branchName == "":
		return c.listBranches(repo, remoteMode)
	default:
		if startPoint == "" {
			startPoint = "HEAD"
		}
		return c.createBranch(repo, branchName, startPoint, force)
	}
}

func (c *BranchCommand) listBranches(repo *gogit.Repository, remote bool) (string, error) {
	refs, err := repo.References()
	if err != nil {
		return "", err
	}
	current := git.ActiveBranch(repo)

	var lines []string
	err = refs.ForEach(func(r *plumbing.Reference) error {
		name := r.Name()
		switch {
		case remote && name.IsRemote():
			lines = append(lines, "  "+name.Short())
		case !remote && name.IsBranch():
			marker := "  "
			if name.Short() == current {
				marker = "* "
			}
			lines = append(lines, marker+name.Short())
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (c *BranchCommand) createBranch(repo *gogit.Repository, name, startPoint string, force bool) (string, error) {
	hash, err := git.ResolveRevision(repo, startPoint)
	if err != nil {
		return "", fmt.Errorf("not a valid object name '%s': %w", startPoint, err)
	}

	refName := plumbing.NewBranchReferenceName(name)
	existed := false
	if existing, err := repo.Storer.Reference(refName); err == nil && existing != nil {
		existed = true
		if git.ActiveBranch(repo) == name {
			return "", fmt.Errorf("cannot force update the current branch")
		}
		if !force {
			return "", fmt.Errorf("a branch named '%s' already exists", name)
		}
	}

	if err := repo.Storer.SetReference(plumbing.NewHashReference(refName, *hash)); err != nil {
		return "", err
	}
	if existed {
		return fmt.Sprintf("Reset branch '%s' to %s", name, short(*hash)), nil
	}
	return "Created branch " + name, nil
}

func (c *BranchCommand) deleteBranch(repo *gogit.Repository, name string, force bool) (string, error) {
	refName := plumbing.NewBranchReferenceName(name)
	target, err := repo.Reference(refName, true)
	if err != nil {
		return "", fmt.Errorf("branch '%s': %w", name, git.ErrRefNotFound)
	}
	if git.ActiveBranch(repo) == name {
		return "", fmt.Errorf("cannot delete branch '%s' checked out at current worktree", name)
	}

	if !force {
		head, err := repo.Head()
		if err != nil {
			return "", fmt.Errorf("failed to get HEAD: %w", err)
		}
		merged, err := git.IsFastForward(repo, target.Hash(), head.Hash())
		if err != nil {
			return "", fmt.Errorf("failed to check merge status: %w", err)
		}
		if !merged {
			return "", fmt.Errorf("the branch '%s' is not fully merged; use -D to delete it anyway", name)
		}
	}

	if err := repo.Storer.RemoveReference(refName); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted branch %s (was %s).", name, short(target.Hash())), nil
}

// deleteRemoteBranch removes a remote-tracking ref given as <remote>/<branch>.
func (c *BranchCommand) deleteRemoteBranch(repo *gogit.Repository, name string) (string, error) {
	refName := plumbing.ReferenceName("refs/remotes/" + name)
	target, err := repo.Reference(refName, false)
	if err != nil {
		return "", fmt.Errorf("remote-tracking branch '%s': %w", name, git.ErrRefNotFound)
	}
	if err := repo.Storer.RemoveReference(refName); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted remote-tracking branch %s (was %s).", name, short(target.Hash())), nil
}

func (c *BranchCommand) Help() string {
	return `usage: branch [-r]
       branch [-f] <branchname> [<start-point>]
       branch (-d | -D) <branchname>
       branch -r -d <remote>/<branchname>

Options:
    -d, --delete          delete fully merged branch
    -D                    delete branch (even if not merged)
    -f, --force           reset <branchname> to <start-point> if it exists
    -r, --remotes         act on remote-tracking branches
`
}
