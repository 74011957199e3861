package commands

import (
	"context"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kurobon/gitgraph/internal/git"
)

func init() {
	git.RegisterCommand("checkout", func() git.Command { return &CheckoutCommand{} })
}

// CheckoutCommand switches to a local branch, creates one with -b, or detaches
// HEAD at any other revision.
type CheckoutCommand struct{}

func (c *CheckoutCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	s.Lock()
	defer s.Unlock()

	repo := s.GetRepo()
	w, err := repo.Worktree()
	if err != nil {
		return "", err
	}

	var (
		newBranch string
		force     bool
		detach    bool
		target    string
	)
	cmdArgs := args[1:]
	for i := 0; i < len(cmdArgs); i++ {
		switch arg := cmdArgs[i]; arg {
		case "-b":
			if i+1 >= len(cmdArgs) {
				return "", fmt.Errorf("missing branch name for -b")
			}
			newBranch = cmdArgs[i+1]
			i++
		case "-f", "--force":
			force = true
		case "--detach":
			detach = true
		case "-h", "--help":
			return c.Help(), nil
		default:
			if target == "" {
				target = arg
			}
		}
	}

	if newBranch != "" {
		if target == "" {
			target = "HEAD"
		}
		return c.createAndCheckout(repo, w, newBranch, target, force)
	}
	if target == "" {
		return "", fmt.Errorf("usage: checkout <branch> | checkout -b <branch> [<start_point>]")
	}
	return c.checkoutRef(repo, w, target, force, detach)
}

func (c *CheckoutCommand) createAndCheckout(repo *gogit.Repository, w *gogit.Worktree, name, startPoint string, force bool) (string, error) {
	hash, err := git.ResolveRevision(repo, startPoint)
	if err != nil {
		return "", err
	}
	refName := plumbing.NewBranchReferenceName(name)
	if _, err := repo.Reference(refName, false); err == nil {
		return "", fmt.Errorf("a branch named '%s' already exists", name)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(refName, *hash)); err != nil {
		return "", err
	}
	if err := w.Checkout(&gogit.CheckoutOptions{Branch: refName, Force: force}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Switched to a new branch '%s'", name), nil
}

func (c *CheckoutCommand) checkoutRef(repo *gogit.Repository, w *gogit.Worktree, target string, force, detach bool) (string, error) {
	if !detach {
		branchRef := plumbing.NewBranchReferenceName(target)
		if _, err := repo.Reference(branchRef, false); err == nil {
			if err := w.Checkout(&gogit.CheckoutOptions{Branch: branchRef, Force: force}); err != nil {
				return "", err
			}
			return fmt.Sprintf("Switched to branch '%s'", target), nil
		}
	}

	hash, err := git.ResolveRevision(repo, target)
	if err != nil {
		return "", err
	}
	if _, err := repo.CommitObject(*hash); err != nil {
		return "", fmt.Errorf("reference is not a commit: %w", err)
	}
	if err := w.Checkout(&gogit.CheckoutOptions{Hash: *hash, Force: force}); err != nil {
		return "", err
	}
	return fmt.Sprintf("HEAD is now at %s (detached)", short(*hash)), nil
}

func (c *CheckoutCommand) Help() string {
	return `usage: checkout [-f] <branch>
       checkout [-f] [--detach] <commit>
       checkout -b <new_branch> [<start_point>]

Options:
    -b <branch>       create and checkout a new branch
    -f, --force       throw away local changes
    --detach          detach HEAD at the named commit
`
}
