package commands

import (
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kurobon/gitgraph/internal/git"
)

const defaultRemote = "origin"

// currentBranch returns HEAD's branch reference, or ErrDetachedHead.
func currentBranch(repo *gogit.Repository) (*plumbing.Reference, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return nil, git.ErrDetachedHead
	}
	return head, nil
}

func remoteTrackingName(remote, branch string) plumbing.ReferenceName {
	return plumbing.NewRemoteReferenceName(remote, branch)
}

// splitFlags separates single-dash/double-dash flags from positional arguments.
// args[0] is the command name and is skipped.
func splitFlags(args []string) (map[string]bool, []string) {
	flags := make(map[string]bool)
	var positional []string
	for _, arg := range args[1:] {
		if len(arg) > 1 && arg[0] == '-' {
			flags[arg] = true
			continue
		}
		positional = append(positional, arg)
	}
	return flags, positional
}

func short(h plumbing.Hash) string {
	return h.String()[:7]
}
