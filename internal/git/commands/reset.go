package commands

import (
	"context"
	"fmt"

	gogit "github.com/go-git/go-git/v5"

	"github.com/kurobon/gitgraph/internal/git"
)

func init() {
	git.RegisterCommand("reset", func() git.Command { return &ResetCommand{} })
}

// ResetCommand moves the current branch (or detached HEAD) to another commit.
type ResetCommand struct{}

var _ git.Command = (*ResetCommand)(nil)

type ResetOptions struct {
	Mode   gogit.ResetMode
	Target string
}

func (c *ResetCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	s.Lock()
	defer s.Unlock()

	opts, err := c.parseArgs(args)
	if err != nil {
		return "", err
	}
	if opts == nil {
		return c.Help(), nil
	}

	repo := s.GetRepo()
	target, err := git.ResolveRevision(repo, opts.Target)
	if err != nil {
		return "", err
	}
	w, err := repo.Worktree()
	if err != nil {
		return "", err
	}

	s.UpdateOrigHead()
	if err := w.Reset(&gogit.ResetOptions{Commit: *target, Mode: opts.Mode}); err != nil {
		return "", err
	}
	return fmt.Sprintf("HEAD is now at %s", short(*target)), nil
}

// parseArgs returns nil options when help was requested.
func (c *ResetCommand) parseArgs(args []string) (*ResetOptions, error) {
	opts := &ResetOptions{
		Mode:   gogit.MixedReset,
		Target: "HEAD",
	}
	for _, arg := range args[1:] {
		switch arg {
		case "--soft":
			opts.Mode = gogit.SoftReset
		case "--mixed":
			opts.Mode = gogit.MixedReset
		case "--hard":
			opts.Mode = gogit.HardReset
		case "-h", "--help":
			return nil, nil
		default:
			if len(arg) > 1 && arg[0] == '-' {
				return nil, fmt.Errorf("unknown option: %s", arg)
			}
			opts.Target = arg
		}
	}
	return opts, nil
}

func (c *ResetCommand) Help() string {
	return `usage: reset [--soft | --mixed | --hard] [<commit>]

    --soft     move HEAD only
    --mixed    move HEAD and reset the index (default)
    --hard     move HEAD and reset index and working tree
`
}
