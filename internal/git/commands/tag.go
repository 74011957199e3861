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
	git.RegisterCommand("tag", func() git.Command { return &TagCommand{} })
}

// TagCommand lists, creates, force-moves and deletes tags.
type TagCommand struct{}

func (c *TagCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	s.Lock()
	defer s.Unlock()

	var (
		deleteMode bool
		force      bool
		annotated  bool
		message    string
		positional []string
	)
	cmdArgs := args[1:]
	for i := 0; i < len(cmdArgs); i++ {
		switch arg := cmdArgs[i]; arg {
		case "-h", "--help":
			return c.Help(), nil
		case "-d", "--delete":
			deleteMode = true
		case "-f", "--force":
			force = true
		case "-a":
			annotated = true
		case "-m":
			if i+1 >= len(cmdArgs) {
				return "", fmt.Errorf("option -m requires a value")
			}
			annotated = true
			message = cmdArgs[i+1]
			i++
		default:
			if strings.HasPrefix(arg, "-") {
				return "", fmt.Errorf("unknown option: %s", arg)
			}
			positional = append(positional, arg)
		}
	}

	repo := s.GetRepo()
	if len(positional) == 0 {
		if deleteMode {
			return "", fmt.Errorf("tag name required")
		}
		return c.listTags(repo)
	}

	name := positional[0]
	if deleteMode {
		return c.deleteTag(repo, name)
	}

	startPoint := "HEAD"
	if len(positional) > 1 {
		startPoint = positional[1]
	}
	if annotated && message == "" {
		message = name
	}
	return c.createTag(repo, name, startPoint, message, force)
}

func (c *TagCommand) listTags(repo *gogit.Repository) (string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return "", err
	}
	var names []string
	err = tags.ForEach(func(r *plumbing.Reference) error {
		names = append(names, r.Name().Short())
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(names, "\n"), nil
}

// createTag makes a lightweight tag, or an annotated one when message is set.
func (c *TagCommand) createTag(repo *gogit.Repository, name, startPoint, message string, force bool) (string, error) {
	hash, err := git.ResolveRevision(repo, startPoint)
	if err != nil {
		return "", fmt.Errorf("not a valid object name '%s': %w", startPoint, err)
	}

	refName := plumbing.NewTagReferenceName(name)
	existed := false
	if _, err := repo.Reference(refName, false); err == nil {
		if !force {
			return "", fmt.Errorf("tag '%s' already exists", name)
		}
		existed = true
		if err := repo.DeleteTag(name); err != nil {
			return "", err
		}
	}

	if message != "" {
		_, err = repo.CreateTag(name, *hash, &gogit.CreateTagOptions{
			Message: message,
			Tagger:  git.Signature(repo),
		})
	} else {
		err = repo.Storer.SetReference(plumbing.NewHashReference(refName, *hash))
	}
	if err != nil {
		return "", err
	}

	if existed {
		return fmt.Sprintf("Updated tag '%s' (now %s)", name, short(*hash)), nil
	}
	return "Created tag " + name, nil
}

func (c *TagCommand) deleteTag(repo *gogit.Repository, name string) (string, error) {
	ref, err := repo.Reference(plumbing.NewTagReferenceName(name), false)
	if err != nil {
		return "", fmt.Errorf("tag '%s': %w", name, git.ErrRefNotFound)
	}
	if err := repo.DeleteTag(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted tag '%s' (was %s)", name, short(ref.Hash())), nil
}

func (c *TagCommand) Help() string {
	return `usage: tag
       tag [-f] [-a] [-m <msg>] <tagname> [<commit>]
       tag -d <tagname>

Options:
    -a          create an annotated tag
    -m <msg>    tag message (implies -a)
    -f          replace an existing tag
    -d          delete a tag
`
}
