package git

import (
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	defaultName  = "gitgraph"
	defaultEmail = "gitgraph@localhost"
)

// Signature builds the committer signature for rewritten commits from the
// repository's user.name/user.email, falling back to the global config and then
// to a fixed identity.
func Signature(repo *gogit.Repository) *object.Signature {
	sig := &object.Signature{Name: defaultName, Email: defaultEmail, When: time.Now()}

	cfg, err := repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		sig.Email = cfg.User.Email
	}
	return sig
}
