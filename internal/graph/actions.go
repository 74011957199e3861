package graph

import (
	"errors"
	"fmt"
)

// ErrUnknownRef is returned when a ref name is not in the graph.
var ErrUnknownRef = errors.New("unknown ref")

// ErrActionNotApplicable is returned when a sync action is not offered for a ref.
var ErrActionNotApplicable = errors.New("action not applicable")

// Sync action names, as used in SyncActions' JSON form.
const (
	ActionPush   = "push"
	ActionReset  = "reset"
	ActionRebase = "rebase"
	ActionPull   = "pull"
)

// MoveRefCommand returns the command line that moves the named ref onto the commit
// hash. The checked-out branch is moved with a hard reset, tags and other
// branches are force-recreated at the commit.
func (g *Graph) MoveRefCommand(name, hash string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ref, ok := g.ref(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownRef)
	}
	switch {
	case g.isCurrent(ref):
		return []string{"reset", "--hard", hash}, nil
	case ref.IsTag:
		return []string{"tag", "-f", ref.DisplayName, hash}, nil
	default:
		return []string{"branch", "-f", ref.DisplayName, hash}, nil
	}
}

// SyncCommand returns the command line performing a sync action on the named ref.
// Reset and pull both align the checked-out branch with the paired remote.
func (g *Graph) SyncCommand(name, action string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ref, ok := g.ref(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownRef)
	}
	actions := g.syncActions(ref)
	remote, _ := g.remoteOf(ref)

	switch action {
	case ActionPush:
		if actions.Push {
			return []string{"push", "origin", ref.DisplayName}, nil
		}
	case ActionReset:
		if actions.Reset {
			return []string{"reset", "--hard", remote.Name}, nil
		}
	case ActionRebase:
		if actions.Rebase {
			return []string{"rebase", remote.Name}, nil
		}
	case ActionPull:
		if actions.Pull {
			return []string{"reset", "--hard", remote.Name}, nil
		}
	}
	return nil, fmt.Errorf("%s on %s: %w", action, ref.DisplayName, ErrActionNotApplicable)
}
