package graph

// SyncActions says which remote-sync actions apply to a ref. The flags are read
// independently; more than one can be set at once.
type SyncActions struct {
	Push   bool `json:"push"`
	Reset  bool `json:"reset"`
	Rebase bool `json:"rebase"`
	Pull   bool `json:"pull"`
}

func (g *Graph) syncActions(ref *Ref) SyncActions {
	remote, paired := g.remoteOf(ref)
	if !paired {
		return SyncActions{Push: g.hasRemotes}
	}

	moved := remote.Node != ref.Node
	remoteIsAncestor := g.isAncestor(remote.Node, ref.Node)
	remoteIsOffspring := g.isAncestor(ref.Node, remote.Node)

	return SyncActions{
		Push:   moved && remoteIsAncestor,
		Reset:  moved && !remoteIsOffspring,
		Rebase: moved && !remoteIsAncestor && !remoteIsOffspring,
		Pull:   moved && remoteIsOffspring,
	}
}

// SyncActions classifies the ref named name against its paired remote.
func (g *Graph) SyncActions(name string) (SyncActions, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ref, ok := g.ref(name)
	if !ok {
		return SyncActions{}, false
	}
	return g.syncActions(ref), true
}

// isCurrent reports whether ref is the checked-out local branch.
func (g *Graph) isCurrent(ref *Ref) bool {
	return ref.IsLocalBranch && g.activeBranch == ref.DisplayName
}
