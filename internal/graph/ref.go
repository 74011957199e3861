package graph

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
)

const (
	localTagPrefix     = "tag: refs/tags/"
	localBranchPrefix  = "refs/heads/"
	remoteBranchPrefix = "refs/remotes/origin/"

	localHEADName  = "HEAD"
	remoteHEADName = "refs/remotes/origin/HEAD"
	masterRefName  = "refs/heads/master"
)

// Ref is a named pointer (branch, tag or HEAD) decorating a commit.
type Ref struct {
	Name        string
	DisplayName string

	IsLocalTag     bool
	IsRemoteTag    bool
	IsTag          bool
	IsLocalHEAD    bool
	IsRemoteHEAD   bool
	IsHEAD         bool
	IsLocalBranch  bool
	IsRemoteBranch bool
	IsBranch       bool
	IsLocal        bool
	IsRemote       bool

	Color string

	// Node is the commit the ref currently points at.
	Node *Node

	// RemoteName and LocalName pair a local branch with refs/remotes/origin/<DisplayName>.
	// They are lookup keys into the graph's ref table, not owning pointers.
	RemoteName string
	LocalName  string

	lane      int
	laneStamp uint64
	liveStamp uint64
}

// ClassifyRef derives the ref flags and display name from a raw decorated ref name.
// Unknown names come back with every flag unset and the raw name as display name.
func ClassifyRef(name string) Ref {
	r := Ref{Name: name, DisplayName: name}

	r.IsLocalTag = strings.HasPrefix(name, localTagPrefix)
	r.IsTag = r.IsLocalTag || r.IsRemoteTag
	r.IsLocalHEAD = name == localHEADName
	r.IsRemoteHEAD = name == remoteHEADName
	r.IsLocalBranch = strings.HasPrefix(name, localBranchPrefix)
	r.IsRemoteBranch = strings.HasPrefix(name, remoteBranchPrefix) && !r.IsRemoteHEAD
	r.IsHEAD = r.IsLocalHEAD || r.IsRemoteHEAD
	r.IsBranch = r.IsLocalBranch || r.IsRemoteBranch
	r.IsRemote = r.IsRemoteBranch || r.IsRemoteTag
	r.IsLocal = r.IsLocalBranch || r.IsLocalTag

	switch {
	case r.IsTag:
		r.DisplayName = strings.TrimPrefix(name, localTagPrefix)
	case r.IsLocalBranch:
		r.DisplayName = strings.TrimPrefix(name, localBranchPrefix)
	case r.IsRemoteBranch:
		r.DisplayName = strings.TrimPrefix(name, remoteBranchPrefix)
	}
	return r
}

// RemoteBranchName returns the remote-tracking ref name a local branch pairs with.
func RemoteBranchName(displayName string) string {
	return remoteBranchPrefix + displayName
}

func newRef(name string) *Ref {
	r := ClassifyRef(name)
	r.Color = randomColor()
	return &r
}

func randomColor() string {
	return fmt.Sprintf("#%02x%02x%02x", rand.IntN(256), rand.IntN(256), rand.IntN(256))
}

// sortRefs puts local branches first, the rest ordered by display name.
func sortRefs(refs []*Ref) {
	sort.SliceStable(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		if a.IsLocalBranch != b.IsLocalBranch {
			return a.IsLocalBranch
		}
		return a.DisplayName < b.DisplayName
	})
}
