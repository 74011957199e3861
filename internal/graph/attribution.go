package graph

// markMainline stamps HEAD and its ancestors for the current generation.
func (g *Graph) markMainline(stamp uint64) {
	g.walkAncestors(g.head, func(n *Node) {
		n.mainlineStamp = stamp
	})
}

func (g *Graph) isMainline(n *Node) bool {
	return n.mainlineStamp == g.generation
}

// markIdeologicalBranches attributes every ancestor of a branch tip to that tip's first
// branch ref. nodes must be newest-first, so an ancestor shared by several tips ends up
// with the oldest tip's branch. refs/heads/master is replayed last and always wins.
func (g *Graph) markIdeologicalBranches(nodes []*Node) {
	markBranch := func(tip *Node, branch *Ref) {
		g.walkAncestors(tip, func(n *Node) {
			n.Branch = branch
		})
	}

	var master *Node
	var masterRef *Ref
	for _, n := range nodes {
		branch := n.firstBranch()
		if branch == nil {
			continue
		}
		for _, r := range n.Refs {
			if r.Name == masterRefName {
				master, masterRef = n, r
			}
		}
		markBranch(n, branch)
	}
	if master != nil {
		markBranch(master, masterRef)
	}
}
