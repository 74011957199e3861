package graph

// walkAncestors visits start and every commit reachable from it through parent links.
// Commits at or beyond MaxNodes in the current ordering are not visited and not
// descended into; parents missing from the table are skipped.
func (g *Graph) walkAncestors(start *Node, visit func(*Node)) {
	if start == nil {
		return
	}
	seen := make(map[*Node]bool)
	stack := []*Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] || n.Index >= MaxNodes {
			continue
		}
		seen[n] = true
		visit(n)
		for i := len(n.Parents) - 1; i >= 0; i-- {
			if p, ok := g.nodesByID[n.Parents[i]]; ok {
				stack = append(stack, p)
			}
		}
	}
}

// isAncestor reports whether ancestor is reachable from descendant (a commit counts
// as its own ancestor). The search stops at the node cap, so histories deeper than
// MaxNodes yield false negatives.
func (g *Graph) isAncestor(ancestor, descendant *Node) bool {
	if ancestor == nil || descendant == nil {
		return false
	}
	found := false
	g.walkAncestors(descendant, func(n *Node) {
		if n == ancestor {
			found = true
		}
	})
	return found
}

// IsAncestor reports whether ancestor is reachable from descendant via parent links,
// within the node cap. Both nodes come from Node or Nodes and the same caveat
// applies: the answer is only meaningful between refreshes.
func (g *Graph) IsAncestor(ancestor, descendant *Node) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.isAncestor(ancestor, descendant)
}

func (g *Graph) pathToCommonAncestor(from, target *Node) ([]*Node, bool) {
	var path []*Node
	current := from
	for current != nil {
		if g.isAncestor(current, target) {
			return append(path, current), true
		}
		path = append(path, current)
		if len(current.Parents) == 0 {
			break
		}
		current = g.nodesByID[current.Parents[0]]
	}
	return path, false
}

// PathToCommonAncestor follows first parents from `from` until it reaches a commit that
// is an ancestor of target, returning the visited commits including that terminal one.
// It is a first-parent walk, not a merge-base search. The boolean is false when the
// chain runs out before meeting target's history.
func (g *Graph) PathToCommonAncestor(from, target *Node) ([]*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pathToCommonAncestor(from, target)
}
