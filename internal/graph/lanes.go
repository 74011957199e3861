package graph

// laneTable hands out horizontal lanes to ideological branches. A freed slot would be
// reused before the table grows, but nothing frees slots during a pass yet, so the
// lane count only grows within one computation.
type laneTable struct {
	slots []*Ref
}

func (t *laneTable) acquire(branch *Ref) int {
	for i, occupant := range t.slots {
		if occupant == nil {
			t.slots[i] = branch
			return i
		}
	}
	t.slots = append(t.slots, branch)
	return len(t.slots) - 1
}

func (t *laneTable) len() int {
	return len(t.slots)
}

// allocateLanes walks the pruned list from the oldest commit up and binds each
// ideological branch to a lane the first time it shows up in this generation.
func (g *Graph) allocateLanes(nodes []*Node, stamp uint64) int {
	var lanes laneTable
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if g.isMainline(n) {
			n.Lane = -1
			continue
		}
		branch := n.Branch
		if branch.laneStamp != stamp {
			branch.laneStamp = stamp
			branch.lane = lanes.acquire(branch)
		}
		n.Lane = branch.lane
	}
	return lanes.len()
}
