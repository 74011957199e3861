// Package graph turns a flat commit log into a laid-out commit DAG: ideological
// branch attribution, lane allocation, coordinates, day separators and the
// remote-sync classification of refs. It performs no I/O.
package graph

import (
	"sort"
	"sync"
	"time"
)

// MaxNodes bounds every traversal and the rendered node set.
const MaxNodes = 100

// Update is the result of one log fetch.
type Update struct {
	Commits      []CommitRecord
	ActiveBranch string
	HasRemotes   bool
}

// Graph owns the hash->node and name->ref tables and the layout computed from them.
// Refresh is the only writer; it holds the lock for the whole computation.
type Graph struct {
	mu sync.RWMutex

	nodesByID  map[string]*Node
	refsByName map[string]*Ref
	// refs are the refs named by the last laid-out fetch, in order of appearance.
	refs []*Ref

	nodes         []*Node
	daySeparators []DaySeparator
	laneCount     int

	head         *Node
	activeBranch string
	hasRemotes   bool

	generation uint64
	location   *time.Location
	now        func() time.Time
}

// Option configures a Graph.
type Option func(*Graph)

// WithLocation sets the time zone used to decide calendar days.
func WithLocation(loc *time.Location) Option {
	return func(g *Graph) {
		if loc != nil {
			g.location = loc
		}
	}
}

// WithClock overrides the clock used for relative date labels.
func WithClock(now func() time.Time) Option {
	return func(g *Graph) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodesByID:  make(map[string]*Node),
		refsByName: make(map[string]*Ref),
		location:   time.Local,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Refresh applies a complete log fetch: nodes and refs are looked up (or created)
// by key, refs are retargeted, and the layout passes run to completion.
// A fetch that carries no HEAD leaves every table and the previous layout untouched.
func (g *Graph) Refresh(u Update) {
	if !carriesHEAD(u.Commits) {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	nodes := make([]*Node, 0, len(u.Commits))
	seen := make(map[string]bool, len(u.Commits))
	seenRefs := make(map[*Ref]bool)
	var fetched []*Ref
	for _, rec := range u.Commits {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true

		node, ok := g.nodesByID[rec.ID]
		if !ok {
			node = newNode(rec)
			g.nodesByID[rec.ID] = node
		}
		nodes = append(nodes, node)

		refs := make([]*Ref, 0, len(rec.Refs))
		for _, name := range rec.Refs {
			ref, ok := g.refsByName[name]
			if !ok {
				ref = newRef(name)
				g.refsByName[name] = ref
			}
			if !seenRefs[ref] {
				seenRefs[ref] = true
				fetched = append(fetched, ref)
			}
			ref.Node = node
			refs = append(refs, ref)
		}
		sortRefs(refs)
		node.Refs = refs
	}

	head := findHEAD(nodes)
	if head == nil {
		return
	}
	g.head = head
	g.activeBranch = u.ActiveBranch
	g.hasRemotes = u.HasRemotes
	g.setNodes(nodes, fetched)
}

func carriesHEAD(records []CommitRecord) bool {
	for _, rec := range records {
		for _, name := range rec.Refs {
			if name == localHEADName {
				return true
			}
		}
	}
	return false
}

func findHEAD(nodes []*Node) *Node {
	for _, n := range nodes {
		if n.hasLocalHEAD() {
			return n
		}
	}
	return nil
}

func (g *Graph) setNodes(nodes []*Node, refs []*Ref) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].CommitTime.Unix() > nodes[j].CommitTime.Unix()
	})
	for i, n := range nodes {
		n.Index = i
	}
	if len(nodes) > MaxNodes {
		nodes = nodes[:MaxNodes]
	}

	g.generation++
	stamp := g.generation
	for _, n := range nodes {
		n.Branch = nil
	}
	for _, r := range refs {
		r.liveStamp = stamp
	}
	g.refs = refs

	g.markMainline(stamp)
	g.markIdeologicalBranches(nodes)
	g.pairRefs()

	// Staging and orphaned commits (no branch above them, not under HEAD) drop out.
	rendered := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Branch != nil || g.isMainline(n) {
			rendered = append(rendered, n)
		}
	}

	g.laneCount = g.allocateLanes(rendered, stamp)
	g.daySeparators = g.assignCoordinates(rendered, g.laneCount)
	g.nodes = rendered
}

// pairRefs links every local branch with refs/remotes/origin/<name> when both
// were in the last fetch. The remote adopts the local branch's color.
func (g *Graph) pairRefs() {
	for _, ref := range g.refs {
		ref.RemoteName, ref.LocalName = "", ""
	}
	for _, ref := range g.refs {
		if !ref.IsLocalBranch {
			continue
		}
		remote, ok := g.ref(RemoteBranchName(ref.DisplayName))
		if !ok {
			continue
		}
		ref.RemoteName = remote.Name
		remote.LocalName = ref.Name
		remote.Color = ref.Color
	}
}

// Node returns the node with the given hash, rendered or not. The node is shared
// with the graph and Refresh rewrites it in place, so it must not be read while a
// refresh may run. Concurrent readers use Layout.
func (g *Graph) Node(hash string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodesByID[hash]
	return n, ok
}

// Ref returns the ref with the given fully qualified name. Refs missing from the
// last laid-out fetch are not returned.
func (g *Graph) Ref(name string) (*Ref, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ref(name)
}

func (g *Graph) ref(name string) (*Ref, bool) {
	r, ok := g.refsByName[name]
	if !ok || r.liveStamp != g.generation {
		return nil, false
	}
	return r, true
}

// FindRef looks a ref up by display name, preferring local refs and branches over tags.
func (g *Graph) FindRef(displayName string) (*Ref, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var found *Ref
	for _, r := range g.refs {
		if r.DisplayName != displayName {
			continue
		}
		if found == nil || (r.IsLocal && !found.IsLocal) || (r.IsLocalBranch && !found.IsLocalBranch) {
			found = r
		}
	}
	return found, found != nil
}

// RemoteOf returns the remote-tracking ref paired with a local branch.
func (g *Graph) RemoteOf(ref *Ref) (*Ref, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.remoteOf(ref)
}

func (g *Graph) remoteOf(ref *Ref) (*Ref, bool) {
	if ref == nil || ref.RemoteName == "" {
		return nil, false
	}
	return g.ref(ref.RemoteName)
}

// Head returns the commit carrying the local HEAD ref.
func (g *Graph) Head() *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.head
}

// Nodes returns the rendered nodes, newest first. Like Node, it hands out the
// graph's own nodes; use Layout when a refresh may run concurrently.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Node(nil), g.nodes...)
}

// DaySeparators returns the separators of the last layout.
func (g *Graph) DaySeparators() []DaySeparator {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]DaySeparator(nil), g.daySeparators...)
}

// LaneCount returns the number of lanes the last layout used.
func (g *Graph) LaneCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.laneCount
}

// KnownNodes returns the size of the hash->node table. It never shrinks.
func (g *Graph) KnownNodes() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodesByID)
}
