package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(t *testing.T, g *Graph, hash string) *Node {
	t.Helper()
	n, ok := g.Node(hash)
	require.True(t, ok, "node %s not found", hash)
	return n
}

func TestIsAncestor_Linear(t *testing.T) {
	g := newTestGraph()
	g.Refresh(Update{Commits: linearHistory(3)})

	c0, c1, c2 := node(t, g, "c0"), node(t, g, "c1"), node(t, g, "c2")

	assert.True(t, g.IsAncestor(c0, c2))
	assert.True(t, g.IsAncestor(c1, c2))
	assert.False(t, g.IsAncestor(c2, c0))
	assert.True(t, g.IsAncestor(c1, c1), "a commit is its own ancestor")
	assert.False(t, g.IsAncestor(nil, c1))
}

func TestIsAncestor_Merge(t *testing.T) {
	g := newTestGraph()
	g.Refresh(Update{Commits: []CommitRecord{
		commit("base", 0, nil),
		commit("left", 1, parents("base")),
		commit("right", 2, parents("base")),
		commit("merge", 3, parents("left", "right"), "HEAD", "refs/heads/main"),
	}})

	merge := node(t, g, "merge")
	assert.True(t, g.IsAncestor(node(t, g, "right"), merge))
	assert.True(t, g.IsAncestor(node(t, g, "left"), merge))
	assert.False(t, g.IsAncestor(node(t, g, "left"), node(t, g, "right")))
}

func TestIsAncestor_Transitive(t *testing.T) {
	tests := []struct {
		name    string
		commits []CommitRecord
	}{
		{
			name: "criss-cross merges",
			commits: []CommitRecord{
				commit("r", 0, nil),
				commit("x", 1, parents("r")),
				commit("y", 2, parents("r")),
				commit("m1", 3, parents("x", "y")),
				commit("m2", 4, parents("y", "x")),
				commit("z", 5, parents("m1", "m2"), "HEAD", "refs/heads/main"),
			},
		},
		{
			name: "octopus over a side branch",
			commits: []CommitRecord{
				commit("r", 0, nil),
				commit("a", 1, parents("r")),
				commit("b", 2, parents("a")),
				commit("c", 3, parents("r")),
				commit("d", 4, parents("r")),
				commit("o", 5, parents("b", "c", "d"), "HEAD", "refs/heads/main"),
				commit("s", 6, parents("c"), "refs/heads/side"),
			},
		},
		{
			name:    "beyond the node cap",
			commits: linearHistory(MaxNodes + 5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph()
			g.Refresh(Update{Commits: tt.commits})

			nodes := make([]*Node, 0, len(tt.commits))
			for _, rec := range tt.commits {
				nodes = append(nodes, node(t, g, rec.ID))
			}
			reach := make([][]bool, len(nodes))
			for i, a := range nodes {
				reach[i] = make([]bool, len(nodes))
				for j, b := range nodes {
					reach[i][j] = g.IsAncestor(a, b)
				}
				if a.Index < MaxNodes {
					assert.True(t, reach[i][i], a.Hash)
				}
			}
			for i := range nodes {
				for j := range nodes {
					if !reach[i][j] {
						continue
					}
					for k := range nodes {
						if reach[j][k] {
							assert.True(t, reach[i][k], "%s <= %s <= %s", nodes[i].Hash, nodes[j].Hash, nodes[k].Hash)
						}
					}
				}
			}
		})
	}
}

func TestIsAncestor_MergeDAG(t *testing.T) {
	g := newTestGraph()
	g.Refresh(Update{Commits: []CommitRecord{
		commit("r", 0, nil),
		commit("x", 1, parents("r")),
		commit("y", 2, parents("r")),
		commit("m", 3, parents("x", "y")),
		commit("z", 4, parents("m"), "HEAD", "refs/heads/main"),
	}})

	tests := []struct {
		ancestor, descendant string
		want                 bool
	}{
		{"r", "z", true},
		{"y", "z", true},
		{"x", "m", true},
		{"x", "y", false},
		{"y", "x", false},
		{"z", "r", false},
		{"m", "x", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.IsAncestor(node(t, g, tt.ancestor), node(t, g, tt.descendant)),
			"%s ancestor of %s", tt.ancestor, tt.descendant)
	}
}

func TestIsAncestor_StopsAtNodeCap(t *testing.T) {
	g := newTestGraph()
	g.Refresh(Update{Commits: linearHistory(MaxNodes + 50)})

	tip := node(t, g, "c149")
	oldest := node(t, g, "c0")
	withinCap := node(t, g, "c50")

	assert.Equal(t, 0, tip.Index)
	assert.Equal(t, 149, oldest.Index)
	assert.False(t, g.IsAncestor(oldest, tip), "commits past the cap are not reachable")
	assert.True(t, g.IsAncestor(withinCap, tip))
}

func TestPathToCommonAncestor(t *testing.T) {
	g := newTestGraph()
	g.Refresh(Update{Commits: []CommitRecord{
		commit("a", 0, nil),
		commit("b", 1, parents("a")),
		commit("local", 2, parents("b"), "HEAD", "refs/heads/main"),
		commit("remote", 3, parents("b"), "refs/remotes/origin/main"),
	}})

	path, ok := g.PathToCommonAncestor(node(t, g, "local"), node(t, g, "remote"))
	require.True(t, ok)
	require.Len(t, path, 2)
	assert.Equal(t, "local", path[0].Hash)
	assert.Equal(t, "b", path[1].Hash)

	path, ok = g.PathToCommonAncestor(node(t, g, "b"), node(t, g, "remote"))
	require.True(t, ok)
	require.Len(t, path, 1)
	assert.Equal(t, "b", path[0].Hash)
}

func TestPathToCommonAncestor_Unrelated(t *testing.T) {
	g := newTestGraph()
	g.Refresh(Update{Commits: []CommitRecord{
		commit("a", 0, nil, "HEAD", "refs/heads/main"),
		commit("orphan", 1, nil, "refs/heads/gh-pages"),
	}})

	path, ok := g.PathToCommonAncestor(node(t, g, "orphan"), node(t, g, "a"))
	assert.False(t, ok)
	assert.Len(t, path, 1)
}
