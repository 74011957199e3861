package graph

import (
	"strings"
	"time"
)

// Size is the role class of a rendered node.
type Size string

const (
	SizeLarge Size = "large"
	SizeSmall Size = "small"
)

// CommitRecord is one entry of a log fetch, as produced by the data-fetch side.
type CommitRecord struct {
	ID          string    `json:"sha1"`
	Parents     []string  `json:"parents"`
	CommitTime  time.Time `json:"commitDate"`
	AuthorTime  time.Time `json:"authorDate"`
	AuthorName  string    `json:"authorName"`
	AuthorEmail string    `json:"authorEmail"`
	Message     string    `json:"message"`
	Refs        []string  `json:"refs,omitempty"`
}

// Node is a commit known to the graph. Nodes are reused by hash across refreshes;
// everything below Body is recomputed on every refresh.
type Node struct {
	Hash        string
	Parents     []string
	CommitTime  time.Time
	AuthorTime  time.Time
	AuthorName  string
	AuthorEmail string
	Message     string
	Title       string
	Body        string

	Index int
	Refs  []*Ref

	// Branch is the ideological branch the commit is attributed to, nil when none.
	Branch *Ref

	// Lane is -1 for mainline commits.
	Lane          int
	X             int
	Y             int
	Radius        int
	Size          Size
	LogBoxVisible bool

	mainlineStamp uint64
}

func newNode(rec CommitRecord) *Node {
	lines := strings.Split(rec.Message, "\n")
	body := ""
	if len(lines) > 2 {
		body = strings.Join(lines[2:], "\n")
	}
	return &Node{
		Hash:        rec.ID,
		Parents:     append([]string(nil), rec.Parents...),
		CommitTime:  rec.CommitTime,
		AuthorTime:  rec.AuthorTime,
		AuthorName:  rec.AuthorName,
		AuthorEmail: rec.AuthorEmail,
		Message:     rec.Message,
		Title:       lines[0],
		Body:        body,
		Lane:        -1,
		Radius:      largeRadius,
		Size:        SizeLarge,
	}
}

// Branches returns the branch-class refs pointing at the node.
func (n *Node) Branches() []*Ref {
	var out []*Ref
	for _, r := range n.Refs {
		if r.IsBranch {
			out = append(out, r)
		}
	}
	return out
}

// Tags returns the tag refs pointing at the node.
func (n *Node) Tags() []*Ref {
	var out []*Ref
	for _, r := range n.Refs {
		if r.IsTag {
			out = append(out, r)
		}
	}
	return out
}

func (n *Node) firstBranch() *Ref {
	for _, r := range n.Refs {
		if r.IsBranch {
			return r
		}
	}
	return nil
}

func (n *Node) hasLocalHEAD() bool {
	for _, r := range n.Refs {
		if r.IsLocalHEAD {
			return true
		}
	}
	return false
}
