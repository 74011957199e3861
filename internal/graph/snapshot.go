package graph

import (
	"fmt"
	"math"
	"time"
)

// Layout is the render-ready view of the graph after the last refresh.
type Layout struct {
	Nodes         []NodeView     `json:"nodes"`
	Refs          []RefView      `json:"refs"`
	DaySeparators []DaySeparator `json:"daySeparators"`
	LaneCount     int            `json:"laneCount"`
	Head          string         `json:"head,omitempty"`
	ActiveBranch  string         `json:"activeBranch,omitempty"`
	HasRemotes    bool           `json:"hasRemotes"`
}

type NodeView struct {
	Hash            string    `json:"sha1"`
	Parents         []string  `json:"parents"`
	Title           string    `json:"title"`
	Body            string    `json:"body,omitempty"`
	AuthorName      string    `json:"authorName"`
	AuthorEmail     string    `json:"authorEmail"`
	AuthorDate      time.Time `json:"authorDate"`
	AuthorDateLabel string    `json:"authorDateLabel"`
	CommitDate      time.Time `json:"commitDate"`
	Index           int       `json:"index"`
	Lane            int       `json:"lane"`
	X               int       `json:"x"`
	Y               int       `json:"y"`
	Radius          int       `json:"radius"`
	Size            Size      `json:"size"`
	LogBoxVisible   bool      `json:"logBoxVisible"`
	Mainline        bool      `json:"mainline"`
	Branch          string    `json:"branch,omitempty"`
	Refs            []string  `json:"refs,omitempty"`
}

type RefView struct {
	Name           string      `json:"name"`
	DisplayName    string      `json:"displayName"`
	Color          string      `json:"color"`
	Target         string      `json:"target,omitempty"`
	IsLocalTag     bool        `json:"isLocalTag"`
	IsTag          bool        `json:"isTag"`
	IsLocalHEAD    bool        `json:"isLocalHEAD"`
	IsRemoteHEAD   bool        `json:"isRemoteHEAD"`
	IsHEAD         bool        `json:"isHEAD"`
	IsLocalBranch  bool        `json:"isLocalBranch"`
	IsRemoteBranch bool        `json:"isRemoteBranch"`
	IsBranch       bool        `json:"isBranch"`
	IsLocal        bool        `json:"isLocal"`
	IsRemote       bool        `json:"isRemote"`
	RemoteRef      string      `json:"remoteRef,omitempty"`
	LocalRef       string      `json:"localRef,omitempty"`
	Current        bool        `json:"current"`
	CanBePushed    bool        `json:"canBePushed"`
	Actions        SyncActions `json:"actions"`
}

// Layout copies the last computed layout. Relative date labels are computed here,
// at read time, and never feed back into the graph.
func (g *Graph) Layout() *Layout {
	g.mu.RLock()
	defer g.mu.RUnlock()

	now := g.now()
	out := &Layout{
		Nodes:         make([]NodeView, 0, len(g.nodes)),
		Refs:          make([]RefView, 0, len(g.refs)),
		DaySeparators: append([]DaySeparator{}, g.daySeparators...),
		LaneCount:     g.laneCount,
		ActiveBranch:  g.activeBranch,
		HasRemotes:    g.hasRemotes,
	}
	if g.head != nil {
		out.Head = g.head.Hash
	}

	for _, n := range g.nodes {
		v := NodeView{
			Hash:            n.Hash,
			Parents:         n.Parents,
			Title:           n.Title,
			Body:            n.Body,
			AuthorName:      n.AuthorName,
			AuthorEmail:     n.AuthorEmail,
			AuthorDate:      n.AuthorTime,
			AuthorDateLabel: RelativeTime(n.AuthorTime, now),
			CommitDate:      n.CommitTime,
			Index:           n.Index,
			Lane:            n.Lane,
			X:               n.X,
			Y:               n.Y,
			Radius:          n.Radius,
			Size:            n.Size,
			LogBoxVisible:   n.LogBoxVisible,
			Mainline:        g.isMainline(n),
		}
		if n.Branch != nil {
			v.Branch = n.Branch.Name
		}
		for _, r := range n.Refs {
			v.Refs = append(v.Refs, r.Name)
		}
		out.Nodes = append(out.Nodes, v)
	}

	for _, r := range g.refs {
		v := RefView{
			Name:           r.Name,
			DisplayName:    r.DisplayName,
			Color:          r.Color,
			IsLocalTag:     r.IsLocalTag,
			IsTag:          r.IsTag,
			IsLocalHEAD:    r.IsLocalHEAD,
			IsRemoteHEAD:   r.IsRemoteHEAD,
			IsHEAD:         r.IsHEAD,
			IsLocalBranch:  r.IsLocalBranch,
			IsRemoteBranch: r.IsRemoteBranch,
			IsBranch:       r.IsBranch,
			IsLocal:        r.IsLocal,
			IsRemote:       r.IsRemote,
			RemoteRef:      r.RemoteName,
			LocalRef:       r.LocalName,
			Current:        g.isCurrent(r),
			CanBePushed:    r.IsLocal && g.hasRemotes,
			Actions:        g.syncActions(r),
		}
		if r.Node != nil {
			v.Target = r.Node.Hash
		}
		out.Refs = append(out.Refs, v)
	}
	return out
}

// RelativeTime renders t relative to now ("3 minutes ago", "in 2 days").
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	future := d < 0
	if future {
		d = -d
	}

	seconds := d.Seconds()
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	var s string
	switch {
	case seconds < 45:
		s = "a few seconds"
	case seconds < 90:
		s = "a minute"
	case minutes < 45:
		s = fmt.Sprintf("%d minutes", round(minutes))
	case minutes < 90:
		s = "an hour"
	case hours < 22:
		s = fmt.Sprintf("%d hours", round(hours))
	case hours < 36:
		s = "a day"
	case days < 26:
		s = fmt.Sprintf("%d days", round(days))
	case days < 45:
		s = "a month"
	case days < 320:
		s = fmt.Sprintf("%d months", round(days/30.4))
	case days < 548:
		s = "a year"
	default:
		s = fmt.Sprintf("%d years", round(days/365.25))
	}

	if future {
		return "in " + s
	}
	return s + " ago"
}

func round(f float64) int {
	return int(math.Round(f))
}
