package graph

import "time"

const (
	topOffset  = 30 // room for the HEAD marker above the first commit
	leftMargin = 30
	laneWidth  = 90

	firstStep    = 90
	mainlineStep = 120
	laneStep     = 60

	largeRadius = 30
	smallRadius = 15

	dateLabelLayout = "Jan 2, 2006"
)

// DaySeparator marks a calendar-day boundary between two vertically adjacent commits.
type DaySeparator struct {
	Y    int    `json:"y"`
	Date string `json:"date"`
}

// assignCoordinates positions the pruned newest-first node list and returns the
// day separators between commits made on different calendar days.
func (g *Graph) assignCoordinates(nodes []*Node, laneCount int) []DaySeparator {
	var separators []DaySeparator
	y := topOffset

	var prev *Node
	for _, n := range nodes {
		if g.isMainline(n) {
			switch {
			case prev == nil:
				y += firstStep
			case g.isMainline(prev):
				y += mainlineStep
			default:
				y += laneStep
			}
			n.X = leftMargin
			n.Radius = largeRadius
			n.Size = SizeLarge
			n.LogBoxVisible = true
		} else {
			y += laneStep
			n.X = leftMargin + laneWidth*(laneCount-n.Lane)
			n.Radius = smallRadius
			n.Size = SizeSmall
			n.LogBoxVisible = false
		}
		n.Y = y

		if prev != nil && !sameDay(prev.CommitTime, n.CommitTime, g.location) {
			separators = append(separators, DaySeparator{
				Y:    n.Y,
				Date: n.CommitTime.In(g.location).Format(dateLabelLayout),
			})
		}
		prev = n
	}
	return separators
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
