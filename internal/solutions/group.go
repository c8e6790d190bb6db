package solutions

import (
	"context"
	"fmt"

	"envdoctor/internal/doctor"
)

// Group lets one diagnosis carry several independent solutions. Its members
// are dependencies, so each still runs at most once and failures block only
// the group.
type Group struct {
	Label   string
	Members []doctor.Solution
}

func NewGroup(label string, members ...doctor.Solution) *Group {
	return &Group{Label: label, Members: members}
}

func (g *Group) Key() string {
	keys := make([]string, len(g.Members))
	for i, m := range g.Members {
		keys[i] = m.Key()
	}
	return doctor.SolutionKey("Group", g.Label, keys)
}

func (g *Group) Dependencies() []doctor.Solution {
	return g.Members
}

func (g *Group) Implement(_ context.Context, _ *doctor.SharedState, progress doctor.Progress) error {
	progress.ReportStatus(fmt.Sprintf("%s: %d solutions completed.", g.Label, len(g.Members)))
	return nil
}

// Combine returns nil for no solutions, the solution itself for one, and a
// Group otherwise.
func Combine(label string, members []doctor.Solution) doctor.Solution {
	switch len(members) {
	case 0:
		return nil
	case 1:
		return members[0]
	default:
		return NewGroup(label, members...)
	}
}
