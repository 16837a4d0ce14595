// Package selection narrows the day's candidates to the top three by asking
// the oracle to rank small groups, round after round.
package selection

import (
	"strings"

	"paper-digest/internal/domain/entity"
)

const (
	// DefaultMinGroups is the minimum number of groups per round.
	DefaultMinGroups = 4

	// groupTarget is the number of candidates the oracle ranks reliably in one prompt.
	groupTarget = 20
)

// Group is a contiguous run of candidates ranked in one oracle call.
type Group struct {
	Members []entity.Candidate
}

// Text renders the members as "<label>: <abstract>; " in order.
func (g Group) Text() string {
	var b strings.Builder
	for _, m := range g.Members {
		b.WriteString(m.Label())
		b.WriteString(": ")
		b.WriteString(m.Abstract)
		b.WriteString("; ")
	}
	return b.String()
}

// IDs returns the member identifiers as a set.
func (g Group) IDs() map[int]struct{} {
	ids := make(map[int]struct{}, len(g.Members))
	for _, m := range g.Members {
		ids[m.ID] = struct{}{}
	}
	return ids
}

// Partition splits candidates into max(minGroups, ceil(N/20)) near-equal
// groups, filled strictly in input order. The first N mod groupCount groups
// get one extra member. Groups that would be empty (groupCount > N) are
// omitted. minGroups below 1 is treated as 1.
func Partition(candidates []entity.Candidate, minGroups int) []Group {
	n := len(candidates)
	if n == 0 {
		return nil
	}
	if minGroups < 1 {
		minGroups = 1
	}

	groupsOf20 := n / groupTarget
	extraGroups := (n%groupTarget + groupTarget - 1) / groupTarget
	groupCount := max(minGroups, groupsOf20+extraGroups)

	groupSize := n / groupCount
	leftover := n % groupCount

	groups := make([]Group, 0, min(groupCount, n))
	start := 0
	for i := 0; i < groupCount; i++ {
		size := groupSize
		if i < leftover {
			size++
		}
		if size == 0 {
			break
		}
		groups = append(groups, Group{Members: candidates[start : start+size]})
		start += size
	}

	return groups
}
