// Package autoref derives references from [id] mentions in thought content.
// Scanning is pure; the graph applies the resulting plan.
package autoref

import (
	"regexp"
	"sort"

	"thoughtgraph/domain/core/valueobjects"
)

var mentionPattern = regexp.MustCompile(`\[(` + valueobjects.IDPattern + `)\]`)

// ExtractMentions returns every [id] token in content whose id is a valid
// ThoughtID, de-duplicated in first-occurrence order.
func ExtractMentions(content string) []valueobjects.ThoughtID {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[valueobjects.ThoughtID]struct{}, len(matches))
	var mentions []valueobjects.ThoughtID
	for _, m := range matches {
		id := valueobjects.ThoughtID(m[1])
		if !valueobjects.IsValidThoughtID(string(id)) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		mentions = append(mentions, id)
	}
	return mentions
}

// SyncPlan is the set of auto edges to add and remove for one source thought.
// Both lists are sorted by target id.
type SyncPlan struct {
	Add    []valueobjects.ThoughtID
	Remove []valueobjects.ThoughtID
}

// IsEmpty reports whether applying the plan would change nothing
func (p SyncPlan) IsEmpty() bool {
	return len(p.Add) == 0 && len(p.Remove) == 0
}

// Exists reports whether a thought id is present in the store
type Exists func(valueobjects.ThoughtID) bool

// Plan computes the auto edge changes for self.
//
// currentAuto holds the targets of self's existing auto edges, manual the
// targets of its manual edges. Mentions of self, of unknown thoughts and of
// targets already carrying a manual edge produce nothing.
func Plan(
	self valueobjects.ThoughtID,
	mentions []valueobjects.ThoughtID,
	currentAuto map[valueobjects.ThoughtID]struct{},
	manual map[valueobjects.ThoughtID]struct{},
	exists Exists,
) SyncPlan {
	wanted := make(map[valueobjects.ThoughtID]struct{}, len(mentions))
	for _, id := range mentions {
		if id == self || !exists(id) {
			continue
		}
		if _, isManual := manual[id]; isManual {
			continue
		}
		wanted[id] = struct{}{}
	}

	var plan SyncPlan
	for id := range wanted {
		if _, ok := currentAuto[id]; !ok {
			plan.Add = append(plan.Add, id)
		}
	}
	for id := range currentAuto {
		if _, ok := wanted[id]; !ok {
			plan.Remove = append(plan.Remove, id)
		}
	}
	sortIDs(plan.Add)
	sortIDs(plan.Remove)
	return plan
}

func sortIDs(ids []valueobjects.ThoughtID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
