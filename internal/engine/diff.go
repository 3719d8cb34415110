package engine

import (
	"sort"

	"github.com/desertthunder/mixsync/internal/models"
)

// OpKind distinguishes the two mutating operations the destination API offers.
// There is no reorder primitive: moving an item costs a remove plus an insert.
type OpKind int

const (
	OpRemove OpKind = iota
	OpInsert
)

func (k OpKind) String() string {
	if k == OpRemove {
		return "remove"
	}
	return "insert"
}

// Operation is a single mutating call against the destination playlist.
//
// Removals carry the playlist item ID (the destination removes by item, not
// position, so removals commute). Insertions carry the video ID and the
// position in the final sequence.
type Operation struct {
	Kind     OpKind
	VideoID  string
	ItemID   string // Set for removals only
	Position int    // Desired position, for insertions only
	Title    string // For logging and error messages
}

// Plan is the ordered operation sequence that transforms the current
// playlist into the desired one: all removals first, then insertions in
// ascending desired position.
type Plan struct {
	Ops     []Operation
	Anchors int // Shared items left untouched
}

// Removals returns how many remove operations the plan contains.
func (p Plan) Removals() int {
	n := 0
	for _, op := range p.Ops {
		if op.Kind == OpRemove {
			n++
		}
	}
	return n
}

// Insertions returns how many insert operations the plan contains.
func (p Plan) Insertions() int {
	return len(p.Ops) - p.Removals()
}

// Empty reports whether the playlists are already identical.
func (p Plan) Empty() bool {
	return len(p.Ops) == 0
}

// ComputePlan computes the minimal-cost operation sequence that turns the
// current playlist into the desired video ID order. Both sequences must be
// duplicate-free.
//
// Items of current that also appear in desired and already stand in the
// correct relative order are anchors and cost nothing. Anchors are found as
// the longest strictly increasing subsequence of desired positions, taken
// over current order. Everything else is removed (extra items, out-of-order
// shared items) and, where still wanted, re-inserted at its desired
// position. Cost is exactly (len(current)-anchors) + (len(desired)-anchors)
// mutating calls.
func ComputePlan(current []models.PlaylistItem, desired []string) Plan {
	desiredPos := make(map[string]int, len(desired))
	for i, id := range desired {
		desiredPos[id] = i
	}

	// Shared items in current order, mapped to their desired positions.
	type sharedItem struct {
		item models.PlaylistItem
		pos  int
	}
	var shared []sharedItem
	for _, item := range current {
		if pos, ok := desiredPos[item.VideoID]; ok {
			shared = append(shared, sharedItem{item: item, pos: pos})
		}
	}

	seq := make([]int, len(shared))
	for i, s := range shared {
		seq[i] = s.pos
	}
	anchorIdx := longestIncreasing(seq)

	anchored := make(map[string]bool, len(anchorIdx))
	for _, i := range anchorIdx {
		anchored[shared[i].item.VideoID] = true
	}

	plan := Plan{Anchors: len(anchorIdx)}

	// Removals: extras plus shared items outside the anchor set. Emitted in
	// current order, though any order would do.
	for _, item := range current {
		if _, ok := desiredPos[item.VideoID]; ok && anchored[item.VideoID] {
			continue
		}
		plan.Ops = append(plan.Ops, Operation{
			Kind:    OpRemove,
			VideoID: item.VideoID,
			ItemID:  item.ItemID,
			Title:   item.Title,
		})
	}

	// Insertions: everything desired that is not anchored, ascending by
	// desired position so each insert lands on a prefix that is already
	// final.
	currentTitles := make(map[string]string, len(current))
	for _, item := range current {
		currentTitles[item.VideoID] = item.Title
	}

	var inserts []Operation
	for pos, id := range desired {
		if anchored[id] {
			continue
		}
		inserts = append(inserts, Operation{
			Kind:     OpInsert,
			VideoID:  id,
			Position: pos,
			Title:    currentTitles[id],
		})
	}
	sort.Slice(inserts, func(i, j int) bool { return inserts[i].Position < inserts[j].Position })
	plan.Ops = append(plan.Ops, inserts...)

	return plan
}

// longestIncreasing returns the indices of a longest strictly increasing
// subsequence of seq, via patience sorting in O(n log n). Ties cannot occur
// because desired positions are unique; the leftmost-found subsequence is
// canonical.
func longestIncreasing(seq []int) []int {
	if len(seq) == 0 {
		return nil
	}

	// tails[l] is the index in seq of the smallest value ending an
	// increasing subsequence of length l+1.
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))

	for i, v := range seq {
		// Leftmost pile whose top is >= v.
		lo := sort.Search(len(tails), func(j int) bool { return seq[tails[j]] >= v })
		if lo > 0 {
			prev[i] = tails[lo-1]
		} else {
			prev[i] = -1
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}

	lis := make([]int, len(tails))
	for i, at := len(tails)-1, tails[len(tails)-1]; i >= 0; i-- {
		lis[i] = at
		at = prev[at]
	}
	return lis
}
