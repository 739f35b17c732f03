package glycan

import (
	"sort"
	"strings"
)

// BoxTieTolerance bounds mass ties when walking back to the first box
// of an exact binary-search hit.
const BoxTieTolerance = 1e-8

// ModBox is a multiset of glycan units: one hypothesis for the total
// attached modification mass. Boxes are built once and shared read-only.
type ModBox struct {
	ID           int
	ModIDs       []int
	ModCount     int
	Mass         float64
	Kind         []int
	Motifs       []string
	NGlycanCount int
	Children     []*ModBox
}

// NewModBox sums the units named by ids. ModIDs is a sorted copy; ids is
// left untouched.
func NewModBox(ids []int, units []*Glycan) *ModBox {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	box := &ModBox{
		ModIDs:   sorted,
		ModCount: len(sorted),
		Kind:     make([]int, NumKinds),
		Motifs:   make([]string, 0, len(sorted)),
	}
	for _, id := range sorted {
		u := units[id]
		box.Mass += u.Mass
		for k, c := range u.Kind {
			box.Kind[k] += c
		}
		box.Motifs = append(box.Motifs, u.Motif)
		if u.Motif == MotifN {
			box.NGlycanCount++
		}
	}
	return box
}

// Composition renders the summed kind vector, e.g. "H2N3".
func (b *ModBox) Composition() string {
	return CompositionString(b.Kind)
}

// UnitCompositions lists the unit compositions joined by "+".
func (b *ModBox) UnitCompositions(units []*Glycan) string {
	parts := make([]string, len(b.ModIDs))
	for i, id := range b.ModIDs {
		parts[i] = units[id].Composition
	}
	return strings.Join(parts, "+")
}

// BuildBoxes enumerates every multiset of 1..maxCount units, attaches child
// boxes and returns the boxes sorted by mass with ID equal to their index.
func BuildBoxes(maxCount int, units []*Glycan) []*ModBox {
	var boxes []*ModBox
	combo := make([]int, 0, maxCount)

	var extend func(start int)
	extend = func(start int) {
		if len(combo) > 0 {
			boxes = append(boxes, NewModBox(combo, units))
		}
		if len(combo) == maxCount {
			return
		}
		for id := start; id < len(units); id++ {
			combo = append(combo, id)
			extend(id)
			combo = combo[:len(combo)-1]
		}
	}
	extend(0)

	sort.SliceStable(boxes, func(i, j int) bool { return boxes[i].Mass < boxes[j].Mass })
	for i, b := range boxes {
		b.ID = i
		b.Children = BuildChildBoxes(b.ModIDs, units)
	}
	return boxes
}

// BuildChildBoxes returns every distinct sub-multiset of ids, ordered by
// size and then lexicographically. The first child is the empty box and the
// last one is the full box.
func BuildChildBoxes(ids []int, units []*Glycan) []*ModBox {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	var distinct, counts []int
	for _, id := range sorted {
		if n := len(distinct); n > 0 && distinct[n-1] == id {
			counts[n-1]++
			continue
		}
		distinct = append(distinct, id)
		counts = append(counts, 1)
	}

	var subsets [][]int
	take := make([]int, len(distinct))
	var walk func(pos int)
	walk = func(pos int) {
		if pos == len(distinct) {
			var sub []int
			for i, n := range take {
				for c := 0; c < n; c++ {
					sub = append(sub, distinct[i])
				}
			}
			subsets = append(subsets, sub)
			return
		}
		for n := 0; n <= counts[pos]; n++ {
			take[pos] = n
			walk(pos + 1)
		}
	}
	walk(0)

	sort.SliceStable(subsets, func(i, j int) bool {
		a, b := subsets[i], subsets[j]
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})

	children := make([]*ModBox, len(subsets))
	for i, sub := range subsets {
		children[i] = NewModBox(sub, units)
		children[i].ID = i
	}
	return children
}

// BinarySearchIndex returns the first index whose mass is >= target. An
// exact hit walks back over neighbours within BoxTieTolerance.
func BinarySearchIndex(masses []float64, target float64) int {
	i := sort.SearchFloat64s(masses, target)
	if i < len(masses) && masses[i] == target {
		for i > 0 && masses[i-1] >= target-BoxTieTolerance {
			i--
		}
	}
	return i
}

// MultisetContains reports whether every element of sub occurs in set at
// least as often as in sub.
func MultisetContains(set, sub []int) bool {
	if len(sub) > len(set) {
		return false
	}
	counts := make(map[int]int, len(set))
	for _, v := range set {
		counts[v]++
	}
	for _, v := range sub {
		if counts[v] == 0 {
			return false
		}
		counts[v]--
	}
	return true
}

// MultisetLeft removes sub from set once per occurrence and returns what is
// left in the order of set.
func MultisetLeft(set, sub []int) []int {
	remove := make(map[int]int, len(sub))
	for _, v := range sub {
		remove[v]++
	}
	left := make([]int, 0, len(set))
	for _, v := range set {
		if remove[v] > 0 {
			remove[v]--
			continue
		}
		left = append(left, v)
	}
	return left
}

// MotifsContain is MultisetContains over motif strings.
func MotifsContain(set, sub []string) bool {
	if len(sub) > len(set) {
		return false
	}
	counts := make(map[string]int, len(set))
	for _, v := range set {
		counts[v]++
	}
	for _, v := range sub {
		if counts[v] == 0 {
			return false
		}
		counts[v]--
	}
	return true
}

// MotifsLeft is MultisetLeft over motif strings.
func MotifsLeft(set, sub []string) []string {
	remove := make(map[string]int, len(sub))
	for _, v := range sub {
		remove[v]++
	}
	left := make([]string, 0, len(set))
	for _, v := range set {
		if remove[v] > 0 {
			remove[v]--
			continue
		}
		left = append(left, v)
	}
	return left
}
