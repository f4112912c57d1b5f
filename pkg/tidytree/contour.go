package tidytree

// lowest is one entry of the sibling contour tracker: the bottom coordinate
// of the lowest node seen among the left siblings, tagged with the index of
// the sibling that owns it. Entries are ordered most recent (and lowest)
// first.
type lowest struct {
	lowY  float64
	index int
	next  *lowest
}

// updateLowest drops every entry hidden behind a sibling reaching down to
// minY and prepends (minY, index).
//
// Only the visible steps of the combined contour survive, which bounds the
// list length by the contour's step structure instead of the sibling count.
func updateLowest(minY float64, index int, head *lowest) *lowest {
	for head != nil && minY >= head.lowY {
		head = head.next
	}
	return &lowest{lowY: minY, index: index, next: head}
}

// len returns the number of entries reachable from l.
func (l *lowest) len() int {
	n := 0
	for ; l != nil; l = l.next {
		n++
	}
	return n
}
