package tidytree

// secondWalk turns preliminary positions and accumulated modifiers into
// absolute coordinates, top-down.
func (w *walker) secondWalk(v NodeID, modSum float64) {
	modSum += w.s[v].mod
	n := &w.t.nodes[v]
	n.x = w.s[v].prelim + modSum + n.w/2 - w.origin
	n.y = w.s[v].top
	// Staged spacing must land before the children read their modifiers.
	w.addChildSpacing(v)
	for _, c := range n.children {
		w.secondWalk(c, modSum)
	}
}

// addChildSpacing materializes the shift/change values staged by
// distributeExtra into the children's modifiers, left to right.
func (w *walker) addChildSpacing(v NodeID) {
	var d, modSumDelta float64
	for _, c := range w.t.nodes[v].children {
		s := &w.s[c]
		d += s.shift
		modSumDelta += d + s.change
		s.mod += modSumDelta
	}
}
