package tidytree

// scratch is the transient per-node state of one layout pass. It is
// allocated fresh for every call to [Layout] and discarded afterwards.
type scratch struct {
	prelim float64 // preliminary left edge relative to the parent's subtree
	mod    float64 // displacement applied to the whole subtree when descending
	shift  float64 // staged spacing for intermediate siblings
	change float64

	threadLeft   NodeID
	threadRight  NodeID
	extremeLeft  NodeID // deepest node of the left contour
	extremeRight NodeID // deepest node of the right contour
	modSumLeft   float64
	modSumRight  float64

	top float64 // row top, known before the first walk
}

type walker struct {
	t      *Tree
	cfg    Config
	s      []scratch
	origin float64
	stats  Stats
}

func newWalker(t *Tree, cfg Config) *walker {
	w := &walker{t: t, cfg: cfg, s: make([]scratch, len(t.nodes))}
	for i := range w.s {
		s := &w.s[i]
		s.threadLeft, s.threadRight = None, None
		s.extremeLeft, s.extremeRight = None, None
		// Parents precede their children in the arena.
		if p := t.nodes[i].parent; p != None {
			s.top = w.s[p].top + cfg.RowSpacing
		}
	}
	w.stats.Nodes = len(t.nodes)
	return w
}

// bottom is the lower edge of v on the contour. Boxes are clipped to their
// row band so bottoms grow strictly with depth and every row is compared,
// even when a box is taller than RowSpacing.
func (w *walker) bottom(v NodeID) float64 {
	return w.s[v].top + min(max(w.t.nodes[v].h, 0), w.cfg.RowSpacing)
}

// firstWalk computes preliminary positions bottom-up.
func (w *walker) firstWalk(v NodeID) {
	cs := w.t.nodes[v].children
	if len(cs) == 0 {
		w.setExtremes(v)
		return
	}
	w.firstWalk(cs[0])
	ih := updateLowest(w.bottom(w.s[cs[0]].extremeLeft), 0, nil)
	for i := 1; i < len(cs); i++ {
		w.firstWalk(cs[i])
		// Read before separate, which may rethread the extremes of cs[i].
		minY := w.bottom(w.s[cs[i]].extremeRight)
		w.separate(v, i, ih)
		ih = updateLowest(minY, i, ih)
	}
	w.positionRoot(v)
	w.setExtremes(v)
}

func (w *walker) setExtremes(v NodeID) {
	s := &w.s[v]
	cs := w.t.nodes[v].children
	if len(cs) == 0 {
		s.extremeLeft, s.extremeRight = v, v
		s.modSumLeft, s.modSumRight = 0, 0
		return
	}
	first, last := &w.s[cs[0]], &w.s[cs[len(cs)-1]]
	s.extremeLeft, s.modSumLeft = first.extremeLeft, first.modSumLeft
	s.extremeRight, s.modSumRight = last.extremeRight, last.modSumRight
}

// separate pushes child i of v right until it clears the right contour of
// its left siblings by at least ColumnSpacing on every shared row.
func (w *walker) separate(v NodeID, i int, ih *lowest) {
	cs := w.t.nodes[v].children

	// Right contour of the left siblings and its modifier sum.
	sr := cs[i-1]
	modSumSR := w.s[sr].mod
	// Left contour of the current subtree and its modifier sum.
	cl := cs[i]
	modSumCL := w.s[cl].mod

	for sr != None && cl != None {
		w.stats.ContourSteps++
		if w.bottom(sr) > ih.lowY && ih.next != nil {
			ih = ih.next
		}

		dist := modSumSR + w.s[sr].prelim + w.t.nodes[sr].w + w.cfg.ColumnSpacing -
			(modSumCL + w.s[cl].prelim)
		if dist > 0 {
			modSumCL += dist
			w.moveSubtree(v, i, ih.index, dist)
		}

		srY, clY := w.bottom(sr), w.bottom(cl)
		if srY <= clY {
			sr = w.nextRightContour(sr)
			if sr != None {
				modSumSR += w.s[sr].mod
			}
		}
		if srY >= clY {
			cl = w.nextLeftContour(cl)
			if cl != None {
				modSumCL += w.s[cl].mod
			}
		}
	}

	switch {
	case sr == None && cl != None:
		// Current subtree is taller than the left siblings.
		w.setLeftThread(v, i, cl, modSumCL)
	case sr != None && cl == None:
		// Left siblings are taller than the current subtree.
		w.setRightThread(v, i, sr, modSumSR)
	}
}

func (w *walker) moveSubtree(v NodeID, i, source int, dist float64) {
	c := &w.s[w.t.nodes[v].children[i]]
	c.mod += dist
	c.modSumLeft += dist
	c.modSumRight += dist
	w.distributeExtra(v, i, source, dist)
}

// distributeExtra spreads dist over the siblings between source and i so the
// gaps grow evenly instead of all slack landing next to i.
func (w *walker) distributeExtra(v NodeID, i, source int, dist float64) {
	if source == i-1 {
		return
	}
	cs := w.t.nodes[v].children
	n := float64(i - source)
	w.s[cs[source+1]].shift += dist / n
	w.s[cs[i]].shift -= dist / n
	w.s[cs[i]].change -= dist - dist/n
}

func (w *walker) nextLeftContour(v NodeID) NodeID {
	if cs := w.t.nodes[v].children; len(cs) > 0 {
		return cs[0]
	}
	return w.s[v].threadLeft
}

func (w *walker) nextRightContour(v NodeID) NodeID {
	if cs := w.t.nodes[v].children; len(cs) > 0 {
		return cs[len(cs)-1]
	}
	return w.s[v].threadRight
}

func (w *walker) setLeftThread(v NodeID, i int, cl NodeID, modSumCL float64) {
	cs := w.t.nodes[v].children
	first, cur := &w.s[cs[0]], &w.s[cs[i]]

	li := first.extremeLeft
	w.s[li].threadLeft = cl
	// Keep the modifier sum along the thread equal to modSumCL without
	// moving li itself.
	diff := (modSumCL - w.s[cl].mod) - first.modSumLeft
	w.s[li].mod += diff
	w.s[li].prelim -= diff

	first.extremeLeft, first.modSumLeft = cur.extremeLeft, cur.modSumLeft
	w.stats.Threads++
}

func (w *walker) setRightThread(v NodeID, i int, sr NodeID, modSumSR float64) {
	cs := w.t.nodes[v].children
	prev, cur := &w.s[cs[i-1]], &w.s[cs[i]]

	ri := cur.extremeRight
	w.s[ri].threadRight = sr
	diff := (modSumSR - w.s[sr].mod) - cur.modSumRight
	w.s[ri].mod += diff
	w.s[ri].prelim -= diff

	cur.extremeRight, cur.modSumRight = prev.extremeRight, prev.modSumRight
	w.stats.Threads++
}

// positionRoot centers v over the span from the left edge of its first child
// to the right edge of its last child.
func (w *walker) positionRoot(v NodeID) {
	cs := w.t.nodes[v].children
	first, last := cs[0], cs[len(cs)-1]
	left := w.s[first].prelim + w.s[first].mod
	right := w.s[last].prelim + w.s[last].mod + w.t.nodes[last].w
	w.s[v].prelim = (left+right)/2 - w.t.nodes[v].w/2
}
