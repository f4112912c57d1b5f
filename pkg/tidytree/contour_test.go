package tidytree

import "testing"

func TestUpdateLowest(t *testing.T) {
	// Bottoms of successive siblings and the (lowY, index) list expected
	// after each update, head first.
	type entry struct {
		lowY  float64
		index int
	}
	steps := []struct {
		minY float64
		want []entry
	}{
		{100, []entry{{100, 0}}},
		{40, []entry{{40, 1}, {100, 0}}},
		{60, []entry{{60, 2}, {100, 0}}},
		{60, []entry{{60, 3}, {100, 0}}},
		{250, []entry{{250, 4}}},
	}

	var head *lowest
	for i, s := range steps {
		head = updateLowest(s.minY, i, head)
		if got := head.len(); got != len(s.want) {
			t.Fatalf("step %d: len = %v, want %v", i, got, len(s.want))
		}
		l := head
		for j, w := range s.want {
			if l.lowY != w.lowY || l.index != w.index {
				t.Errorf("step %d entry %d = (%v, %v), want (%v, %v)", i, j, l.lowY, l.index, w.lowY, w.index)
			}
			l = l.next
		}
	}
}

func TestLowestLenNil(t *testing.T) {
	var l *lowest
	if got := l.len(); got != 0 {
		t.Errorf("len() = %v, want 0", got)
	}
}
