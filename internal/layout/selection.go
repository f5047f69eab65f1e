package layout

import "sort"

// Marquee is the rubber-band rectangle drawn while drag-selecting.  Start is
// where the pointer went down and End follows the pointer.
type Marquee struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Rect returns the marquee with its corners normalized.
func (m Marquee) Rect() Rect { return rectFromCorners(m.Start, m.End) }

// SelectionSet is a set of table ids.
type SelectionSet map[uint64]struct{}

// NewSelectionSet builds a set from ids.
func NewSelectionSet(ids ...uint64) SelectionSet {
	s := make(SelectionSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is selected.
func (s SelectionSet) Has(id uint64) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the selected ids in ascending order.
func (s SelectionSet) IDs() []uint64 {
	out := make([]uint64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SelectInRect returns the set of tables whose rectangles intersect r.
func (m Metrics) SelectInRect(tables []Table, r Rect) SelectionSet {
	s := SelectionSet{}
	for _, t := range tables {
		if m.RectOf(t).Intersects(r) {
			s[t.ID] = struct{}{}
		}
	}
	return s
}

// selector is the Idle/Marqueeing state machine.  A nil marquee means Idle.
type selector struct {
	marquee  *Marquee
	selected SelectionSet
}

// begin handles a pointer-down on empty canvas: the press doubles as a
// background click, so the previous selection is dropped before the new
// marquee starts.
func (s *selector) begin(p Point) {
	s.selected = SelectionSet{}
	s.marquee = &Marquee{Start: p, End: p}
}

func (s *selector) active() bool { return s.marquee != nil }

// update moves the marquee's free corner and replaces the selection with
// every table under the marquee.
func (s *selector) update(p Point, m Metrics, tables []Table) {
	if s.marquee == nil {
		return
	}
	s.marquee.End = p
	s.selected = m.SelectInRect(tables, s.marquee.Rect())
}

// end discards the marquee and keeps whatever it selected last.
func (s *selector) end() { s.marquee = nil }

func (s *selector) clear() {
	s.selected = SelectionSet{}
	s.marquee = nil
}
