package layout

// Clamp keeps a w×h rectangle whose top-left corner is p inside b.  Each axis
// is clamped on its own to [0, bound-size]; when the rectangle is larger than
// the canvas the coordinate is pinned to 0.
func Clamp(p Point, w, h float64, b Bounds) Point {
	return Point{
		X: max(0, min(p.X, b.Width-w)),
		Y: max(0, min(p.Y, b.Height-h)),
	}
}

// ClampTable clamps the proposed top-left corner of t to the canvas.
func (m Metrics) ClampTable(t Table, p Point, b Bounds) Point {
	w, h := m.Size(t)
	return Clamp(p, w, h, b)
}

// ResolvePosition moves t to proposed and corrects the result so that it stays
// on the canvas and clears the other tables.
//
// The proposal is clamped first.  Every other table is then checked once, in
// slice order.  When the current candidate overlaps a table, the candidate is
// pushed off that table along the shortest of the four axis moves, leaving
// Margin units of space, and clamped again.  A push is never re-checked
// against tables visited earlier, so dense layouts may end up with a residual
// overlap.  Entries in others with t's ID are ignored.
func (m Metrics) ResolvePosition(t Table, proposed Point, others []Table, b Bounds) Point {
	w, h := m.Size(t)
	pos := Clamp(proposed, w, h, b)
	for _, o := range others {
		if o.ID == t.ID {
			continue
		}
		obstacle := m.RectOf(o)
		cur := rectAt(pos, w, h)
		if !cur.Intersects(obstacle) {
			continue
		}
		dir, _ := DistancesBetween(cur, obstacle).Nearest()
		switch dir {
		case MoveRight:
			pos.X = obstacle.Right + m.Margin
		case MoveLeft:
			pos.X = obstacle.Left - m.Margin - w
		case MoveDown:
			pos.Y = obstacle.Bottom + m.Margin
		case MoveUp:
			pos.Y = obstacle.Top - m.Margin - h
		}
		pos = Clamp(pos, w, h, b)
	}
	return pos
}

// ResolvePosition is Metrics.ResolvePosition with DefaultMetrics.
func ResolvePosition(t Table, proposed Point, others []Table, b Bounds) Point {
	return DefaultMetrics.ResolvePosition(t, proposed, others, b)
}

// Overlaps returns the pairs of table ids whose rectangles intersect.  The
// editor uses it to report residual overlap left behind by the single-pass
// resolver.
func (m Metrics) Overlaps(tables []Table) [][2]uint64 {
	var out [][2]uint64
	for i := 0; i < len(tables); i++ {
		ri := m.RectOf(tables[i])
		for j := i + 1; j < len(tables); j++ {
			if ri.Intersects(m.RectOf(tables[j])) {
				out = append(out, [2]uint64{tables[i].ID, tables[j].ID})
			}
		}
	}
	return out
}
