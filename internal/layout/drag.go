package layout

// DragMode tells a single-table drag from a grouped one.
type DragMode string

const (
	DragSingle DragMode = "single"
	DragGroup  DragMode = "group"
)

// DragState describes a drag in progress.  Offset is the cumulative pointer
// displacement since Origin.
type DragState struct {
	Mode          DragMode `json:"mode"`
	ActiveTableID uint64   `json:"active_table_id"`
	Origin        Point    `json:"origin"`
	Offset        Point    `json:"offset"`
}

// dragger is the Idle/Dragging state machine.  A nil state means Idle.
type dragger struct {
	state *DragState
}

func (d *dragger) active() bool { return d.state != nil }

// begin starts a drag on id.  The gesture moves the whole selection only when
// id is part of a non-empty selection; otherwise just id moves and the
// selection itself is left alone.
func (d *dragger) begin(id uint64, p Point, sel SelectionSet) {
	mode := DragSingle
	if len(sel) > 0 && sel.Has(id) {
		mode = DragGroup
	}
	d.state = &DragState{Mode: mode, ActiveTableID: id, Origin: p}
}

func (d *dragger) move(p Point) {
	if d.state == nil {
		return
	}
	d.state.Offset = p.Sub(d.state.Origin)
}

// moving reports whether t is translated by the current drag.
func (d *dragger) moving(t Table, sel SelectionSet) bool {
	if d.state == nil {
		return false
	}
	if d.state.Mode == DragGroup {
		return sel.Has(t.ID)
	}
	return t.ID == d.state.ActiveTableID
}

// end commits the drag into tables and returns to Idle.  Grouped drags add
// the offset to every selected table as is.  A single drag runs the proposed
// position through the collision resolver against every other table.  Ids
// that no longer exist are skipped.  The return value reports whether any
// position changed.
func (d *dragger) end(tables []Table, sel SelectionSet, m Metrics, b Bounds) bool {
	st := d.state
	d.state = nil
	if st == nil {
		return false
	}

	changed := false
	if st.Mode == DragGroup {
		if st.Offset == (Point{}) {
			return false
		}
		for i := range tables {
			if sel.Has(tables[i].ID) {
				tables[i].Position = tables[i].Position.Add(st.Offset)
				changed = true
			}
		}
		return changed
	}

	idx := indexOf(tables, st.ActiveTableID)
	if idx < 0 {
		return false
	}
	t := tables[idx]
	others := make([]Table, 0, len(tables)-1)
	others = append(others, tables[:idx]...)
	others = append(others, tables[idx+1:]...)

	resolved := m.ResolvePosition(t, t.Position.Add(st.Offset), others, b)
	if resolved != t.Position {
		tables[idx].Position = resolved
		changed = true
	}
	return changed
}

func indexOf(tables []Table, id uint64) int {
	for i := range tables {
		if tables[i].ID == id {
			return i
		}
	}
	return -1
}
