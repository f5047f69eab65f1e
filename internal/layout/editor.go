package layout

// EventType enumerates the pointer events an Editor understands.
type EventType string

const (
	EventPointerDown  EventType = "down"
	EventPointerMove  EventType = "move"
	EventPointerUp    EventType = "up"
	EventPointerLeave EventType = "leave"
	EventBackground   EventType = "background"
)

// Event is a pointer event already translated into canvas coordinates.  X and
// Y are ignored for up, leave and background events.
type Event struct {
	Type EventType `json:"type"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
}

// Valid reports whether ev carries a known type.
func (ev Event) Valid() bool {
	switch ev.Type {
	case EventPointerDown, EventPointerMove, EventPointerUp, EventPointerLeave, EventBackground:
		return true
	}
	return false
}

// State is what the rendering layer needs after every event.  Tables are
// reported at their rendered positions, so tables being dragged already carry
// the drag offset.
type State struct {
	Bounds    Bounds      `json:"bounds"`
	Tables    []Table     `json:"tables"`
	Selection []uint64    `json:"selection"`
	Marquee   *Rect       `json:"marquee,omitempty"`
	Drag      *DragState  `json:"drag,omitempty"`
	Overlaps  [][2]uint64 `json:"overlaps,omitempty"`
}

// Snapshot is the complete editor state, including an in-flight gesture, in a
// form that survives a round trip through JSON.
type Snapshot struct {
	Bounds    Bounds     `json:"bounds"`
	Metrics   Metrics    `json:"metrics"`
	Tables    []Table    `json:"tables"`
	Selection []uint64   `json:"selection"`
	Marquee   *Marquee   `json:"marquee,omitempty"`
	Drag      *DragState `json:"drag,omitempty"`
}

// Option configures an Editor.
type Option func(*Editor)

// WithMetrics overrides DefaultMetrics.
func WithMetrics(m Metrics) Option { return func(e *Editor) { e.metrics = m } }

// WithCommitHook registers fn to receive the full table list every time a
// drag commits new positions.
func WithCommitHook(fn func([]Table)) Option { return func(e *Editor) { e.onCommit = fn } }

type listener struct {
	id int
	fn func(State)
}

// Editor owns a hall's tables together with the selection and drag state of
// the person editing it.  It is the only thing that mutates table positions.
// An Editor is not safe for concurrent use.
type Editor struct {
	metrics Metrics
	bounds  Bounds
	tables  []Table

	sel  selector
	drag dragger

	listeners []listener
	nextID    int
	onCommit  func([]Table)
}

// NewEditor returns an idle editor for tables on a canvas of size b.  The
// slice is copied.
func NewEditor(tables []Table, b Bounds, opts ...Option) *Editor {
	e := &Editor{
		metrics: DefaultMetrics,
		bounds:  b,
		tables:  append([]Table(nil), tables...),
		sel:     selector{selected: SelectionSet{}},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Restore rebuilds an editor from a snapshot, including any gesture that was
// in progress when the snapshot was taken.
func Restore(s Snapshot, opts ...Option) *Editor {
	e := NewEditor(s.Tables, s.Bounds, append([]Option{WithMetrics(s.Metrics)}, opts...)...)
	if e.metrics == (Metrics{}) {
		e.metrics = DefaultMetrics
	}
	e.sel.selected = NewSelectionSet(s.Selection...)
	if s.Marquee != nil {
		m := *s.Marquee
		e.sel.marquee = &m
	}
	if s.Drag != nil {
		d := *s.Drag
		e.drag.state = &d
	}
	return e
}

// Snapshot captures the editor state.
func (e *Editor) Snapshot() Snapshot {
	s := Snapshot{
		Bounds:    e.bounds,
		Metrics:   e.metrics,
		Tables:    e.Tables(),
		Selection: e.sel.selected.IDs(),
	}
	if e.sel.marquee != nil {
		m := *e.sel.marquee
		s.Marquee = &m
	}
	if e.drag.state != nil {
		d := *e.drag.state
		s.Drag = &d
	}
	return s
}

// Metrics returns the unit constants the editor sizes tables with.
func (e *Editor) Metrics() Metrics { return e.metrics }

// Bounds returns the canvas size.
func (e *Editor) Bounds() Bounds { return e.bounds }

// Tables returns a copy of the committed tables.
func (e *Editor) Tables() []Table { return append([]Table(nil), e.tables...) }

// RenderedTables returns the tables where they should be drawn right now.
// During a drag the moving tables are translated by the drag offset; no
// collision handling happens until the drag ends.
func (e *Editor) RenderedTables() []Table {
	out := e.Tables()
	if !e.drag.active() {
		return out
	}
	for i := range out {
		if e.drag.moving(out[i], e.sel.selected) {
			out[i].Position = out[i].Position.Add(e.drag.state.Offset)
		}
	}
	return out
}

// State returns the view of the editor consumed by the rendering layer.
func (e *Editor) State() State {
	st := State{
		Bounds:    e.bounds,
		Tables:    e.RenderedTables(),
		Selection: e.sel.selected.IDs(),
		Overlaps:  e.metrics.Overlaps(e.tables),
	}
	if e.sel.marquee != nil {
		r := e.sel.marquee.Rect()
		st.Marquee = &r
	}
	if e.drag.state != nil {
		d := *e.drag.state
		st.Drag = &d
	}
	return st
}

// Selection returns the selected table ids in ascending order.
func (e *Editor) Selection() []uint64 { return e.sel.selected.IDs() }

// Select replaces the selection, e.g. after a click in a table list.  Unknown
// ids are dropped.
func (e *Editor) Select(ids ...uint64) {
	s := SelectionSet{}
	for _, id := range ids {
		if indexOf(e.tables, id) >= 0 {
			s[id] = struct{}{}
		}
	}
	e.sel.selected = s
	e.notify()
}

// Subscribe registers fn to be called with the new state after every event.
// The returned function removes the subscription; calling it twice is safe.
func (e *Editor) Subscribe(fn func(State)) (unsubscribe func()) {
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

func (e *Editor) notify() {
	if len(e.listeners) == 0 {
		return
	}
	st := e.State()
	for _, l := range append([]listener(nil), e.listeners...) {
		l.fn(st)
	}
}

// hit returns the table under p.  Tables later in the list are drawn on top
// and win when rectangles overlap.
func (e *Editor) hit(p Point) (uint64, bool) {
	for i := len(e.tables) - 1; i >= 0; i-- {
		if e.metrics.RectOf(e.tables[i]).Contains(p) {
			return e.tables[i].ID, true
		}
	}
	return 0, false
}

// OnPointerDown starts a drag when p is on a table and a marquee otherwise.
// A gesture still in progress is finished first, as if the pointer had been
// released.
func (e *Editor) OnPointerDown(p Point) {
	e.finish()
	if id, ok := e.hit(p); ok {
		e.drag.begin(id, p, e.sel.selected)
	} else {
		e.sel.begin(p)
	}
	e.notify()
}

// OnPointerMove advances the current gesture.  Moves while idle are ignored.
func (e *Editor) OnPointerMove(p Point) {
	switch {
	case e.drag.active():
		e.drag.move(p)
	case e.sel.active():
		e.sel.update(p, e.metrics, e.tables)
	default:
		return
	}
	e.notify()
}

// OnPointerUp ends the current gesture, committing a drag.
func (e *Editor) OnPointerUp() {
	if !e.finish() {
		return
	}
	e.notify()
}

// OnPointerLeave is handled like OnPointerUp so that a pointer leaving the
// canvas never leaves a gesture stuck.
func (e *Editor) OnPointerLeave() { e.OnPointerUp() }

// ClickBackground clears the selection.  It is ignored while a drag is in
// progress.
func (e *Editor) ClickBackground() {
	if e.drag.active() {
		return
	}
	e.sel.clear()
	e.notify()
}

// Apply dispatches ev to the matching handler.  It reports false for unknown
// event types, which leave the editor untouched.
func (e *Editor) Apply(ev Event) bool {
	p := Point{X: ev.X, Y: ev.Y}
	switch ev.Type {
	case EventPointerDown:
		e.OnPointerDown(p)
	case EventPointerMove:
		e.OnPointerMove(p)
	case EventPointerUp:
		e.OnPointerUp()
	case EventPointerLeave:
		e.OnPointerLeave()
	case EventBackground:
		e.ClickBackground()
	default:
		return false
	}
	return true
}

// finish ends whichever gesture is active and reports whether there was one.
func (e *Editor) finish() bool {
	switch {
	case e.drag.active():
		if e.drag.end(e.tables, e.sel.selected, e.metrics, e.bounds) && e.onCommit != nil {
			e.onCommit(e.Tables())
		}
		return true
	case e.sel.active():
		e.sel.end()
		return true
	}
	return false
}
