// Package layout implements the table placement engine behind the seating
// editor.  It manages movable rectangular table tokens on a 2D canvas and
// resolves pointer gestures into in-bounds, non-overlapping positions.
//
// The package is split the same way the editor thinks about a gesture:
//
//   - geometry: table rectangles, the intersection test and edge distances
//   - selection: marquee tracking and the selected id set
//   - collision: clamping and the nearest-edge displacement heuristic
//   - drag: single and grouped drags and their commit rules
//   - editor: the stateful owner of all of the above
//
// Everything here is synchronous and free of I/O.  An Editor is owned by a
// single caller; it performs no locking.
package layout

// Point is a coordinate in canvas space.  The origin is the top-left corner of
// the canvas; x grows to the right and y grows downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Rect is an axis-aligned rectangle in canvas space.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Intersects reports whether r and o overlap.  The rectangles are considered
// separate when they are apart along either axis; rectangles that only share
// an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	if r.Left >= o.Right || r.Right <= o.Left {
		return false
	}
	if r.Top >= o.Bottom || r.Bottom <= o.Top {
		return false
	}
	return true
}

// Contains reports whether p lies inside r or on its border.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// rectFromCorners builds a rectangle from two opposite corners given in any
// order.
func rectFromCorners(a, b Point) Rect {
	return Rect{
		Left:   min(a.X, b.X),
		Top:    min(a.Y, b.Y),
		Right:  max(a.X, b.X),
		Bottom: max(a.Y, b.Y),
	}
}

// rectAt places a w×h rectangle with its top-left corner at p.
func rectAt(p Point, w, h float64) Rect {
	return Rect{Left: p.X, Top: p.Y, Right: p.X + w, Bottom: p.Y + h}
}

// Bounds is the size of the canvas.  Valid positions keep a table's rectangle
// inside [0, Width] × [0, Height].
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Metrics holds the unit constants that turn a table's capacity into a
// rectangle, plus the gap left between a moved table and the obstacle it was
// pushed away from.
type Metrics struct {
	ShortSide  float64 `json:"short_side" toml:"short_side"`
	UnitLength float64 `json:"unit_length" toml:"unit_length"`
	Margin     float64 `json:"margin" toml:"margin"`
}

// DefaultMetrics are the dimensions used by the seating editor.
var DefaultMetrics = Metrics{ShortSide: 100, UnitLength: 30, Margin: 5}

// Table is a seating unit as the placement engine sees it.
type Table struct {
	ID          uint64 `json:"id"`
	TableNumber string `json:"table_number"`
	Capacity    int    `json:"capacity"`
	Position    Point  `json:"position"`
	IsVertical  bool   `json:"is_vertical"`
}

// Size returns the width and height of t.  The long side scales with
// capacity; IsVertical selects which axis it lies on.
func (m Metrics) Size(t Table) (w, h float64) {
	long := float64(t.Capacity) * m.UnitLength
	if t.IsVertical {
		return m.ShortSide, long
	}
	return long, m.ShortSide
}

// RectOf returns the bounding box of t at its current position.
func (m Metrics) RectOf(t Table) Rect {
	w, h := m.Size(t)
	return rectAt(t.Position, w, h)
}

// RectOf returns the bounding box of t using DefaultMetrics.
func RectOf(t Table) Rect { return DefaultMetrics.RectOf(t) }

// Direction names the axis-aligned moves the collision resolver can apply.
type Direction int

const (
	MoveRight Direction = iota
	MoveLeft
	MoveDown
	MoveUp
)

func (d Direction) String() string {
	switch d {
	case MoveRight:
		return "right"
	case MoveLeft:
		return "left"
	case MoveDown:
		return "down"
	case MoveUp:
		return "up"
	}
	return "unknown"
}

// EdgeDistances holds how far a rectangle must travel in each direction to
// clear an obstacle completely.
type EdgeDistances struct {
	Right float64 `json:"right"`
	Left  float64 `json:"left"`
	Down  float64 `json:"down"`
	Up    float64 `json:"up"`
}

// DistancesBetween computes the displacements that would move moving fully
// off obstacle by travelling purely right, left, down or up.  Values are never
// negative.
func DistancesBetween(moving, obstacle Rect) EdgeDistances {
	return EdgeDistances{
		Right: max(0, obstacle.Right-moving.Left),
		Left:  max(0, moving.Right-obstacle.Left),
		Down:  max(0, obstacle.Bottom-moving.Top),
		Up:    max(0, moving.Bottom-obstacle.Top),
	}
}

// Nearest returns the direction with the smallest displacement.  Ties are
// broken in the order right, left, down, up.
func (d EdgeDistances) Nearest() (Direction, float64) {
	dir, best := MoveRight, d.Right
	if d.Left < best {
		dir, best = MoveLeft, d.Left
	}
	if d.Down < best {
		dir, best = MoveDown, d.Down
	}
	if d.Up < best {
		dir, best = MoveUp, d.Up
	}
	return dir, best
}
