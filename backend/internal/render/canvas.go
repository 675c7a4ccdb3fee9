package render

import (
	"math"
	"strings"
)

// Cell is one character of the canvas
type Cell struct {
	Rune  rune
	Color string
	Bold  bool
}

// layer orders overlapping draws; higher layers win
type layer int

const (
	layerEmpty layer = iota
	layerLink
	layerLabel
	layerNode
)

// Canvas rasterizes frames onto a character grid
type Canvas struct {
	cols, rows int
	cells      []Cell
	layers     []layer
	hits       []string
}

// NewCanvas creates a blank cols x rows canvas
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{cols: max(cols, 1), rows: max(rows, 1)}
	c.Clear()
	return c
}

// Size returns the grid dimensions
func (c *Canvas) Size() (int, int) {
	return c.cols, c.rows
}

// Clear blanks every cell
func (c *Canvas) Clear() {
	n := c.cols * c.rows
	c.cells = make([]Cell, n)
	c.layers = make([]layer, n)
	c.hits = make([]string, n)
	for i := range c.cells {
		c.cells[i].Rune = ' '
	}
}

// Cell returns the cell at (col, row)
func (c *Canvas) Cell(col, row int) Cell {
	if !c.inside(col, row) {
		return Cell{Rune: ' '}
	}
	return c.cells[row*c.cols+col]
}

// Draw rasterizes f through vp. Links go first, then labels, then nodes, so
// nodes stay visible where they overlap.
func (c *Canvas) Draw(f *Frame, vp *Viewport) {
	c.Clear()

	for _, l := range f.Links {
		x1, y1 := vp.ToScreen(l.X1, l.Y1)
		x2, y2 := vp.ToScreen(l.X2, l.Y2)
		if offscreen(x1, y1) || offscreen(x2, y2) {
			continue
		}
		glyph := lineGlyph(x2-x1, y2-y1)
		c.line(round(x1), round(y1), round(x2), round(y2), Cell{Rune: glyph, Color: l.Color, Bold: l.Highlighted})
	}

	for _, n := range f.Nodes {
		if !vp.ShowLabel(n) {
			continue
		}
		sx, sy := vp.ToScreen(n.X, n.Y)
		label := []rune(n.Label)
		start := round(sx) - len(label)/2
		for i, r := range label {
			c.set(start+i, round(sy)+1, Cell{Rune: r, Color: n.Color, Bold: n.Selected}, layerLabel, "")
		}
	}

	for _, n := range f.Nodes {
		sx, sy := vp.ToScreen(n.X, n.Y)
		c.set(round(sx), round(sy), Cell{Rune: nodeGlyph(n), Color: n.Color, Bold: n.Selected || n.Highlighted}, layerNode, n.ID)
	}
}

// HitTest returns the node drawn at (col, row), searching the neighbouring
// cells when the exact cell is empty.
func (c *Canvas) HitTest(col, row int) (string, bool) {
	if id := c.hitAt(col, row); id != "" {
		return id, true
	}
	for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		if id := c.hitAt(col+d[0], row+d[1]); id != "" {
			return id, true
		}
	}
	return "", false
}

// String renders the canvas without colors
func (c *Canvas) String() string {
	return c.Render(func(s string, _ Cell) string { return s })
}

// Render joins the grid into text, passing each run of same-styled cells to
// paint.
func (c *Canvas) Render(paint func(run string, style Cell) string) string {
	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		var style Cell
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(paint(run.String(), style))
				run.Reset()
			}
		}
		for col := 0; col < c.cols; col++ {
			cell := c.cells[row*c.cols+col]
			if cell.Color != style.Color || cell.Bold != style.Bold {
				flush()
				style = Cell{Color: cell.Color, Bold: cell.Bold}
			}
			run.WriteRune(cell.Rune)
		}
		flush()
	}
	return b.String()
}

func (c *Canvas) inside(col, row int) bool {
	return col >= 0 && col < c.cols && row >= 0 && row < c.rows
}

func (c *Canvas) hitAt(col, row int) string {
	if !c.inside(col, row) {
		return ""
	}
	return c.hits[row*c.cols+col]
}

func (c *Canvas) set(col, row int, cell Cell, l layer, hit string) {
	if !c.inside(col, row) {
		return
	}
	i := row*c.cols + col
	if l < c.layers[i] {
		return
	}
	c.cells[i] = cell
	c.layers[i] = l
	if hit != "" {
		c.hits[i] = hit
	}
}

// line draws with Bresenham's algorithm
func (c *Canvas) line(x0, y0, x1, y1 int, cell Cell) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.set(x0, y0, cell, layerLink, "")
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func lineGlyph(dx, dy float64) rune {
	if dx == 0 && dy == 0 {
		return '·'
	}
	angle := math.Atan2(-dy, dx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return '─'
	case angle < 67.5:
		return '╱'
	case angle < 112.5:
		return '│'
	default:
		return '╲'
	}
}

func nodeGlyph(n NodeView) rune {
	switch {
	case n.Pinned:
		return '◆'
	case n.Selected:
		return '◉'
	default:
		return '●'
	}
}

// offscreen guards the rasterizer against points zoomed far out of view
func offscreen(x, y float64) bool {
	const limit = 1e5
	return math.Abs(x) > limit || math.Abs(y) > limit || math.IsNaN(x) || math.IsNaN(y)
}

func round(f float64) int {
	return int(math.Round(f))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
