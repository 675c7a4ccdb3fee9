package render

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame() *Frame {
	return &Frame{
		Tick: 3,
		Nodes: []NodeView{
			{ID: "a", Label: "alice.eth", X: 0, Y: 0, Color: "#8b5cf6", Selected: true, AvatarURL: "https://img/a.png?x=1&y=2"},
			{ID: "b", Label: "0x1234…5678", X: 20, Y: 0, Color: "#a78bfa", Highlighted: true},
			{ID: "c", Label: "<carol>", X: 20, Y: 20, Color: "#94a3b8", Pinned: true},
		},
		Links: []LinkView{
			{ID: "link-0", Source: "a", Target: "b", X1: 0, Y1: 0, X2: 20, Y2: 0, Color: "#8b5cf6", Width: 3, Highlighted: true},
			{ID: "link-1", Source: "b", Target: "c", X1: 20, Y1: 0, X2: 20, Y2: 20, Color: "#e2e8f0", Width: 1},
		},
	}
}

func TestViewport_RoundTrip(t *testing.T) {
	vp := NewViewport(1, 0.5)
	vp.Pan(10, 5)
	vp.ZoomAt(2, 40, 20)

	sx, sy := vp.ToScreen(33, -7)
	x, y := vp.ToWorld(sx, sy)
	assert.InDelta(t, 33, x, 1e-9)
	assert.InDelta(t, -7, y, 1e-9)
}

func TestViewport_ZoomKeepsAnchorAndClamps(t *testing.T) {
	vp := NewViewport(1, 1)
	wx, wy := vp.ToWorld(100, 50)

	vp.ZoomAt(1.5, 100, 50)
	sx, sy := vp.ToScreen(wx, wy)
	assert.InDelta(t, 100, sx, 1e-9)
	assert.InDelta(t, 50, sy, 1e-9)

	vp.ZoomAt(100, 0, 0)
	assert.Equal(t, 4.0, vp.Zoom)
	vp.ZoomAt(1e-6, 0, 0)
	assert.Equal(t, 0.1, vp.Zoom)
}

func TestViewport_ShowLabel(t *testing.T) {
	vp := NewViewport(1, 1)
	plain := NodeView{ID: "n"}
	selected := NodeView{ID: "s", Selected: true}

	assert.False(t, vp.ShowLabel(plain))
	assert.True(t, vp.ShowLabel(selected))

	vp.Zoom = 1.2
	assert.False(t, vp.ShowLabel(plain), "threshold is exclusive")
	vp.Zoom = 1.3
	assert.True(t, vp.ShowLabel(plain))
}

func TestViewport_FitCentersFrame(t *testing.T) {
	f := sampleFrame()
	vp := NewViewport(1, 1)
	vp.Fit(f, 200, 100)

	minX, minY, maxX, maxY := f.Bounds()
	cx, cy := vp.ToScreen((minX+maxX)/2, (minY+maxY)/2)
	assert.InDelta(t, 100, cx, 1e-9)
	assert.InDelta(t, 50, cy, 1e-9)
	assert.Equal(t, 1.0, vp.Zoom, "small frames are not blown up")

	empty := &Frame{}
	vp.Fit(empty, 200, 100)
	assert.Equal(t, 1.0, vp.Zoom)
}

func TestCanvas_DrawAndHitTest(t *testing.T) {
	f := sampleFrame()
	c := NewCanvas(30, 30)
	vp := NewViewport(1, 1)
	vp.Pan(2, 2)
	c.Draw(f, vp)

	assert.Equal(t, '◉', c.Cell(2, 2).Rune)
	assert.Equal(t, '●', c.Cell(22, 2).Rune)
	assert.Equal(t, '◆', c.Cell(22, 22).Rune)
	assert.Equal(t, '─', c.Cell(12, 2).Rune)
	assert.True(t, c.Cell(12, 2).Bold)
	assert.Equal(t, '│', c.Cell(22, 12).Rune)
	assert.Equal(t, "#8b5cf6", c.Cell(2, 2).Color)

	id, ok := c.HitTest(2, 2)
	require.True(t, ok)
	assert.Equal(t, "a", id)

	id, ok = c.HitTest(23, 21)
	require.True(t, ok)
	assert.Equal(t, "c", id, "neighbouring cells hit the node")

	_, ok = c.HitTest(12, 12)
	assert.False(t, ok)
	_, ok = c.HitTest(-5, 100)
	assert.False(t, ok)
}

func TestCanvas_LabelsOnlyWhenShown(t *testing.T) {
	f := sampleFrame()
	c := NewCanvas(60, 50)
	vp := NewViewport(1, 1)
	vp.Pan(10, 2)
	c.Draw(f, vp)

	out := c.String()
	assert.Contains(t, out, "alice.eth", "selected node is labelled")
	assert.NotContains(t, out, "carol")

	vp.Zoom = 1.5
	c.Draw(f, vp)
	assert.Contains(t, c.String(), "<carol>")
}

func TestCanvas_RenderGroupsRuns(t *testing.T) {
	c := NewCanvas(5, 1)
	c.set(1, 0, Cell{Rune: 'x', Color: "red"}, layerNode, "n")
	c.set(2, 0, Cell{Rune: 'y', Color: "red"}, layerNode, "n")

	var runs []string
	out := c.Render(func(run string, style Cell) string {
		runs = append(runs, style.Color+":"+run)
		return run
	})

	assert.Equal(t, " xy  ", out)
	assert.Equal(t, []string{": ", "red:xy", ":  "}, runs)
}

func TestCanvas_SkipsFarOffscreenLinks(t *testing.T) {
	f := &Frame{Links: []LinkView{{ID: "l", X1: -1e9, Y1: 0, X2: 1e9, Y2: 0}}}
	c := NewCanvas(10, 2)
	c.Draw(f, NewViewport(1, 1))
	assert.Equal(t, strings.Repeat(" ", 10)+"\n"+strings.Repeat(" ", 10), c.String())
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	f := sampleFrame()
	f.Banner = "Name lookup failed for a"
	require.NoError(t, WriteSVG(&buf, f, 400, 300))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" width="400" height="300"`))
	assert.Equal(t, 2, strings.Count(out, "<line "))
	assert.Equal(t, 1, strings.Count(out, "<image "))
	assert.Contains(t, out, "alice.eth")
	assert.Contains(t, out, "&lt;carol&gt;")
	assert.Contains(t, out, "a.png?x=1&amp;y=2")
	assert.Contains(t, out, `stroke-width="3"`)
	assert.Contains(t, out, "Name lookup failed for a")

	// the document is well-formed XML
	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.Equal(t, "EOF", err.Error())
			break
		}
	}
}

func TestFrameLookup(t *testing.T) {
	f := sampleFrame()
	n, ok := f.Node("b")
	require.True(t, ok)
	assert.Equal(t, "0x1234…5678", n.Label)
	_, ok = f.Node("zzz")
	assert.False(t, ok)
}

func TestFrameLookup_OnReturnedValue(t *testing.T) {
	frameOf := func() Frame { return *sampleFrame() }

	n, ok := frameOf().Node("b")
	require.True(t, ok)
	assert.Equal(t, "b", n.ID)

	minX, _, maxX, _ := frameOf().Bounds()
	assert.Less(t, minX, maxX)
}
