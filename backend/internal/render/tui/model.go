// Package tui is the interactive terminal surface for a mounted graph.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vouch-graph/backend/internal/render"
)

// Surface is what the terminal drives: it supplies frames and receives
// pointer input.
type Surface interface {
	Frame() render.Frame
	Click(id string)
	DragStart(id string)
	DragMove(id string, x, y float64)
	DragEnd(id string)
	ToggleResolutionMode() string
}

const (
	headerRows = 2
	footerRows = 1
	panStep    = 4.0
	zoomStep   = 1.1
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8b5cf6"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type frameMsg time.Time

// Model is the bubbletea model for the graph view
type Model struct {
	surface  Surface
	interval time.Duration

	canvas   *render.Canvas
	viewport *render.Viewport
	frame    render.Frame
	fitted   bool
	width    int
	height   int

	dragID    string
	dragMoved bool
	panning   bool
	lastX     int
	lastY     int

	focus int
	mode  string
	quit  bool
}

// New creates a model that redraws every interval
func New(surface Surface, interval time.Duration) Model {
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	return Model{
		surface:  surface,
		interval: interval,
		canvas:   render.NewCanvas(80, 20),
		// character cells are roughly twice as tall as wide
		viewport: render.NewViewport(0.25, 0.125),
		focus:    -1,
		mode:     "lookup",
	}
}

// Run starts the program on the alternate screen with mouse tracking
func Run(surface Surface, interval time.Duration) error {
	p := tea.NewProgram(New(surface, interval), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.canvas = render.NewCanvas(msg.Width, max(msg.Height-headerRows-footerRows, 1))
		m.fitted = false
		m.redraw()
		return m, nil

	case frameMsg:
		m.redraw()
		return m, m.tick()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quit = true
		return m, tea.Quit
	case "left":
		m.viewport.Pan(panStep, 0)
	case "right":
		m.viewport.Pan(-panStep, 0)
	case "up":
		m.viewport.Pan(0, panStep)
	case "down":
		m.viewport.Pan(0, -panStep)
	case "+", "=":
		m.zoomAtCenter(zoomStep)
	case "-":
		m.zoomAtCenter(1 / zoomStep)
	case "f":
		m.fitted = false
	case "tab":
		if n := len(m.frame.Nodes); n > 0 {
			m.focus = (m.focus + 1) % n
		}
	case "shift+tab":
		if n := len(m.frame.Nodes); n > 0 {
			m.focus = (m.focus - 1 + n) % n
		}
	case "enter", " ":
		if id := m.Focused(); id != "" {
			m.surface.Click(id)
		}
	case "m":
		m.mode = m.surface.ToggleResolutionMode()
	}
	m.redraw()
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	col, row := msg.X, msg.Y-headerRows

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.viewport.ZoomAt(zoomStep, float64(col), float64(row))

	case msg.Button == tea.MouseButtonWheelDown:
		m.viewport.ZoomAt(1/zoomStep, float64(col), float64(row))

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if id, ok := m.canvas.HitTest(col, row); ok {
			m.dragID, m.dragMoved = id, false
			m.surface.DragStart(id)
		} else {
			m.panning = true
		}
		m.lastX, m.lastY = col, row

	case msg.Action == tea.MouseActionMotion:
		switch {
		case m.dragID != "":
			if col != m.lastX || row != m.lastY {
				m.dragMoved = true
			}
			x, y := m.viewport.ToWorld(float64(col), float64(row))
			m.surface.DragMove(m.dragID, x, y)
		case m.panning:
			m.viewport.Pan(float64(col-m.lastX), float64(row-m.lastY))
		}
		m.lastX, m.lastY = col, row

	case msg.Action == tea.MouseActionRelease:
		if m.dragID != "" {
			id := m.dragID
			m.surface.DragEnd(id)
			// a press and release without motion is a click
			if !m.dragMoved {
				m.surface.Click(id)
			}
		}
		m.dragID, m.dragMoved, m.panning = "", false, false
	}

	m.redraw()
}

func (m *Model) zoomAtCenter(factor float64) {
	cols, rows := m.canvas.Size()
	m.viewport.ZoomAt(factor, float64(cols)/2, float64(rows)/2)
}

func (m *Model) redraw() {
	m.frame = m.surface.Frame()
	if !m.fitted && len(m.frame.Nodes) > 0 {
		cols, rows := m.canvas.Size()
		m.viewport.Fit(&m.frame, float64(cols), float64(rows))
		m.fitted = true
	}
	if m.frame.Mode != "" {
		m.mode = m.frame.Mode
	}
	if m.focus >= len(m.frame.Nodes) {
		m.focus = -1
	}
	m.canvas.Draw(&m.frame, m.viewport)
}

// Focused returns the id of the keyboard-focused node
func (m Model) Focused() string {
	if m.focus < 0 || m.focus >= len(m.frame.Nodes) {
		return ""
	}
	return m.frame.Nodes[m.focus].ID
}

// Dragging returns the id of the node being dragged
func (m Model) Dragging() string {
	return m.dragID
}

// Viewport exposes the current view transform
func (m Model) Viewport() render.Viewport {
	return *m.viewport
}

// View implements tea.Model
func (m Model) View() string {
	if m.quit {
		return ""
	}
	var b strings.Builder

	status := fmt.Sprintf("  %d nodes  %d links  zoom %.1fx  names: %s", len(m.frame.Nodes), len(m.frame.Links), m.viewport.Zoom, m.mode)
	if id := m.Focused(); id != "" {
		n, _ := m.frame.Node(id)
		status += "  focus: " + n.Label
	}
	b.WriteString(titleStyle.Render("vouch graph") + statusStyle.Render(status) + "\n")

	if m.frame.Banner != "" {
		b.WriteString(bannerStyle.Render("⚠ "+m.frame.Banner) + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString(m.canvas.Render(paint))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("drag nodes • click to select • wheel zoom • arrows pan • tab/enter focus • m names • f fit • q quit"))
	return b.String()
}

var styleCache = map[render.Cell]lipgloss.Style{}

func paint(run string, style render.Cell) string {
	if style.Color == "" && !style.Bold {
		return run
	}
	key := render.Cell{Color: style.Color, Bold: style.Bold}
	s, ok := styleCache[key]
	if !ok {
		s = lipgloss.NewStyle().Foreground(lipgloss.Color(style.Color)).Bold(style.Bold)
		styleCache[key] = s
	}
	return s.Render(run)
}
