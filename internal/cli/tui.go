package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gitscroll/pkg/export"
	"github.com/matzehuels/gitscroll/pkg/interact"
	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/scene"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// One terminal cell stands for cellW x cellH canvas units, so layouts see
// roughly the proportions they would get in a window.
const (
	cellW = 8.0
	cellH = 16.0

	frameInterval = time.Second / 30
	statusLines   = 2
)

var (
	backgroundColor = export.RGB{R: 240, G: 240, B: 240}
	labelDark       = lipgloss.Color("#141414")
	labelLight      = lipgloss.Color("#f5f5f5")

	statusStyle = lipgloss.NewStyle().Foreground(colorLabel)
	helpStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

// =============================================================================
// ViewModel - Interactive tree map
// =============================================================================

type tickMsg time.Time

type snapshotMsg struct{ snap *tree.Snapshot }

// ViewModel is the bubbletea model for the interactive viewer.
type ViewModel struct {
	scene *scene.Scene
	step  float64

	cols, rows int
	input      interact.Input
	frame      scene.Frame
	status     string

	// updates delivers rescans while watching a directory. Nil otherwise.
	updates <-chan *tree.Snapshot
}

// NewViewModel wraps sc. step is the zoom change per key press.
func NewViewModel(sc *scene.Scene, step float64, updates <-chan *tree.Snapshot) *ViewModel {
	if step <= 0 {
		step = 0.1
	}
	return &ViewModel{scene: sc, step: step, updates: updates}
}

func (m *ViewModel) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForSnapshot())
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *ViewModel) waitForSnapshot() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-m.updates
		if !ok {
			return nil
		}
		return snapshotMsg{snap}
	}
}

func (m *ViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	now := time.Now()
	switch msg := msg.(type) {
	case tickMsg:
		m.advance(time.Time(msg))
		return m, tick()

	case snapshotMsg:
		m.scene.SetTree(msg.snap, now)
		m.status = fmt.Sprintf("rescanned: %d nodes", msg.snap.Len())
		return m, m.waitForSnapshot()

	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, max(1, msg.Height-statusLines)
		m.scene.Resize(canvasSize(m.cols, m.rows), now)

	case tea.MouseMsg:
		m.mouse(msg, now)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "+", "=":
			m.scene.Zoom(m.step, now)
		case "-", "_":
			m.scene.Zoom(-m.step, now)
		case "m":
			m.scene.SetMode(m.scene.Mode().Next(), now)
			m.status = "mode: " + m.scene.Mode().String()
		case "enter":
			if n := m.frame.SelectedNode(); n != nil && n.IsDir() {
				m.scene.DrillDown(n.Node, now)
			}
		case "backspace", "u":
			if !m.scene.Up(now) {
				m.status = "already at the top"
			}
		}
	}
	return m, nil
}

func (m *ViewModel) mouse(msg tea.MouseMsg, now time.Time) {
	p := cellPoint(msg.X, msg.Y)
	if msg.Y >= m.rows {
		m.input.Pointer = nil
	} else {
		m.input.Pointer = &p
	}
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scene.Zoom(m.step, now)
	case msg.Button == tea.MouseButtonWheelDown:
		m.scene.Zoom(-m.step, now)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.input.Clicked = true
		m.input.Down = true
	case msg.Action == tea.MouseActionRelease:
		m.input.Down = false
	}
}

// advance renders one frame. A click is delivered to exactly one frame.
func (m *ViewModel) advance(now time.Time) {
	m.frame = m.scene.Frame(now, m.input)
	m.input.Clicked = false
	for _, ev := range m.frame.Events {
		switch ev.Kind {
		case interact.SelectionChanged:
			m.status = "selected " + ev.Path
		case interact.DrillDown:
			if root := m.scene.Root(); root != nil && root.Path == ev.Path {
				m.status = "entered " + ev.Path
			}
		}
	}
}

func (m *ViewModel) View() string {
	if m.cols == 0 || m.rows == 0 {
		return "loading..."
	}
	var b strings.Builder
	b.WriteString(renderCells(m.frame, m.cols, m.rows))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("+/- zoom  m mode  click select  enter open  u up  q quit"))
	return b.String()
}

func (m *ViewModel) statusLine() string {
	root := "(empty)"
	if m.frame.Root != nil {
		root = m.frame.Root.Path
	}
	parts := []string{
		root,
		m.frame.Mode.String(),
		fmt.Sprintf("zoom %.1f", m.frame.Target),
	}
	if n := m.frame.HoveredNode(); n != nil {
		parts = append(parts, strings.ReplaceAll(scene.Tooltip(n, m.frame.Zoom), "\n", " · "))
	} else if m.status != "" {
		parts = append(parts, m.status)
	}
	line := strings.Join(parts, "  ")
	if len(line) > m.cols && m.cols > 1 {
		line = string([]rune(line)[:min(len([]rune(line)), m.cols-1)]) + "…"
	}
	return statusStyle.Render(line)
}

// =============================================================================
// Cell rendering
// =============================================================================

func canvasSize(cols, rows int) layout.Size {
	return layout.Size{W: float64(cols) * cellW, H: float64(rows) * cellH}
}

// cellPoint returns the canvas point at the centre of cell (x, y).
func cellPoint(x, y int) layout.Point {
	return layout.Point{X: (float64(x) + 0.5) * cellW, Y: (float64(y) + 0.5) * cellH}
}

type cell struct {
	ch rune
	bg export.RGB
	fg lipgloss.Color
}

// renderCells paints f onto a cols x rows grid. Later nodes paint over
// earlier ones; files fade in with FileOpacity.
func renderCells(f scene.Frame, cols, rows int) string {
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
		for x := range grid[y] {
			grid[y][x] = cell{ch: ' ', bg: backgroundColor, fg: labelDark}
		}
	}

	for i := range f.Nodes {
		n := &f.Nodes[i]
		if n.Node == nil {
			continue
		}
		opacity := 1.0
		if !n.IsDir() {
			opacity = f.FileOpacity
			if opacity <= 0 {
				continue
			}
		}
		color := blend(backgroundColor, nodeColor(n), opacity)
		if n.Hovered {
			color = blend(color, export.RGB{R: 255, G: 255, B: 255}, 0.3)
		}
		fg := labelDark
		if luminance(color) < 128 {
			fg = labelLight
		}

		r := n.Display()
		x0, y0 := int(math.Round(r.MinX/cellW)), int(math.Round(r.MinY/cellH))
		x1, y1 := int(math.Round(r.MaxX()/cellW)), int(math.Round(r.MaxY()/cellH))
		x0, y0 = max(0, x0), max(0, y0)
		x1, y1 = min(cols, x1), min(rows, y1)
		if x1 <= x0 || y1 <= y0 {
			continue
		}
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				grid[y][x] = cell{ch: ' ', bg: color, fg: fg}
			}
		}

		showLabel := n.IsDir() || f.DetailOpacity > 0 || x1-x0 > 12
		if showLabel && x1-x0 > 2 {
			label := []rune(n.Name())
			if len(label) > x1-x0-1 {
				label = append(label[:max(0, x1-x0-2)], '…')
			}
			for j, ch := range label {
				grid[y0][x0+j] = cell{ch: ch, bg: color, fg: fg}
			}
		}
	}

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].bg == row[start].bg && row[x].fg == row[start].fg {
				continue
			}
			run := make([]rune, 0, x-start)
			for _, c := range row[start:x] {
				run = append(run, c.ch)
			}
			style := lipgloss.NewStyle().
				Background(lipgloss.Color(row[start].bg.Hex())).
				Foreground(row[start].fg)
			b.WriteString(style.Render(string(run)))
			start = x
		}
	}
	return b.String()
}

func nodeColor(n *layout.VisualNode) export.RGB {
	switch {
	case n.Selected:
		return export.SelectedColor
	case n.Synthetic:
		return export.OthersColor
	case n.IsDir():
		return export.DirColor
	default:
		return export.ColorFor(n.Node.Ext())
	}
}

// blend mixes from towards to by t in [0, 1].
func blend(from, to export.RGB, t float64) export.RGB {
	t = max(0, min(1, t))
	mix := func(a, b uint8) uint8 { return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t)) }
	return export.RGB{R: mix(from.R, to.R), G: mix(from.G, to.G), B: mix(from.B, to.B)}
}

func luminance(c export.RGB) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}
