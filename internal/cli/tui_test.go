package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/gitscroll/pkg/export"
	"github.com/matzehuels/gitscroll/pkg/interact"
	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/metric"
	"github.com/matzehuels/gitscroll/pkg/scene"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

func sampleTree() *tree.Snapshot {
	return tree.NewSnapshot(tree.NewDir("repo",
		tree.NewDir("repo/src",
			tree.NewFile("repo/src/a.go", 100),
			tree.NewFile("repo/src/b.go", 200),
		),
		tree.NewDir("repo/docs", tree.NewFile("repo/docs/readme.md", 50)),
		tree.NewFile("repo/main.go", 300),
	))
}

func newTestModel(t *testing.T, autoDrill bool) *ViewModel {
	t.Helper()
	sc := scene.New(layout.NewEngine(metric.Bytes{}),
		scene.WithDuration(time.Nanosecond),
		scene.WithAutoDrill(autoDrill),
	)
	sc.SetTree(sampleTree(), time.Now())
	m := NewViewModel(sc, 0.5, nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 26})
	m.Update(tickMsg(time.Now().Add(time.Second)))
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// clickOn presses and releases the left button over the node at path.
func clickOn(t *testing.T, m *ViewModel, path string) {
	t.Helper()
	var target *layout.VisualNode
	for i := range m.frame.Nodes {
		if m.frame.Nodes[i].Path == path {
			target = &m.frame.Nodes[i]
		}
	}
	if target == nil {
		t.Fatalf("%s not on screen", path)
	}
	c := target.Display().Center()
	x, y := int(c.X/cellW), int(c.Y/cellH)
	m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m.Update(tickMsg(time.Now().Add(time.Second)))
	m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	m.Update(tickMsg(time.Now().Add(2 * time.Second)))
}

func TestViewModelResize(t *testing.T) {
	m := newTestModel(t, true)

	want := canvasSize(80, 24)
	if got := m.scene.Canvas(); got != want {
		t.Errorf("Canvas() = %v, want %v", got, want)
	}
	if len(m.frame.Nodes) == 0 {
		t.Fatal("no nodes after first tick")
	}
	lines := strings.Split(m.View(), "\n")
	if len(lines) != 24+statusLines {
		t.Errorf("View() has %d lines, want %d", len(lines), 24+statusLines)
	}
}

func TestViewModelKeys(t *testing.T) {
	m := newTestModel(t, true)

	m.Update(key("+"))
	if got := m.scene.Target(); got != 1.5 {
		t.Errorf("after +: Target() = %v, want 1.5", got)
	}
	m.Update(key("-"))
	m.Update(key("-"))
	if got := m.scene.Target(); got != layout.MinZoom {
		t.Errorf("after - -: Target() = %v, want %v", got, layout.MinZoom)
	}

	m.Update(key("m"))
	if got := m.scene.Mode(); got != layout.Grid {
		t.Errorf("after m: Mode() = %v, want grid", got)
	}

	m.Update(key("u"))
	if m.status != "already at the top" {
		t.Errorf("status = %q", m.status)
	}

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestViewModelClickDrillsDown(t *testing.T) {
	m := newTestModel(t, true)

	clickOn(t, m, "repo/src")
	if got := m.scene.Root().Path; got != "repo/src" {
		t.Fatalf("Root() = %q, want repo/src", got)
	}
	if m.scene.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", m.scene.Depth())
	}

	m.Update(key("backspace"))
	if got := m.scene.Root().Path; got != "repo" {
		t.Errorf("after backspace: Root() = %q, want repo", got)
	}
}

func TestViewModelNoDrillUsesEnter(t *testing.T) {
	m := newTestModel(t, false)

	clickOn(t, m, "repo/src")
	if got := m.scene.Root().Path; got != "repo" {
		t.Fatalf("click drilled down to %q", got)
	}
	if m.status != "selected repo/src" {
		t.Errorf("status = %q", m.status)
	}

	m.Update(key("enter"))
	if got := m.scene.Root().Path; got != "repo/src" {
		t.Errorf("after enter: Root() = %q, want repo/src", got)
	}
}

func TestViewModelSnapshotUpdate(t *testing.T) {
	updates := make(chan *tree.Snapshot, 1)
	sc := scene.New(layout.NewEngine(metric.Bytes{}), scene.WithDuration(time.Nanosecond))
	sc.SetTree(sampleTree(), time.Now())
	m := NewViewModel(sc, 0.1, updates)

	next := tree.NewSnapshot(tree.NewDir("repo", tree.NewFile("repo/only.go", 10)))
	updates <- next
	msg := m.waitForSnapshot()()
	if _, ok := msg.(snapshotMsg); !ok {
		t.Fatalf("waitForSnapshot() = %T, want snapshotMsg", msg)
	}
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Error("no follow-up wait after a snapshot")
	}
	if m.scene.Snapshot() != next {
		t.Error("scene did not switch to the new snapshot")
	}
}

func TestMouseOutsideCanvasClearsPointer(t *testing.T) {
	m := newTestModel(t, true)
	m.Update(tea.MouseMsg{X: 1, Y: 1, Action: tea.MouseActionMotion})
	if m.input.Pointer == nil {
		t.Fatal("pointer not set inside the canvas")
	}
	m.Update(tea.MouseMsg{X: 1, Y: m.rows, Action: tea.MouseActionMotion})
	if m.input.Pointer != nil {
		t.Error("pointer kept on the status line")
	}
}

func TestBlend(t *testing.T) {
	black := export.RGB{}
	white := export.RGB{R: 255, G: 255, B: 255}
	tests := []struct {
		t    float64
		want export.RGB
	}{
		{0, black},
		{1, white},
		{2, white},
		{-1, black},
		{0.5, export.RGB{R: 128, G: 128, B: 128}},
	}
	for _, tt := range tests {
		if got := blend(black, white, tt.t); got != tt.want {
			t.Errorf("blend(black, white, %v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestRenderCellsLabels(t *testing.T) {
	f := scene.Frame{
		Nodes: []layout.VisualNode{{
			Node: tree.NewDir("repo/src"),
			Path: "repo/src",
			Rect: layout.Rect{MinX: 0, MinY: 0, W: 20 * cellW, H: 2 * cellH},
		}},
		Hovered:  interact.None,
		Selected: interact.None,
	}
	out := renderCells(f, 30, 3)
	if !strings.Contains(out, "src") {
		t.Errorf("renderCells() lacks the directory label:\n%s", out)
	}
	if n := strings.Count(out, "\n"); n != 2 {
		t.Errorf("renderCells() has %d line breaks, want 2", n)
	}
}
