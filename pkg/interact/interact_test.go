package interact

import (
	"testing"

	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// three returns a directory and two files side by side, 100 wide each with
// a 10 unit gap.
func three() []layout.VisualNode {
	nodes := []*tree.Node{
		tree.NewDir("src"),
		tree.NewFile("a.go", 10),
		tree.NewFile("b.go", 10),
	}
	out := make([]layout.VisualNode, len(nodes))
	for i, n := range nodes {
		out[i] = layout.VisualNode{
			Node: n,
			Path: n.Path,
			Rect: layout.Rect{MinX: float64(i) * 110, W: 100, H: 100},
		}
	}
	return out
}

func click(x, y float64) Input {
	in := At(x, y)
	in.Clicked = true
	return in
}

func TestHover(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want int
	}{
		{"first", At(50, 50), 0},
		{"second", At(150, 50), 1},
		{"third", At(250, 50), 2},
		{"gap", At(105, 50), None},
		{"outside", At(50, 500), None},
		{"no pointer", Input{}, None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := three()
			c := New()
			c.Update(nodes, tt.in)
			if c.Hovered() != tt.want {
				t.Errorf("Hovered() = %d, want %d", c.Hovered(), tt.want)
			}
			for i, n := range nodes {
				if n.Hovered != (i == tt.want) {
					t.Errorf("nodes[%d].Hovered = %v", i, n.Hovered)
				}
			}
		})
	}
}

func TestHoverFirstMatchWins(t *testing.T) {
	nodes := three()
	nodes[1].Rect = nodes[0].Rect
	c := New()
	c.Update(nodes, At(50, 50))
	if c.Hovered() != 0 {
		t.Errorf("Hovered() = %d, want 0", c.Hovered())
	}
}

func TestHoverUsesDisplayedRect(t *testing.T) {
	nodes := three()
	prev := layout.Rect{MinX: 1000, W: 100, H: 100}
	nodes[2].PrevRect = &prev
	nodes[2].Progress = 0
	c := New()
	c.Update(nodes, At(1050, 50))
	if c.Hovered() != 2 {
		t.Errorf("Hovered() = %d, want 2 at its animated position", c.Hovered())
	}
}

func TestClickSelects(t *testing.T) {
	nodes := three()
	c := New()

	events := c.Update(nodes, click(150, 50))
	if c.Selected() != 1 || !nodes[1].Selected {
		t.Fatalf("Selected() = %d", c.Selected())
	}
	if len(events) != 1 || events[0].Kind != SelectionChanged || events[0].Path != "a.go" {
		t.Errorf("events = %+v", events)
	}

	events = c.Update(nodes, click(250, 50))
	if c.Selected() != 2 || nodes[1].Selected || !nodes[2].Selected {
		t.Errorf("selection did not move: %d %v %v", c.Selected(), nodes[1].Selected, nodes[2].Selected)
	}
	if len(events) != 1 {
		t.Errorf("events = %+v", events)
	}

	if events = c.Update(nodes, click(250, 50)); len(events) != 0 {
		t.Errorf("re-clicking a selected file emitted %+v", events)
	}
	if events = c.Update(nodes, click(105, 50)); len(events) != 0 || c.Selected() != 2 {
		t.Errorf("click on empty space changed selection: %+v", events)
	}
}

func TestClickDirectoryDrillsDown(t *testing.T) {
	nodes := three()
	c := New()
	events := c.Update(nodes, click(50, 50))
	if len(events) != 2 || events[0].Kind != SelectionChanged || events[1].Kind != DrillDown {
		t.Fatalf("events = %+v", events)
	}
	if events[1].Node != nodes[0].Node {
		t.Error("drill-down event does not reference the directory")
	}

	events = c.Update(nodes, click(50, 50))
	if len(events) != 1 || events[0].Kind != DrillDown {
		t.Errorf("second click events = %+v", events)
	}
}

func TestDrag(t *testing.T) {
	nodes := three()
	c := New()

	press := At(150, 50)
	press.Down = true
	c.Update(nodes, press)
	if c.Dragging() != 1 {
		t.Fatalf("Dragging() = %d, want 1", c.Dragging())
	}

	move := At(170, 80)
	move.Down = true
	c.Update(nodes, move)
	if nodes[1].Offset != (layout.Point{X: 20, Y: 30}) {
		t.Errorf("Offset = %+v, want {20 30}", nodes[1].Offset)
	}
	if got := nodes[1].Display().Center(); got != (layout.Point{X: 180, Y: 80}) {
		t.Errorf("dragged center = %+v", got)
	}
	if nodes[1].Rect.MinX != 110 {
		t.Error("drag modified the layout rectangle")
	}

	c.Update(nodes, At(170, 80))
	if c.Dragging() != None || nodes[1].Offset != (layout.Point{}) {
		t.Errorf("release: dragging=%d offset=%+v", c.Dragging(), nodes[1].Offset)
	}
}

func TestHoldWithoutPressDoesNotDrag(t *testing.T) {
	nodes := three()
	c := New()
	held := At(500, 500)
	held.Down = true
	c.Update(nodes, held)

	held = At(50, 50)
	held.Down = true
	c.Update(nodes, held)
	if c.Dragging() != None {
		t.Error("moving onto a node with the button held should not start a drag")
	}
}

func TestStaleIndicesAreCleared(t *testing.T) {
	nodes := three()
	c := New()
	c.Update(nodes, click(250, 50))
	press := At(250, 50)
	press.Down = true
	c.Update(nodes, press)

	short := three()[:1]
	events := c.Update(short, Input{Down: true})
	if c.Selected() != None || c.Dragging() != None || c.Hovered() != None {
		t.Errorf("stale indices survived: h=%d s=%d d=%d", c.Hovered(), c.Selected(), c.Dragging())
	}
	if len(events) != 0 {
		t.Errorf("events = %+v", events)
	}
}

func TestSyncRebindsSelectionByPath(t *testing.T) {
	nodes := three()
	c := New()
	c.Update(nodes, click(250, 50))

	reordered := []layout.VisualNode{nodes[2], nodes[0], nodes[1]}
	for i := range reordered {
		reordered[i].Selected = false
	}
	c.Sync(reordered)
	if c.Selected() != 0 || !reordered[0].Selected {
		t.Errorf("Selected() = %d after reorder, want 0", c.Selected())
	}

	c.Sync(three()[:2])
	if c.Selected() != None {
		t.Errorf("Selected() = %d, want None when the node is gone", c.Selected())
	}
	if c.SelectedPath() != "b.go" {
		t.Errorf("SelectedPath() = %q, want b.go", c.SelectedPath())
	}

	c.Clear()
	if c.SelectedPath() != "" || c.Selected() != None {
		t.Error("Clear() kept state")
	}
}

func TestEventKindString(t *testing.T) {
	if SelectionChanged.String() != "selection-changed" || DrillDown.String() != "drill-down" {
		t.Error("unexpected event kind names")
	}
}
