// Package interact turns pointer input into hover, selection and drag state
// over a list of visual nodes.
//
// The [Controller] hit-tests against the rectangles currently on screen, so
// it works mid-animation. It stores list indices, and every index is checked
// against the length of the list it is about to touch; a stale index is
// treated as no index at all.
//
// Selection is remembered by path as well, so [Controller.Sync] can find the
// selected node again after the list was replaced.
package interact

import (
	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// None is the index reported when nothing is hovered, selected or dragged.
const None = -1

// Input is the pointer state for one frame.
type Input struct {
	// Pointer is the pointer position, or nil when it is outside the canvas.
	Pointer *layout.Point
	// Clicked is true on the frame the primary button was clicked.
	Clicked bool
	// Down is true while the primary button is held.
	Down bool
}

// At returns an Input with the pointer at (x, y) and no buttons.
func At(x, y float64) Input {
	return Input{Pointer: &layout.Point{X: x, Y: y}}
}

// EventKind distinguishes events.
type EventKind int

// Event kinds.
const (
	SelectionChanged EventKind = iota
	DrillDown
)

func (k EventKind) String() string {
	switch k {
	case SelectionChanged:
		return "selection-changed"
	case DrillDown:
		return "drill-down"
	default:
		return "unknown"
	}
}

// Event reports a state change the host may react to.
type Event struct {
	Kind  EventKind
	Index int
	Path  string
	Node  *tree.Node
}

// Controller holds hover, selection and drag state. The zero value is not
// ready; use New.
type Controller struct {
	hovered  int
	selected int
	dragging int

	selectedPath string

	wasDown    bool
	dragStart  layout.Point
	dragOrigin layout.Point
}

// New returns a controller with nothing hovered, selected or dragged.
func New() *Controller {
	return &Controller{hovered: None, selected: None, dragging: None}
}

// Hovered returns the hovered index or None.
func (c *Controller) Hovered() int { return c.hovered }

// Selected returns the selected index or None.
func (c *Controller) Selected() int { return c.selected }

// SelectedPath returns the path of the last selected node, which survives
// list replacement.
func (c *Controller) SelectedPath() string { return c.selectedPath }

// Dragging returns the dragged index or None.
func (c *Controller) Dragging() int { return c.dragging }

// Update applies one frame of input to nodes, setting their Hovered,
// Selected and Offset fields, and returns the events it caused.
//
// The first node in list order whose displayed rectangle contains the
// pointer is hovered. A click on a hovered node selects it, deselecting the
// previous selection, and additionally emits DrillDown when the node is a
// directory. Pressing the button over a node starts dragging it; the node
// follows the pointer until release and then snaps back. A dragged node
// moves by the pointer's travel since the press, so the point grabbed stays
// under the pointer instead of the node's centre jumping to it.
func (c *Controller) Update(nodes []layout.VisualNode, in Input) []Event {
	c.validate(nodes)

	c.hovered = None
	for i := range nodes {
		nodes[i].Hovered = false
	}
	if in.Pointer != nil {
		for i := range nodes {
			if nodes[i].Display().Contains(*in.Pointer) {
				c.hovered = i
				nodes[i].Hovered = true
				break
			}
		}
	}

	c.drag(nodes, in)

	var events []Event
	if in.Clicked && c.hovered != None {
		h := c.hovered
		if c.selected != h {
			if c.selected != None {
				nodes[c.selected].Selected = false
			}
			c.selected = h
			c.selectedPath = nodes[h].Path
			nodes[h].Selected = true
			events = append(events, eventFor(SelectionChanged, nodes, h))
		}
		if nodes[h].IsDir() {
			events = append(events, eventFor(DrillDown, nodes, h))
		}
	}
	return events
}

func (c *Controller) drag(nodes []layout.VisualNode, in Input) {
	pressed := in.Down && !c.wasDown
	c.wasDown = in.Down

	switch {
	case !in.Down:
		if c.dragging != None {
			nodes[c.dragging].Offset = c.dragOrigin
		}
		c.dragging = None
	case pressed && c.hovered != None && in.Pointer != nil:
		c.dragging = c.hovered
		c.dragStart = *in.Pointer
		c.dragOrigin = nodes[c.dragging].Offset
	case c.dragging != None && in.Pointer != nil:
		nodes[c.dragging].Offset = c.dragOrigin.Add(in.Pointer.Sub(c.dragStart))
	}
}

// Sync rebinds the controller to a freshly computed list. Hover and drag are
// dropped; the selection is looked up again by path and becomes None when the
// node is no longer present.
func (c *Controller) Sync(nodes []layout.VisualNode) {
	c.hovered = None
	c.dragging = None
	c.selected = None
	for i := range nodes {
		nodes[i].Hovered = false
		nodes[i].Offset = layout.Point{}
		nodes[i].Selected = false
		if c.selectedPath != "" && c.selected == None && nodes[i].Path == c.selectedPath {
			c.selected = i
			nodes[i].Selected = true
		}
	}
}

// Clear forgets every index and the selected path.
func (c *Controller) Clear() {
	c.hovered, c.selected, c.dragging = None, None, None
	c.selectedPath = ""
	c.wasDown = false
}

func (c *Controller) validate(nodes []layout.VisualNode) {
	n := len(nodes)
	if c.hovered >= n {
		c.hovered = None
	}
	if c.selected >= n || (c.selected != None && nodes[c.selected].Path != c.selectedPath) {
		c.selected = None
	}
	if c.dragging >= n {
		c.dragging = None
	}
}

func eventFor(k EventKind, nodes []layout.VisualNode, i int) Event {
	return Event{Kind: k, Index: i, Path: nodes[i].Path, Node: nodes[i].Node}
}
