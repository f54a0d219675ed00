package layout

import (
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/gitscroll/pkg/metric"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

const eps = 1e-6

var canvas = Size{W: 800, H: 600}

func files(prefix string, sizes ...int64) []*tree.Node {
	out := make([]*tree.Node, len(sizes))
	for i, s := range sizes {
		out[i] = tree.NewFile(fmt.Sprintf("%s/f%02d.txt", prefix, i), s)
	}
	return out
}

func dirs(prefix string, n int) []*tree.Node {
	out := make([]*tree.Node, n)
	for i := range out {
		p := fmt.Sprintf("%s/d%02d", prefix, i)
		out[i] = tree.NewDir(p, tree.NewFile(p+"/x.go", 2000))
	}
	return out
}

func mixed() *tree.Node {
	children := append(dirs("root", 3), files("root", 500, 4000)...)
	return tree.NewDir("root", children...)
}

func assertUniquePaths(t *testing.T, nodes []VisualNode) {
	t.Helper()
	seen := map[string]bool{}
	for _, n := range nodes {
		if seen[n.Path] {
			t.Errorf("duplicate node %q", n.Path)
		}
		seen[n.Path] = true
	}
}

func overlapArea(a, b Rect) float64 {
	w := math.Min(a.MaxX(), b.MaxX()) - math.Max(a.MinX, b.MinX)
	h := math.Min(a.MaxY(), b.MaxY()) - math.Max(a.MinY, b.MinY)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

func assertNoOverlap(t *testing.T, nodes []VisualNode) {
	t.Helper()
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if a := overlapArea(nodes[i].Rect, nodes[j].Rect); a > eps {
				t.Errorf("%s overlaps %s by %v", nodes[i].Path, nodes[j].Path, a)
			}
		}
	}
}

func assertInside(t *testing.T, nodes []VisualNode, area Rect) {
	t.Helper()
	for _, n := range nodes {
		r := n.Rect
		if r.MinX < area.MinX-eps || r.MinY < area.MinY-eps || r.MaxX() > area.MaxX()+eps || r.MaxY() > area.MaxY()+eps {
			t.Errorf("%s at %+v escapes %+v", n.Path, r, area)
		}
	}
}

// =============================================================================
// Modes
// =============================================================================

func TestResolve(t *testing.T) {
	tests := []struct {
		mode Mode
		zoom float64
		want Mode
	}{
		{Auto, 1.0, Grid},
		{Auto, 1.99, Grid},
		{Auto, 2.0, Treemap},
		{Auto, 2.99, Treemap},
		{Auto, 3.0, Detailed},
		{Auto, 4.0, Detailed},
		{ForceDirected, 1.0, ForceDirected},
		{Grid, 3.5, Grid},
	}
	for _, tt := range tests {
		if got := Resolve(tt.mode, tt.zoom); got != tt.want {
			t.Errorf("Resolve(%v, %v) = %v, want %v", tt.mode, tt.zoom, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if got, _ := ParseMode("Force-Directed"); got != ForceDirected {
		t.Errorf("ParseMode alias = %v", got)
	}
	if _, err := ParseMode("spiral"); err == nil {
		t.Error("ParseMode(spiral) should fail")
	}
	if Detailed.Next() != Auto {
		t.Errorf("Detailed.Next() = %v, want auto", Detailed.Next())
	}
}

// =============================================================================
// Engine
// =============================================================================

func TestComputeDegenerate(t *testing.T) {
	eng := NewEngine(nil)
	tests := []struct {
		name   string
		root   *tree.Node
		canvas Size
	}{
		{"nil root", nil, canvas},
		{"file root", tree.NewFile("a.txt", 10), canvas},
		{"empty dir", tree.NewDir("root"), canvas},
		{"zero canvas", mixed(), Size{}},
		{"negative canvas", mixed(), Size{W: -5, H: 100}},
	}
	for _, tt := range tests {
		for _, m := range Modes {
			t.Run(tt.name+"/"+m.String(), func(t *testing.T) {
				if got := eng.Compute(tt.root, 2.5, m, tt.canvas); len(got) != 0 {
					t.Errorf("got %d nodes, want 0", len(got))
				}
			})
		}
	}
}

func TestComputeDeterministicAndPure(t *testing.T) {
	eng := NewEngine(metric.Bytes{})
	root := mixed()
	before := tree.Count(root)
	for _, m := range []Mode{Grid, Treemap, ForceDirected, Detailed} {
		a := eng.Compute(root, 2.5, m, canvas)
		b := eng.Compute(root, 2.5, m, canvas)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%v: results differ between calls", m)
		}
	}
	if tree.Count(root) != before || len(root.Children) != 5 {
		t.Error("Compute modified the tree")
	}
}

func TestComputeClampsZoom(t *testing.T) {
	eng := NewEngine(nil)
	root := mixed()
	low := eng.Compute(root, -3, Auto, canvas)
	if !reflect.DeepEqual(low, eng.Compute(root, MinZoom, Auto, canvas)) {
		t.Error("zoom below range should clamp to MinZoom")
	}
	high := eng.Compute(root, 99, Auto, canvas)
	if !reflect.DeepEqual(high, eng.Compute(root, MaxZoom, Auto, canvas)) {
		t.Error("zoom above range should clamp to MaxZoom")
	}
}

func TestWithStrategy(t *testing.T) {
	called := false
	s := StrategyFunc(func(*tree.Node, float64, Size, metric.Provider) []VisualNode {
		called = true
		return nil
	})
	eng := NewEngine(nil, WithStrategy(Grid, s))
	eng.Compute(mixed(), 1, Auto, canvas)
	if !called {
		t.Error("custom grid strategy not used")
	}
}

// =============================================================================
// Grid
// =============================================================================

func TestGridDims(t *testing.T) {
	tests := []struct {
		n          int
		aspect     float64
		cols, rows int
	}{
		{0, 1, 0, 0},
		{1, 1, 1, 1},
		{4, 1, 2, 2},
		{5, 1, 3, 2},
		{2, 4, 2, 1},
		{9, 1, 3, 3},
		{3, 0, 2, 2},
	}
	for _, tt := range tests {
		cols, rows := GridDims(tt.n, tt.aspect)
		if cols != tt.cols || rows != tt.rows {
			t.Errorf("GridDims(%d, %v) = %d×%d, want %d×%d", tt.n, tt.aspect, cols, rows, tt.cols, tt.rows)
		}
	}
}

func TestGridDimsCoverAllCells(t *testing.T) {
	for n := 1; n <= 200; n++ {
		for _, aspect := range []float64{0.25, 0.5, 1, 4.0 / 3, 16.0 / 9, 3, 10} {
			cols, rows := GridDims(n, aspect)
			if cols*rows < n || cols < 1 || rows < 1 || cols > n {
				t.Fatalf("GridDims(%d, %v) = %d×%d", n, aspect, cols, rows)
			}
		}
	}
}

func TestGridInclusion(t *testing.T) {
	eng := NewEngine(nil)
	root := mixed()

	low := eng.Compute(root, 1.5, Grid, canvas)
	if len(low) != 3 {
		t.Fatalf("zoom 1.5: got %d nodes, want 3 directories", len(low))
	}
	for _, n := range low {
		if !n.IsDir() {
			t.Errorf("zoom 1.5 placed file %s", n.Path)
		}
	}

	high := eng.Compute(root, 2.0, Grid, canvas)
	if len(high) != 5 {
		t.Fatalf("zoom 2: got %d nodes, want 5", len(high))
	}
	assertUniquePaths(t, high)
	assertNoOverlap(t, high)
	assertInside(t, high, RectFromSize(canvas))
}

func TestGridSizeFactor(t *testing.T) {
	weights := map[string]float64{"root/a": 1, "root/b": 100, "root/c": 1, "root/d": 1}
	p := metric.ProviderFunc(func(n *tree.Node) float64 { return weights[n.Path] })
	root := tree.NewDir("root", tree.NewDir("root/a"), tree.NewDir("root/b"), tree.NewDir("root/c"), tree.NewDir("root/d"))
	nodes := NewEngine(p).Compute(root, 1, Grid, Size{W: 400, H: 400})

	cell := 200.0
	inner := cell - 2*GridPadding
	for _, n := range nodes {
		switch n.Path {
		case "root/b":
			if math.Abs(n.Rect.W-cell) > eps {
				t.Errorf("heavy cell width = %v, want capped at %v", n.Rect.W, cell)
			}
		default:
			if math.Abs(n.Rect.W-inner*minSizeFactor) > eps {
				t.Errorf("%s width = %v, want %v", n.Path, n.Rect.W, inner*minSizeFactor)
			}
		}
	}
	assertNoOverlap(t, nodes)
}

// =============================================================================
// Treemap
// =============================================================================

func TestTreemapTilesPaddedCanvas(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
	}{
		{"single", []float64{1}},
		{"all equal", []float64{1, 1, 1, 1, 1, 1, 1}},
		{"one dominant", []float64{1000, 1, 1, 1}},
		{"mixed", []float64{50, 30, 10, 5, 3, 1, 1}},
		{"with zeros", []float64{10, 0, 5, 0}},
		{"all zero", []float64{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weights := map[string]float64{}
			var children []*tree.Node
			for i, w := range tt.weights {
				p := fmt.Sprintf("root/n%d", i)
				weights[p] = w
				children = append(children, tree.NewFile(p, 1))
			}
			prov := metric.ProviderFunc(func(n *tree.Node) float64 { return weights[n.Path] })
			nodes := NewEngine(prov).Compute(tree.NewDir("root", children...), 2.5, Treemap, canvas)

			if len(nodes) != len(tt.weights) {
				t.Fatalf("got %d nodes, want %d", len(nodes), len(tt.weights))
			}
			padded := RectFromSize(canvas).Inset(TreemapPadding)
			var area float64
			for _, n := range nodes {
				area += n.Rect.Area()
			}
			if math.Abs(area-padded.Area()) > 1e-6*padded.Area() {
				t.Errorf("union area = %v, want %v", area, padded.Area())
			}
			assertUniquePaths(t, nodes)
			assertNoOverlap(t, nodes)
			assertInside(t, nodes, padded)
		})
	}
}

func TestTreemapOrder(t *testing.T) {
	root := tree.NewDir("root", files("root", 1000, 9000, 5000, 5000)...)
	nodes := NewEngine(metric.Bytes{}).Compute(root, 2.5, Treemap, canvas)
	want := []string{"root/f01.txt", "root/f02.txt", "root/f03.txt", "root/f00.txt"}
	for i, n := range nodes {
		if n.Path != want[i] {
			t.Errorf("nodes[%d] = %s, want %s", i, n.Path, want[i])
		}
	}
	var sum float64
	for _, n := range nodes {
		sum += n.Weight
	}
	if math.Abs(sum-1) > eps {
		t.Errorf("weights sum to %v, want 1", sum)
	}
}

// =============================================================================
// Force-directed
// =============================================================================

func minPairDist(pts []Point) float64 {
	best := math.Inf(1)
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			best = math.Min(best, pts[i].Dist(pts[j]))
		}
	}
	return best
}

func TestForceSeparationNeverShrinks(t *testing.T) {
	for _, c := range []Size{{W: 1000, H: 1000}, {W: 800, H: 600}} {
		root := tree.NewDir("root", files("root", 4096, 4096, 4096, 4096, 4096)...)
		before := minPairDist(circlePlacement(5, c))

		nodes := NewEngine(nil).Compute(root, 1, ForceDirected, c)
		if len(nodes) != 5 {
			t.Fatalf("got %d nodes, want 5", len(nodes))
		}
		centers := make([]Point, len(nodes))
		for i, n := range nodes {
			centers[i] = n.Rect.Center()
		}
		if after := minPairDist(centers); after+eps < before {
			t.Errorf("canvas %v: min distance shrank from %v to %v", c, before, after)
		}
		assertInside(t, nodes, RectFromSize(c))
	}
}

func TestForceNodeSize(t *testing.T) {
	tests := []struct {
		node *tree.Node
		want float64
	}{
		{tree.NewFile("a", 0), 20},
		{tree.NewFile("a", 4*1024), 24},
		{tree.NewFile("a", 1<<30), 50},
		{tree.NewDir("d"), 30},
		{tree.NewDir("d", files("d", 1, 1, 1, 1)...), 40},
		{tree.NewDir("d", files("d", make([]int64, 100)...)...), 80},
	}
	for _, tt := range tests {
		if got := forceNodeSize(tt.node); math.Abs(got-tt.want) > eps {
			t.Errorf("forceNodeSize(%s) = %v, want %v", tt.node.Path, got, tt.want)
		}
	}
}

// =============================================================================
// Detailed
// =============================================================================

func lodTree(light int) *tree.Node {
	sizes := []int64{100000, 100000, 100000, 100000, 100000}
	for range light {
		sizes = append(sizes, 1000)
	}
	return tree.NewDir("root", files("root", sizes...)...)
}

// oneLight has 21 files of which only one falls under the share threshold.
// That file alone still goes into the Others bucket.
func oneLight() *tree.Node {
	sizes := make([]int64, 20)
	for i := range sizes {
		sizes[i] = 100000
	}
	return tree.NewDir("root", files("root", append(sizes, 1000)...)...)
}

func TestDetailedLOD(t *testing.T) {
	eng := NewEngine(metric.Bytes{})

	nodes := eng.Compute(lodTree(20), 1.5, Detailed, canvas)
	if len(nodes) != 6 {
		t.Fatalf("got %d nodes, want 5 + 1 others", len(nodes))
	}
	var others *VisualNode
	for i := range nodes {
		if nodes[i].Synthetic {
			others = &nodes[i]
		}
	}
	if others == nil {
		t.Fatal("no synthetic Others node")
	}
	if others.Name() != OthersName || !others.IsDir() || len(others.Node.Children) != 20 {
		t.Errorf("others = %q dir=%v children=%d", others.Name(), others.IsDir(), len(others.Node.Children))
	}
	assertUniquePaths(t, nodes)
	assertNoOverlap(t, nodes)
}

func TestDetailedLODThresholds(t *testing.T) {
	eng := NewEngine(metric.Bytes{})
	tests := []struct {
		name  string
		root  *tree.Node
		zoom  float64
		nodes int
	}{
		{"zoomed in", lodTree(20), 2.5, 25},
		{"few files", lodTree(15), 1.5, 20},
		{"single light file", oneLight(), 1.5, 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(eng.Compute(tt.root, tt.zoom, Detailed, canvas)); got != tt.nodes {
				t.Errorf("got %d nodes, want %d", got, tt.nodes)
			}
		})
	}
}

func TestDetailedLODGroupsSingleLightFile(t *testing.T) {
	nodes := NewEngine(metric.Bytes{}).Compute(oneLight(), 1.5, Detailed, canvas)
	last := nodes[len(nodes)-1]
	if !last.Synthetic || len(last.Node.Children) != 1 || last.Node.Children[0].Path != "root/f20.txt" {
		t.Errorf("last node = %s synthetic=%v, want Others holding root/f20.txt", last.Path, last.Synthetic)
	}
	for _, n := range nodes[:len(nodes)-1] {
		if n.Synthetic || n.Path == "root/f20.txt" {
			t.Errorf("unexpected node %s outside the bucket", n.Path)
		}
	}
}

func TestDetailedBands(t *testing.T) {
	eng := NewEngine(nil)
	nodes := eng.Compute(mixed(), 3, Auto, canvas)
	if len(nodes) != 5 {
		t.Fatalf("got %d nodes, want 5", len(nodes))
	}
	split := canvas.H * DirBandShare
	for _, n := range nodes {
		if n.IsDir() && n.Rect.MaxY() > split+eps {
			t.Errorf("directory %s below the band split", n.Path)
		}
		if !n.IsDir() && n.Rect.MinY < split-eps {
			t.Errorf("file %s above the band split", n.Path)
		}
	}
	assertNoOverlap(t, nodes)

	onlyFiles := tree.NewDir("root", files("root", 10, 20)...)
	for _, n := range eng.Compute(onlyFiles, 3, Detailed, canvas) {
		if n.Rect.MinY > canvas.H*0.5 {
			t.Errorf("file band did not take the free space: %+v", n.Rect)
		}
	}
}

// =============================================================================
// Cache
// =============================================================================

func TestQuantizeZoom(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{1.0, 1.0},
		{1.04, 1.0},
		{1.09, 1.0},
		{1.96, 1.9},
		{2.96, 2.9},
		{2.0000000001, 2.0},
		{1.9 + 0.1, 2.0},
		{1.1 + 0.1 + 0.1, 1.3},
		{0.2, 1.0},
		{7, 4.0},
	}
	for _, tt := range tests {
		if got := QuantizeZoom(tt.in); got != tt.want {
			t.Errorf("QuantizeZoom(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCacheHitMissInvalidate(t *testing.T) {
	c := NewCache(NewEngine(nil))
	root := mixed()

	first := c.Get(root, 2.01, Auto, canvas)
	second := c.Get(root, 2.09, Auto, canvas)
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Fatalf("stats = %d hits, %d misses, want 1/1", hits, misses)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("quantized lookups returned different layouts")
	}

	c.Get(root, 2.0, Grid, canvas)
	c.Get(root, 2.0, Auto, Size{W: 400, H: 300})
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}

	c.Get(mixed(), 2.0, Auto, canvas)
	if c.Len() != 1 {
		t.Errorf("new root should clear the cache, Len() = %d", c.Len())
	}
	c.Invalidate()
	if c.Len() != 0 {
		t.Errorf("Invalidate() left %d entries", c.Len())
	}
}

func TestCacheReturnsCopies(t *testing.T) {
	c := NewCache(NewEngine(nil))
	root := mixed()

	a := c.Get(root, 2.5, Auto, canvas)
	a[0].Selected = true
	a[0].Rect.MinX = -100
	a[0].PrevRect = &Rect{}

	b := c.Get(root, 2.5, Auto, canvas)
	if b[0].Selected || b[0].Rect.MinX == -100 || b[0].PrevRect != nil {
		t.Error("mutation leaked into the cache")
	}
}

func TestCacheMatchesEngine(t *testing.T) {
	eng := NewEngine(nil)
	c := NewCache(eng)
	root := mixed()
	got := c.Get(root, 2.53, Treemap, canvas)
	want := eng.Compute(root, 2.5, Treemap, canvas)
	if !reflect.DeepEqual(got, want) {
		t.Error("cached layout differs from engine at the quantized zoom")
	}
}

func TestCacheKeepsModeNearThresholds(t *testing.T) {
	eng := NewEngine(nil)
	root := mixed()
	for _, zoom := range []float64{1.96, 1.999, 2.96, 2.999} {
		c := NewCache(eng)
		got := c.Get(root, zoom, Auto, canvas)
		want := eng.Compute(root, QuantizeZoom(zoom), Resolve(Auto, zoom), canvas)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("zoom %v: cache used a strategy other than %v", zoom, Resolve(Auto, zoom))
		}
		if len(got) != len(eng.Compute(root, zoom, Auto, canvas)) {
			t.Errorf("zoom %v: %d nodes, engine at the exact zoom gives %d",
				zoom, len(got), len(eng.Compute(root, zoom, Auto, canvas)))
		}
	}
}

// =============================================================================
// Geometry and nodes
// =============================================================================

func TestRect(t *testing.T) {
	r := Rect{MinX: 10, MinY: 20, W: 100, H: 50}
	if !r.Contains(Point{10, 20}) || r.Contains(Point{110, 20}) || r.Contains(Point{50, 70}) {
		t.Error("Contains edge semantics")
	}
	if c := r.Center(); c != (Point{60, 45}) {
		t.Errorf("Center() = %v", c)
	}
	if in := r.Inset(60); in.W != 0 || in.H != 0 {
		t.Errorf("Inset beyond size = %+v, want zero size", in)
	}
	s := Rect{MinX: 20, MinY: 40, W: 200, H: 10}
	if got := r.Lerp(s, 0); got != r {
		t.Errorf("Lerp(0) = %+v", got)
	}
	if got := r.Lerp(s, 1); got != s {
		t.Errorf("Lerp(1) = %+v", got)
	}
	if got := r.Lerp(s, 0.5); got != (Rect{MinX: 15, MinY: 30, W: 150, H: 30}) {
		t.Errorf("Lerp(0.5) = %+v", got)
	}
}

func TestDisplay(t *testing.T) {
	prev := Rect{W: 10, H: 10}
	v := VisualNode{Rect: Rect{MinX: 100, W: 10, H: 10}, PrevRect: &prev, Progress: 0.5, Offset: Point{1, 2}}
	if got := v.Display(); got != (Rect{MinX: 51, MinY: 2, W: 10, H: 10}) {
		t.Errorf("Display() = %+v", got)
	}
	v.PrevRect = nil
	if got := v.Display(); got != (Rect{MinX: 101, MinY: 2, W: 10, H: 10}) {
		t.Errorf("Display() idle = %+v", got)
	}
}

// =============================================================================
// Document
// =============================================================================

func TestDocumentRoundTrip(t *testing.T) {
	root := mixed()
	nodes := NewEngine(nil).Compute(root, 2.5, Auto, canvas)
	doc := Export(nodes, root.Path, 2.5, Auto, canvas)
	if doc.Mode != "treemap" || len(doc.Nodes) != len(nodes) {
		t.Fatalf("Export() = mode %q, %d nodes", doc.Mode, len(doc.Nodes))
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteFile(doc, path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, doc)
	}
	if got.Nodes[0].Rect() != nodes[0].Rect {
		t.Errorf("Box.Rect() = %+v, want %+v", got.Nodes[0].Rect(), nodes[0].Rect)
	}
}

func TestUnmarshalRejectsBadMode(t *testing.T) {
	if _, err := Unmarshal([]byte(`{"mode":"spiral","nodes":[]}`)); err == nil {
		t.Error("expected error for unknown mode")
	}
	if _, err := Unmarshal([]byte(`{`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
