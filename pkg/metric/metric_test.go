package metric

import (
	"testing"

	"github.com/matzehuels/gitscroll/pkg/tree"
)

func TestBytes(t *testing.T) {
	empty := &tree.Node{Name: "d", Path: "d", IsDir: true, Children: []*tree.Node{{}, {}}}
	tests := []struct {
		name string
		node *tree.Node
		want float64
	}{
		{"large file", tree.NewFile("a.bin", 5000), 5000},
		{"small file floored", tree.NewFile("a.txt", 12), Floor},
		{"dir with size", tree.NewDir("d", tree.NewFile("d/x", 4000)), 4000},
		{"dir without size", empty, 3 * Floor},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Bytes{}).Weight(tt.node); got != tt.want {
				t.Errorf("Weight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItems(t *testing.T) {
	d := tree.NewDir("d", tree.NewFile("d/a", 1), tree.NewFile("d/b", 1))
	if got := (Items{}).Weight(d); got != 3 {
		t.Errorf("Weight(dir) = %v, want 3", got)
	}
	if got := (Items{}).Weight(d.Children[0]); got != 1 {
		t.Errorf("Weight(file) = %v, want 1", got)
	}
}

func TestTokens(t *testing.T) {
	a := tree.NewFile("d/a.go", 10)
	a.Tokens = 40
	b := tree.NewFile("d/b.png", 10)
	d := tree.NewDir("d", a, b)

	if got := (Tokens{}).Weight(a); got != 40 {
		t.Errorf("Weight(a) = %v, want 40", got)
	}
	if got := (Tokens{}).Weight(b); got != 1 {
		t.Errorf("Weight(b) = %v, want 1", got)
	}
	if got := (Tokens{}).Weight(d); got != 41 {
		t.Errorf("Weight(d) = %v, want 41", got)
	}
}

func TestForKind(t *testing.T) {
	for _, k := range Kinds {
		if _, err := ForKind(k); err != nil {
			t.Errorf("ForKind(%q) error: %v", k, err)
		}
	}
	if _, err := ForKind("lines"); err == nil {
		t.Error("ForKind(lines) should fail")
	}
}

func TestProviderFunc(t *testing.T) {
	p := ProviderFunc(func(*tree.Node) float64 { return 7 })
	if got := p.Weight(nil); got != 7 {
		t.Errorf("Weight() = %v, want 7", got)
	}
}
