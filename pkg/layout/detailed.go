package layout

import (
	"path"

	"github.com/matzehuels/gitscroll/pkg/metric"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// Detailed layout parameters.
const (
	DirBandShare   = 0.7
	FilePadding    = 5.0
	LODMinFiles    = 20   // grouping applies above this many files
	LODShare       = 0.01 // files below this share of file weight are grouped
	othersPathName = "(others)"
)

// DetailedStrategy splits the canvas into a directory band on top and a file
// band below, each packed as a grid. A band without members yields its space
// to the other.
//
// Below TreemapZoom, directories holding more than LODMinFiles files have
// their light files (under LODShare of the total file weight) collapsed into
// one synthetic Others directory.
type DetailedStrategy struct{}

// Layout implements Strategy.
func (DetailedStrategy) Layout(dir *tree.Node, zoom float64, canvas Size, w metric.Provider) []VisualNode {
	dirs := itemsOf(dir.Dirs(), w)
	files := itemsOf(dir.Files(), w)
	if zoom < TreemapZoom && len(files) > LODMinFiles {
		files = groupLOD(dir, files)
	}

	area := RectFromSize(canvas)
	dirBand, fileBand := area, area
	switch {
	case len(dirs) == 0:
		dirBand = Rect{}
	case len(files) == 0:
		fileBand = Rect{}
	default:
		dirBand.H = area.H * DirBandShare
		fileBand.MinY = area.MinY + dirBand.H
		fileBand.H = area.H - dirBand.H
	}

	out := packGrid(dirs, dirBand, GridPadding)
	return append(out, packGrid(files, fileBand, FilePadding)...)
}

// groupLOD replaces light files with a single synthetic directory whose
// children are the grouped files. Files keep their relative order and the
// bucket is appended last, even when it holds a single file.
func groupLOD(parent *tree.Node, files []item) []item {
	total := 0.0
	for _, f := range files {
		total += max(f.weight, 0)
	}
	if total <= 0 {
		return files
	}

	var kept []item
	var grouped []*tree.Node
	var groupedWeight float64
	for _, f := range files {
		if f.weight/total < LODShare {
			grouped = append(grouped, f.node)
			groupedWeight += max(f.weight, 0)
			continue
		}
		kept = append(kept, f)
	}
	if len(grouped) == 0 {
		return files
	}

	others := &tree.Node{
		Name:     OthersName,
		Path:     path.Join(parent.Path, othersPathName),
		IsDir:    true,
		Children: grouped,
	}
	for _, g := range grouped {
		others.Size += g.Size
	}
	return append(kept, item{node: others, weight: groupedWeight, synthetic: true})
}
