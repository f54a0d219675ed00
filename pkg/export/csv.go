package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/matzehuels/gitscroll/pkg/layout"
)

// CSVHeader is the first row WriteCSV emits.
var CSVHeader = []string{"path", "name", "kind", "ext", "size", "weight", "x", "y", "width", "height"}

// WriteCSV writes one row per box in doc.
func WriteCSV(w io.Writer, doc layout.Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, b := range doc.Nodes {
		kind := "file"
		switch {
		case b.Synthetic:
			kind = "others"
		case b.Dir:
			kind = "dir"
		}
		row := []string{
			b.Path,
			b.Name,
			kind,
			b.Ext,
			strconv.FormatInt(b.Size, 10),
			ftoa(b.Weight),
			ftoa(b.X),
			ftoa(b.Y),
			ftoa(b.Width),
			ftoa(b.Height),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
