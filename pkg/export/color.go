package export

import (
	"fmt"
	"strings"
)

// RGB is an opaque colour.
type RGB struct{ R, G, B uint8 }

// Hex returns the colour as #rrggbb.
func (c RGB) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// Fixed colours shared by every renderer.
var (
	DirColor      = RGB{70, 130, 180}
	SelectedColor = RGB{100, 150, 250}
	FileColor     = RGB{180, 180, 180}
	OthersColor   = RGB{140, 140, 140}
	TextColor     = RGB{20, 20, 20}
)

var extColors = map[string]RGB{
	"rs":   {250, 100, 100},
	"js":   {240, 220, 100},
	"ts":   {80, 140, 220},
	"py":   {100, 200, 150},
	"go":   {0, 173, 216},
	"md":   {150, 150, 250},
	"txt":  {200, 200, 200},
	"json": {250, 150, 100},
	"toml": {200, 160, 120},
	"yaml": {200, 130, 180},
	"yml":  {200, 130, 180},
}

// ColorFor returns the colour of a file with extension ext (without the
// dot, any case). Unknown extensions get FileColor.
func ColorFor(ext string) RGB {
	if c, ok := extColors[strings.ToLower(ext)]; ok {
		return c
	}
	return FileColor
}
