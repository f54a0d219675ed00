package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gitscroll/pkg/export"
)

// stdout receives every command's human-readable output. Tests swap it.
var stdout io.Writer = os.Stdout

// =============================================================================
// Palette
// =============================================================================

var (
	colorAccent = lipgloss.Color("36")  // teal, matches the selected-box outline
	colorOK     = lipgloss.Color("35")  // green
	colorWarn   = lipgloss.Color("220") // amber
	colorFail   = lipgloss.Color("167") // soft red
	colorCmd    = lipgloss.Color("75")  // light blue, suggested commands
	colorValue  = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

var (
	// StyleDim renders secondary text such as detail lines and separators.
	StyleDim = lipgloss.NewStyle().Foreground(colorMuted)

	// StyleValue renders paths, revisions and sizes.
	StyleValue = lipgloss.NewStyle().Foreground(colorValue)

	// StyleWarning renders warning text.
	StyleWarning = lipgloss.NewStyle().Foreground(colorWarn)

	styleLabel   = lipgloss.NewStyle().Foreground(colorLabel).Width(12)
	styleCommand = lipgloss.NewStyle().Foreground(colorCmd)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
)

// marks prefixes status lines. The cache marks close a summary line.
var marks = struct {
	ok, fail, warn, info, arrow string
	cached, fresh               string
}{"✓", "✗", "!", "›", "→", "cached", "fresh"}

func mark(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

func printLine(parts ...string) {
	fmt.Fprintln(stdout, strings.Join(parts, " "))
}

// =============================================================================
// Status Lines
// =============================================================================

func printSuccess(format string, args ...any) {
	printLine(mark(marks.ok, colorOK), fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printLine(mark(marks.fail, colorFail), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printLine(mark(marks.warn, colorWarn), StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printLine(mark(marks.info, colorLabel), fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line under the previous status.
func printDetail(format string, args ...any) {
	printLine(" ", StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile reports a file a command wrote, such as tree.json or an export.
func printFile(path string) {
	printLine(" ", StyleDim.Render(marks.arrow), StyleValue.Render(path))
}

// printKeyValue prints one labelled field of a checkout or cache report.
func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints a summary such as "312 files · 41 dirs · 2.1 MB" and
// closes it with whether the result came from the cache.
func printStats(parts []string, cached bool) {
	status := mark(marks.fresh, colorLabel)
	if cached {
		status = mark(marks.cached, colorOK)
	}
	items := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		items = append(items, StyleDim.Render(p))
	}
	items = append(items, status)
	fmt.Fprintln(stdout, "  "+strings.Join(items, StyleDim.Render(" · ")))
}

// printExtensions prints extension counts, each behind a swatch in the colour
// its files get in the map.
func printExtensions(exts []extCount) {
	if len(exts) == 0 {
		return
	}
	items := make([]string, len(exts))
	for i, e := range exts {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(export.ColorFor(e.ext).Hex())).Render("■")
		items[i] = swatch + " " + StyleDim.Render(fmt.Sprintf(".%s %d", e.ext, e.n))
	}
	fmt.Fprintln(stdout, "  "+strings.Join(items, "  "))
}

// printNextStep suggests the command that continues from this one.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}
