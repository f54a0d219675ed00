package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitscroll/pkg/export"
	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/pipeline"
)

// layoutCommand creates the layout command, which writes a layout.json.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		sf     scanFlags
		lf     layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout <tree.json|dir|url>",
		Short: "Compute a layout of one directory at one zoom level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, sf.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			snap, _, _, err := c.loadTree(ctx, cmd, runner, &sf, args[0])
			if err != nil {
				return err
			}

			var opts pipeline.Options
			lf.apply(cmd, c.Config, &opts)
			prog := newProgress(c.Logger)
			doc, hit, err := runner.LayoutWithCacheInfo(ctx, snap, opts)
			if err != nil {
				return err
			}
			prog.done("Laid out "+doc.Root, "mode", doc.Mode, "zoom", doc.Zoom, "boxes", len(doc.Nodes))

			if err := layout.WriteFile(doc, output); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printStats([]string{fmt.Sprintf("%d boxes", len(doc.Nodes))}, hit)
			printFile(output)
			printNextStep("Export", appName+" export "+args[0]+" -f svg")
			return nil
		},
	}

	sf.register(cmd)
	lf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", layoutFile, "output file")
	return cmd
}

// exportCommand creates the export command, which runs the full pipeline
// and writes one file per format.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		sf       scanFlags
		lf       layoutFlags
		formats  string
		output   string
		dotDepth int
		dotNodes int
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "export <tree.json|dir|url>",
		Short: "Render a layout or the tree to files",
		Long: `Render the layout of a directory, or its tree, to files.

Formats: ` + export.FormatList() + `

json, csv and svg draw the computed layout; dot and tree-svg draw the tree as
a node-link diagram, collapsed below --dot-depth.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs, err := export.ParseFormats(formats)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, sf.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			snap, _, _, err := c.loadTree(ctx, cmd, runner, &sf, args[0])
			if err != nil {
				return err
			}

			opts := pipeline.Options{DOTDepth: dotDepth, DOTNodes: dotNodes, Detailed: detailed}
			for _, f := range fs {
				opts.Formats = append(opts.Formats, string(f))
			}
			lf.apply(cmd, c.Config, &opts)

			prog := newProgress(c.Logger)
			doc, layoutHit, err := runner.LayoutWithCacheInfo(ctx, snap, opts)
			if err != nil {
				return err
			}
			root, _ := snap.Find(doc.Root)
			artifacts, exportHit, err := runner.ExportWithCacheInfo(ctx, doc, root, opts)
			if err != nil {
				return err
			}
			prog.done("Exported " + strings.Join(opts.Formats, ", "))

			base := output
			if base == "" {
				base = strings.TrimSuffix(filepath.Base(snap.Root.Name), filepath.Ext(snap.Root.Name))
			}
			printStats([]string{fmt.Sprintf("%d boxes", len(doc.Nodes))}, layoutHit && exportHit)
			for _, f := range fs {
				path := outputPath(base, f, len(fs))
				if err := os.WriteFile(path, artifacts[string(f)], 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				printFile(path)
			}
			return nil
		},
	}

	sf.register(cmd)
	lf.register(cmd)
	cmd.Flags().StringVarP(&formats, "format", "f", strings.Join(pipeline.DefaultFormats, ","), "output format(s), comma-separated")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (one format) or base path (several)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	cmd.Flags().IntVar(&dotDepth, "dot-depth", export.DefaultDOTDepth, "tree depth drawn by dot and tree-svg")
	cmd.Flags().IntVar(&dotNodes, "dot-nodes", export.DefaultDOTNodes, "node limit for dot and tree-svg")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show sizes and tokens in dot and tree-svg")
	return cmd
}

// outputPath names the file for format f. A single format writes base as
// given when it already carries an extension.
func outputPath(base string, f export.Format, n int) string {
	if n == 1 && filepath.Ext(base) != "" {
		return base
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + f.Ext()
}
