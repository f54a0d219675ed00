package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/source"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// cloneCommand creates the clone command, which checks a repository out and
// keeps it.
func (c *CLI) cloneCommand() *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   "clone <url> [parent-dir]",
		Short: "Clone a repository for scanning",
		Long: `Clone a git repository into parent-dir/<name>, where name is the last
segment of the URL. parent-dir defaults to source.clone_dir from the config,
else the current directory. Cloning an existing checkout updates it.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			if err := errors.ValidateRepoURL(url); err != nil {
				return err
			}
			dir := c.Config.Source.CloneDir
			if len(args) == 2 {
				dir = args[1]
			}
			if dir == "" {
				dir = "."
			}

			prog := newProgress(c.Logger)
			spinner := newSpinnerWithContext(cmd.Context(), "Cloning "+url+"...")
			p := source.NewProvider(
				source.WithLogger(loggerFromContext(cmd.Context())),
				source.WithKeep(dir),
				source.WithOnRetry(func(attempt int, _ error) {
					spinner.Update(fmt.Sprintf("Cloning %s (retry %d)...", url, attempt))
				}),
			)
			spinner.Start()
			co, err := p.Clone(cmd.Context(), url, ref)
			if err != nil {
				spinner.StopWithError("Clone failed")
				return err
			}
			spinner.Stop()
			prog.done("Cloned "+source.RepoName(url), "revision", co.Revision)

			printKeyValue("Directory", co.Dir)
			printKeyValue("Revision", co.Revision)
			printNextStep("Scan", appName+" scan "+co.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "branch, tag or commit to check out")
	return cmd
}

// scanCommand creates the scan command, which writes a tree.json.
func (c *CLI) scanCommand() *cobra.Command {
	var (
		sf     scanFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "scan <dir|url>",
		Short: "Scan a directory or repository into a tree file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, sf.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(c.Logger)
			snap, src, hit, err := c.loadTree(ctx, cmd, runner, &sf, args[0])
			if err != nil {
				return err
			}
			prog.done("Scanned "+src, "nodes", snap.Len(), "cached", hit)

			doc := tree.ToDocument(snap, src)
			if err := tree.WriteFile(doc, output); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printTreeStats(*doc.Stats, snap.Root.Tokens, hit)
			printFile(output)
			printNextStep("Lay out", appName+" layout "+output)
			return nil
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", treeFile, "output file")
	return cmd
}

// printTreeStats prints a one-line summary and the most common extensions.
func printTreeStats(st tree.Stats, tokens int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d files", st.Files),
		fmt.Sprintf("%d dirs", st.Dirs),
		formatSize(st.TotalBytes),
	}
	if tokens > 0 {
		parts = append(parts, fmt.Sprintf("%d tokens", tokens))
	}
	printStats(parts, cached)

	printExtensions(topExtensions(st.Extensions, 5))
}

// extCount is one extension with its number of files.
type extCount struct {
	ext string
	n   int
}

// topExtensions returns the limit most common extensions, ties broken by name.
func topExtensions(counts map[string]int, limit int) []extCount {
	exts := make([]extCount, 0, len(counts))
	for e, n := range counts {
		exts = append(exts, extCount{e, n})
	}
	sort.Slice(exts, func(i, j int) bool {
		if exts[i].n != exts[j].n {
			return exts[i].n > exts[j].n
		}
		return exts[i].ext < exts[j].ext
	})
	if len(exts) > limit {
		exts = exts[:limit]
	}
	return exts
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
