package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/metric"
	"github.com/matzehuels/gitscroll/pkg/scan"
	"github.com/matzehuels/gitscroll/pkg/scene"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// viewCommand creates the view command, the interactive terminal viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		sf      scanFlags
		lf      layoutFlags
		watch   bool
		noDrill bool
	)

	cmd := &cobra.Command{
		Use:   "view <tree.json|dir|url>",
		Short: "Explore a tree interactively in the terminal",
		Long: `Open an animated, zoomable map of the tree in the terminal.

Keys:
  + / - or wheel   zoom in and out
  m                cycle the layout mode
  click            select a node; clicking a directory opens it
  enter            open the selected directory
  u / backspace    go up one level
  q                quit

With --watch on a local directory the map follows changes on disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			runner, err := c.newRunner(ctx, sf.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			snap, _, _, err := c.loadTree(ctx, cmd, runner, &sf, args[0])
			if err != nil {
				return err
			}

			sc, err := c.newScene(cmd, &lf, snap, !noDrill)
			if err != nil {
				return err
			}

			var updates chan *tree.Snapshot
			if watch {
				if !isDir(args[0]) {
					return errors.New(errors.ErrCodeInvalidInput, "--watch needs a local directory")
				}
				updates = make(chan *tree.Snapshot, 1)
				go c.watch(ctx, cmd, &sf, args[0], updates)
			}

			m := NewViewModel(sc, c.Config.Animation.Step, updates)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil && ctx.Err() == nil {
				return fmt.Errorf("viewer: %w", err)
			}
			return nil
		},
	}

	sf.register(cmd)
	lf.register(cmd)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rescan the directory when files change")
	cmd.Flags().BoolVar(&noDrill, "no-drill", false, "clicking a directory only selects it")
	return cmd
}

// newScene builds the scene the viewer drives. The canvas is replaced by
// the terminal size as soon as the program starts.
func (c *CLI) newScene(cmd *cobra.Command, lf *layoutFlags, snap *tree.Snapshot, autoDrill bool) (*scene.Scene, error) {
	mode, err := layout.ParseMode(pick(cmd, "mode", lf.mode, c.Config.Layout.Mode))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMode, err, "invalid mode")
	}
	p, err := metric.ForKind(metric.Kind(pick(cmd, "metric", lf.metric, c.Config.Layout.Metric)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMetric, err, "invalid metric")
	}
	zoom := layout.ClampZoom(pick(cmd, "zoom", lf.zoom, c.Config.Layout.Zoom))

	sc := scene.New(layout.NewEngine(p),
		scene.WithMode(mode),
		scene.WithZoom(zoom),
		scene.WithDuration(c.Config.Animation.Duration.Duration),
		scene.WithAutoDrill(autoDrill),
	)
	now := time.Now()
	sc.SetTree(snap, now)
	if lf.root != "" {
		n, ok := snap.Find(lf.root)
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "no such directory: %s", lf.root)
		}
		if !sc.DrillDown(n, now) && n != snap.Root {
			return nil, errors.New(errors.ErrCodeInvalidPath, "not a directory: %s", lf.root)
		}
	}
	return sc, nil
}

// watch rescans dir on changes until ctx is done. Errors are logged; the
// viewer keeps the last good tree.
func (c *CLI) watch(ctx context.Context, cmd *cobra.Command, sf *scanFlags, dir string, out chan<- *tree.Snapshot) {
	opts := sf.options(cmd, c.Config, dir)
	if err := opts.ValidateForScan(); err != nil {
		c.Logger.Error("watch", "error", err)
		return
	}
	b := scan.New(scan.WithIgnore(opts.Ignore...), scan.WithMaxDepth(opts.MaxDepth))
	err := b.Watch(ctx, dir, out, scan.WatchOptions{
		OnError: func(err error) { c.Logger.Debug("rescan failed", "error", err) },
	})
	if err != nil && ctx.Err() == nil {
		c.Logger.Error("watch stopped", "dir", dir, "error", err)
	}
}
