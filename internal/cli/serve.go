package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitscroll/pkg/observability/prom"
	"github.com/matzehuels/gitscroll/pkg/server"
	"github.com/matzehuels/gitscroll/pkg/session"
	"github.com/matzehuels/gitscroll/pkg/store"
)

// serveCommand creates the serve command, which exposes trees, layouts,
// exports and viewer sessions over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		allowLocal  bool
		noMetrics   bool
		sessionTTL  time.Duration
		maxSessions int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. Trees are stored in MongoDB when server.mongo_uri is set,
otherwise as JSON files under server.store_dir. Prometheus metrics are served
on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = st.Close(closeCtx)
			}()

			cfg := server.Config{
				Addr:              addr,
				Runner:            runner,
				Store:             st,
				Sessions:          session.NewManager(session.WithTTL(sessionTTL), session.WithMaxSessions(maxSessions)),
				Logger:            c.Logger,
				AnimationDuration: c.Config.Animation.Duration.Duration,
				AllowLocal:        allowLocal,
			}
			if !noMetrics {
				m := prom.New(nil)
				m.Install()
				cfg.Metrics = m.Handler()
			}

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			if allowLocal {
				c.Logger.Warn("local path scans enabled")
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&allowLocal, "allow-local", false, "allow scanning paths on the server's filesystem")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not serve /metrics")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", session.DefaultTTL, "drop viewer sessions unused for this long")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", session.DefaultMaxSessions, "maximum live viewer sessions")
	return cmd
}

// openStore opens MongoDB when configured, else a file store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	sc := c.Config.Server
	if sc.MongoURI != "" {
		c.Logger.Debug("using mongo store", "database", sc.Database)
		return store.NewMongoStore(ctx, sc.MongoURI, sc.Database)
	}
	dir := sc.StoreDir
	if dir == "" {
		base, err := c.cacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "trees")
	}
	c.Logger.Debug("using file store", "dir", dir)
	return store.NewFileStore(dir)
}
