package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/democrat/internal/config"
	"github.com/vango-dev/democrat/internal/demo"
	"github.com/vango-dev/democrat/internal/errors"
	"github.com/vango-dev/democrat/pkg/archive"
	"github.com/vango-dev/democrat/pkg/codec"
	"github.com/vango-dev/democrat/pkg/democrat"
	"github.com/vango-dev/democrat/pkg/inspect"
	"github.com/vango-dev/democrat/pkg/telemetry"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr         string
		drive        time.Duration
		snapshotPath string
		noMetrics    bool
		archiveLoc   string
		restore      bool
	)

	cmd := &cobra.Command{
		Use:   "serve [tree]",
		Short: "Serve a live demo store for inspection",
		Long: `Mount a demo tree and serve it with the inspect server: state and
snapshot endpoints, patch application, a websocket patch stream and
Prometheus metrics. With --drive the tree is stepped on an interval so
the patch stream has something to show.

Available trees: ` + strings.Join(demo.Names(), ", ") + `

Examples:
  democrat serve
  democrat serve todos --drive 2s
  democrat serve app --addr :8080 --snapshot app.snapshot.yaml
  democrat serve counter --archive s3://my-bucket/democrat --restore`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Demo.Tree = args[0]
			}
			if !cmd.Flags().Changed("drive") {
				drive, _ = cfg.DriveInterval()
			}
			if addr == "" {
				addr = cfg.Address()
			}
			if noMetrics {
				cfg.Metrics.Enabled = false
			}
			if archiveLoc != "" {
				cfg.Archive.Location = archiveLoc
			}
			if restore {
				cfg.Archive.Restore = true
			}
			return runServe(cmd.Context(), cmd, flags, cfg, addr, drive, snapshotPath)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config, localhost:7070)")
	cmd.Flags().DurationVarP(&drive, "drive", "d", 0, "Step the demo tree on this interval (0 disables)")
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Start the store from this snapshot file")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "Disable the Prometheus endpoint")
	cmd.Flags().StringVar(&archiveLoc, "archive", "", "Archive location for POST /archive and the snapshot saved on exit")
	cmd.Flags().BoolVar(&restore, "restore", false, "Start from the newest archived snapshot")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, flags *globalFlags, cfg *config.Config, addr string, drive time.Duration, snapshotPath string) error {
	tree, err := lookupTree(cfg.Demo.Tree)
	if err != nil {
		return err
	}
	logger := flags.logger(cmd.ErrOrStderr(), cfg)

	sched := democrat.NewQueueScheduler(democrat.WithQueueLogger(logger))
	defer sched.Close()

	opts := []democrat.Option{
		democrat.WithScheduler(sched),
		democrat.WithLogger(logger),
		democrat.WithTracing(telemetry.NewTracer()),
	}

	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, democrat.WithMetrics(telemetry.NewMetrics(
			telemetry.WithRegistry(registry),
			telemetry.WithNamespace(cfg.Metrics.Namespace),
		)))
	}

	var arc *archive.Archive
	if cfg.Archive.Location != "" || cfg.Archive.Restore {
		arc, err = openArchive(ctx, "", cfg, logger)
		if err != nil {
			return err
		}
	}

	switch {
	case snapshotPath != "":
		f, err := resolveFormat("", snapshotPath, cfg.Format())
		if err != nil {
			return err
		}
		data, err := readInput(snapshotPath, cmd.InOrStdin())
		if err != nil {
			return err
		}
		snap, err := codec.DecodeSnapshot(f, data)
		if err != nil {
			return errors.New("DEM005").WithDetail(snapshotPath).Wrap(err)
		}
		opts = append(opts, democrat.WithSnapshot(snap))
	case cfg.Archive.Restore:
		snap, err := arc.LatestSnapshot(ctx, tree.Name)
		switch {
		case err == nil:
			opts = append(opts, democrat.WithSnapshot(snap))
			logger.Info("restored from archive", "store", tree.Name)
		case stderrors.Is(err, archive.ErrNotFound):
			logger.Info("no archived snapshot, starting fresh", "store", tree.Name)
		default:
			return errors.New("DEM026").WithDetail("restoring " + tree.Name).Wrap(err)
		}
	}

	in := tree.Open(opts...)
	defer in.Destroy()

	srvCfg := inspect.DefaultConfig()
	srvCfg.Address = addr
	srvCfg.Format = cfg.Format()
	srvCfg.Gatherer = registry
	srvCfg.Logger = logger
	srvCfg.Archive = arc
	srvCfg.MetricsPath = ""
	if cfg.Metrics.Enabled {
		srvCfg.MetricsPath = cfg.Metrics.Path
	}
	if cfg.Server.AllowAnyOrigin {
		srvCfg.CheckOrigin = func(*http.Request) bool { return true }
	}
	srv := inspect.New(in.Target, srvCfg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if drive > 0 {
		go driveTree(ctx, in, drive, logger)
	}

	success(cmd.ErrOrStderr(), "serving %s (store %s) on http://%s", tree.Name, in.ID(), addr)
	info(cmd.ErrOrStderr(), "state:    GET  /state")
	info(cmd.ErrOrStderr(), "snapshot: GET  /snapshot?format=%s", srvCfg.Format)
	info(cmd.ErrOrStderr(), "patches:  POST /patches, GET /patches/ws")
	if srvCfg.MetricsPath != "" {
		info(cmd.ErrOrStderr(), "metrics:  GET  %s", srvCfg.MetricsPath)
	}
	if arc != nil {
		info(cmd.ErrOrStderr(), "archive:  GET  /archive, POST /archive")
	}
	if err := srv.Run(ctx); err != nil {
		return err
	}
	cancel()
	if arc != nil {
		return archiveOnExit(arc, in, cfg.Archive.Keep, logger)
	}
	return nil
}

// archiveOnExit saves a final snapshot and prunes old ones. It runs after
// the serve context is done, so it gets its own deadline.
func archiveOnExit(arc *archive.Archive, in *demo.Instance, keep int, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key, err := arc.SaveSnapshot(ctx, in.Name(), in.GetSnapshot())
	if err != nil {
		return errors.New("DEM026").WithDetail("saving the final snapshot").Wrap(err)
	}
	logger.Info("archived final snapshot", "key", key)
	if keep > 0 {
		if _, err := arc.Prune(ctx, in.Name(), keep); err != nil {
			return errors.New("DEM026").WithDetail("pruning").Wrap(err)
		}
	}
	return nil
}

// driveTree steps the tree on every tick until ctx is done.
func driveTree(ctx context.Context, in *demo.Instance, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Debug("driving demo tree", "step", i)
			step(in, i, logger)
		}
	}
}

// step runs one scripted step. A step racing with shutdown hits a destroyed
// store; that is logged rather than crashing the process.
func step(in *demo.Instance, i int, logger *slog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("demo step failed", "step", i, "error", rec)
		}
	}()
	in.Step(i)
}
