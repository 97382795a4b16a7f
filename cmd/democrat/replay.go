package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/democrat/internal/errors"
	"github.com/vango-dev/democrat/pkg/codec"
	"github.com/vango-dev/democrat/pkg/democrat"
)

func replayCmd(flags *globalFlags) *cobra.Command {
	var (
		treeName     string
		snapshotPath string
		format       string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "replay <patches-file>",
		Short: "Apply recorded patches to a fresh demo tree",
		Long: `Mount a demo tree, optionally from a snapshot file, apply every patch
from a patch envelope, and print the resulting state as JSON.

Use "-" to read the patches from stdin.

Examples:
  democrat inspect todos --steps 4 --patches todos.patches.yaml > /dev/null
  democrat replay todos.patches.yaml --tree todos
  democrat replay todos.patches.yaml --tree todos --output todos.snapshot.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if treeName == "" {
				treeName = cfg.Demo.Tree
			}
			tree, err := lookupTree(treeName)
			if err != nil {
				return err
			}

			pf, err := resolveFormat(format, args[0], cfg.Format())
			if err != nil {
				return err
			}
			data, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			patches, err := codec.DecodePatches(pf, data)
			if err != nil {
				return errors.New("DEM005").WithDetail(args[0]).Wrap(err)
			}

			logger := flags.logger(cmd.ErrOrStderr(), cfg)
			opts := []democrat.Option{
				democrat.WithLogger(logger),
				democrat.WithPatchErrorHandler(func(p democrat.Patch, err error) {
					logger.Warn("skipped patch", "kind", p.Kind, "hook", p.HookIndex, "error", err)
				}),
			}
			if snapshotPath != "" {
				sf, err := resolveFormat("", snapshotPath, cfg.Format())
				if err != nil {
					return err
				}
				raw, err := readInput(snapshotPath, cmd.InOrStdin())
				if err != nil {
					return err
				}
				snap, err := codec.DecodeSnapshot(sf, raw)
				if err != nil {
					return errors.New("DEM005").WithDetail(snapshotPath).Wrap(err)
				}
				opts = append(opts, democrat.WithSnapshot(snap))
			}

			sched := democrat.NewManualScheduler()
			in := tree.Open(append(opts, democrat.WithScheduler(sched))...)
			defer in.Destroy()
			sched.Flush()

			in.ApplyPatches(patches)
			sched.Flush()
			logger.Debug("replayed patches", "tree", tree.Name, "patches", len(patches))

			if output != "" {
				of, err := resolveFormat("", output, cfg.Format())
				if err != nil {
					return err
				}
				snap, err := codec.EncodeSnapshot(of, in.Name(), in.GetSnapshot())
				if err != nil {
					return errors.New("DEM005").WithMessage("Cannot encode snapshot").Wrap(err)
				}
				if err := writeOutput(output, snap, cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			return printState(cmd, in.State())
		},
	}

	cmd.Flags().StringVarP(&treeName, "tree", "t", "", "Demo tree to replay into (default from config)")
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Start from this snapshot file")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Format of the patches file (default from its extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write the resulting snapshot to this file")

	return cmd
}
