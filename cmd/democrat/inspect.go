package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/democrat/internal/demo"
	"github.com/vango-dev/democrat/internal/errors"
	"github.com/vango-dev/democrat/pkg/codec"
	"github.com/vango-dev/democrat/pkg/democrat"
)

func inspectCmd(flags *globalFlags) *cobra.Command {
	var (
		steps       int
		format      string
		output      string
		patchesPath string
		stateOnly   bool
		archiveLoc  string
	)

	cmd := &cobra.Command{
		Use:   "inspect [tree]",
		Short: "Run a demo tree and print its snapshot",
		Long: `Run one of the built-in demo trees for a number of scripted steps,
then print its snapshot envelope. The recorded patches can be written
to a file and replayed later with 'democrat replay'.

Available trees: ` + strings.Join(demo.Names(), ", ") + `

Examples:
  democrat inspect counter --steps 3
  democrat inspect todos --steps 4 --format yaml
  democrat inspect app --steps 6 --output app.snapshot.msgpack --patches app.patches.json
  democrat inspect todos --steps 2 --state
  democrat inspect todos --steps 4 --archive ./snapshots`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			treeName := cfg.Demo.Tree
			if len(args) == 1 {
				treeName = args[0]
			}
			tree, err := lookupTree(treeName)
			if err != nil {
				return err
			}
			f, err := resolveFormat(format, output, cfg.Format())
			if err != nil {
				return err
			}

			sched := democrat.NewManualScheduler()
			in := tree.Open(
				democrat.WithScheduler(sched),
				democrat.WithLogger(flags.logger(cmd.ErrOrStderr(), cfg)),
			)
			defer in.Destroy()

			var recorded []democrat.Patch
			in.SubscribePatches(func(ps []democrat.Patch) { recorded = append(recorded, ps...) })
			sched.Flush()
			for i := 0; i < steps; i++ {
				in.Step(i)
				sched.Flush()
			}

			if patchesPath != "" {
				pf, err := resolveFormat("", patchesPath, f)
				if err != nil {
					return err
				}
				data, err := codec.EncodePatches(pf, in.Name(), recorded)
				if err != nil {
					return errors.New("DEM005").WithMessage("Cannot encode patches").Wrap(err)
				}
				if err := writeOutput(patchesPath, data, cmd.OutOrStdout()); err != nil {
					return err
				}
			}

			if cmd.Flags().Changed("archive") {
				arc, err := openArchive(cmd.Context(), archiveLoc, cfg, flags.logger(cmd.ErrOrStderr(), cfg))
				if err != nil {
					return err
				}
				key, err := arc.SaveSnapshot(cmd.Context(), in.Name(), in.GetSnapshot())
				if err != nil {
					return errors.New("DEM026").WithDetail("saving snapshot").Wrap(err)
				}
				info(cmd.ErrOrStderr(), "archived snapshot %s", key)
				if len(recorded) > 0 {
					key, err := arc.SavePatches(cmd.Context(), in.Name(), recorded)
					if err != nil {
						return errors.New("DEM026").WithDetail("saving patches").Wrap(err)
					}
					info(cmd.ErrOrStderr(), "archived %d patches %s", len(recorded), key)
				}
			}

			if stateOnly {
				return printState(cmd, in.State())
			}

			data, err := codec.EncodeSnapshot(f, in.Name(), in.GetSnapshot())
			if err != nil {
				return errors.New("DEM005").WithMessage("Cannot encode snapshot").Wrap(err)
			}
			if err := writeOutput(output, data, cmd.OutOrStdout()); err != nil {
				return err
			}
			if output != "" && output != "-" {
				success(cmd.ErrOrStderr(), "wrote %s snapshot of %s after %d steps to %s", f, in.Name(), steps, output)
				if patchesPath != "" {
					info(cmd.ErrOrStderr(), "%d patches recorded in %s", len(recorded), patchesPath)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "Number of scripted steps to run")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Snapshot format: json, yaml or msgpack (default from --output or config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the snapshot to a file instead of stdout")
	cmd.Flags().StringVarP(&patchesPath, "patches", "p", "", "Also write the recorded patches to this file")
	cmd.Flags().BoolVar(&stateOnly, "state", false, "Print the state as JSON instead of the snapshot")
	cmd.Flags().StringVar(&archiveLoc, "archive", "", "Also save the snapshot and patches to this archive (empty: archive.location)")

	return cmd
}

// printState writes state as indented JSON.
func printState(cmd *cobra.Command, state any) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.New("DEM005").WithMessage("Cannot encode state").WithDetail("State fields holding setters or dispatchers need a `json:\"-\"` tag.").Wrap(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
