package main

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/democrat/internal/config"
	"github.com/vango-dev/democrat/internal/errors"
	"github.com/vango-dev/democrat/pkg/archive"
	"github.com/vango-dev/democrat/pkg/codec"
)

// openArchive opens location, falling back to archive.location from the
// config.
func openArchive(ctx context.Context, location string, cfg *config.Config, logger *slog.Logger) (*archive.Archive, error) {
	if location == "" {
		location = cfg.Archive.Location
	}
	if location == "" {
		return nil, errors.New("DEM026").
			WithDetail("no archive location").
			WithSuggestion("Pass --archive or set archive.location in democrat.yaml.")
	}
	st, err := archive.Open(ctx, location)
	if err != nil {
		return nil, errors.New("DEM026").WithDetail(location).Wrap(err)
	}
	return archive.New(st, archive.WithFormat(cfg.Format()), archive.WithLogger(logger)), nil
}

func archiveCmd(flags *globalFlags) *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List, prune and restore archived snapshots",
		Long: `Work with the snapshot archive written by 'democrat inspect --archive'
and 'democrat serve --archive'. The location is a directory, a file:// URL
or an s3://bucket/prefix URL, taken from --archive or archive.location.

Examples:
  democrat archive list counter --archive ./snapshots
  democrat archive prune counter --keep 5
  democrat archive restore todos -o todos.snapshot.yaml`,
	}
	cmd.PersistentFlags().StringVarP(&location, "archive", "a", "", "Archive location (default from config)")

	cmd.AddCommand(
		archiveListCmd(flags, &location),
		archivePruneCmd(flags, &location),
		archiveRestoreCmd(flags, &location),
	)
	return cmd
}

func archiveListCmd(flags *globalFlags, location *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list <store>",
		Short: "List the archived objects of a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			arc, err := openArchive(cmd.Context(), *location, cfg, flags.logger(cmd.ErrOrStderr(), cfg))
			if err != nil {
				return err
			}
			entries, err := arc.Entries(cmd.Context(), args[0])
			if err != nil {
				return errors.New("DEM026").WithDetail("listing " + args[0]).Wrap(err)
			}
			if len(entries) == 0 {
				info(cmd.ErrOrStderr(), "no archived objects for %s", args[0])
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tKIND\tFORMAT\tSIZE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.Key, e.Kind, e.Format, e.Size)
			}
			return tw.Flush()
		},
	}
}

func archivePruneCmd(flags *globalFlags, location *string) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune <store>",
		Short: "Delete all but the newest archived objects of a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("keep") && cfg.Archive.Keep > 0 {
				keep = cfg.Archive.Keep
			}
			if keep < 1 {
				return errors.New("DEM024").WithDetail("--keep must be at least 1")
			}
			arc, err := openArchive(cmd.Context(), *location, cfg, flags.logger(cmd.ErrOrStderr(), cfg))
			if err != nil {
				return err
			}
			deleted, err := arc.Prune(cmd.Context(), args[0], keep)
			if err != nil {
				return errors.New("DEM026").WithDetail("pruning " + args[0]).Wrap(err)
			}
			success(cmd.ErrOrStderr(), "pruned %d objects of %s, keeping %d per kind", deleted, args[0], keep)
			return nil
		},
	}
	cmd.Flags().IntVarP(&keep, "keep", "k", 10, "Objects to keep per kind")
	return cmd
}

func archiveRestoreCmd(flags *globalFlags, location *string) *cobra.Command {
	var (
		key    string
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "restore <store>",
		Short: "Write an archived snapshot to a file",
		Long: `Fetch the newest archived snapshot of a store, or the one named by
--key, and write it in the format of the output file. The result can be
passed to 'democrat serve --snapshot' or 'democrat replay --snapshot'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			f, err := resolveFormat(format, output, cfg.Format())
			if err != nil {
				return err
			}
			arc, err := openArchive(cmd.Context(), *location, cfg, flags.logger(cmd.ErrOrStderr(), cfg))
			if err != nil {
				return err
			}
			if key == "" {
				e, err := arc.Latest(cmd.Context(), args[0], archive.KindSnapshot)
				if err != nil {
					return errors.New("DEM026").WithDetail("finding the newest snapshot of " + args[0]).Wrap(err)
				}
				key = e.Key
			}
			snap, err := arc.LoadSnapshot(cmd.Context(), key)
			if err != nil {
				return errors.New("DEM026").WithDetail("loading " + key).Wrap(err)
			}
			data, err := codec.EncodeSnapshot(f, args[0], snap)
			if err != nil {
				return errors.New("DEM005").WithMessage("Cannot encode snapshot").Wrap(err)
			}
			if err := writeOutput(output, data, cmd.OutOrStdout()); err != nil {
				return err
			}
			if output != "" && output != "-" {
				success(cmd.ErrOrStderr(), "restored %s to %s", key, output)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Archive key to restore (default: newest snapshot)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the snapshot to a file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Snapshot format (default from --output or config)")
	return cmd
}
