package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/democrat/internal/errors"
	"github.com/vango-dev/democrat/pkg/codec"
)

func convertCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a snapshot or patch file between formats",
		Long: `Re-encode a snapshot or patch envelope. Formats are taken from the file
extensions (.json, .yaml, .yml, .msgpack) unless --from or --to is set.
Use "-" for stdin or stdout.

Examples:
  democrat convert app.snapshot.json app.snapshot.yaml
  democrat convert todos.patches.msgpack - --to json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			src, err := resolveFormat(from, in, "")
			if err != nil {
				return err
			}
			dst, err := resolveFormat(to, out, "")
			if err != nil {
				return err
			}
			if src == "" || dst == "" {
				return errors.New("DEM021").
					WithDetail("cannot infer the format of " + in + " or " + out).
					WithSuggestion("Pass --from and --to, or use a .json, .yaml or .msgpack extension.")
			}

			data, err := readInput(in, cmd.InOrStdin())
			if err != nil {
				return err
			}
			converted, err := codec.Convert(data, src, dst)
			if err != nil {
				return errors.New("DEM005").WithDetail(in).Wrap(err)
			}
			if err := writeOutput(out, converted, cmd.OutOrStdout()); err != nil {
				return err
			}
			if out != "-" {
				success(cmd.ErrOrStderr(), "converted %s (%s) to %s (%s)", in, src, out, dst)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Input format: json, yaml or msgpack")
	cmd.Flags().StringVar(&to, "to", "", "Output format: json, yaml or msgpack")

	return cmd
}
