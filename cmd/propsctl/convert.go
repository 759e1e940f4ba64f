package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConvertCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Re-encode a properties file; the output format follows the extension of <out>",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := s.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			records, err := p.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := args[1]
			format, err := p.FormatFor(out)
			if err != nil {
				return err
			}
			path := resolve(s.baseDir, out)
			if err := format.Compile(cmd.Context(), records, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records written to %s (%s)\n", len(records), path, format.Name())
			return nil
		},
	}
}
