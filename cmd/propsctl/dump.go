package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDumpCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <path>",
		Short: "Print the records held by a properties file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := s.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			records, err := p.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ADDRESS\tSETTER\tGETTER\tID\tCLASS\tTYPE\tVALUE")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					rec.Address(), rec.Setter(), rec.Getter(), rec.ID(), rec.Class(), rec.Type(), rec.Value())
			}
			return w.Flush()
		},
	}
}
