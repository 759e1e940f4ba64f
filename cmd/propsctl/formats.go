package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	props "github.com/goliatone/go-props"
)

func newFormatsCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the registered storage formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := s.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			for _, format := range p.Formats() {
				note := ""
				if exp, ok := format.(props.Experimental); ok && exp.Experimental() {
					note = " (experimental)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s%s\n", format.Extension(), format.Name(), note)
			}
			return nil
		},
	}
}

func resolve(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}
