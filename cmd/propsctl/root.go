package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	props "github.com/goliatone/go-props"
	"github.com/goliatone/go-props/log"
	"github.com/goliatone/go-props/pkg/boltformat"
	"github.com/goliatone/go-props/pkg/sqlformat"
)

// Environment variables read by propsctl. Flags take precedence.
const (
	envBaseDir  = "PROPS_BASE_DIR"
	envLogLevel = "PROPS_LOG_LEVEL"
)

type settings struct {
	baseDir  string
	logLevel string
}

func newRootCommand(getenv func(string) string) *cobra.Command {
	s := &settings{}
	root := &cobra.Command{
		Use:           "propsctl",
		Short:         "Inspect and convert properties files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&s.baseDir, "base-dir", getenv(envBaseDir), "directory relative paths are resolved against")
	root.PersistentFlags().StringVar(&s.logLevel, "log-level", getenv(envLogLevel), "debug, info, warn or error")

	root.AddCommand(
		newDumpCommand(s),
		newConvertCommand(s),
		newFormatsCommand(s),
	)
	return root
}

// open builds a Properties with every format propsctl knows about. Logs go
// to stderr so dump output stays clean.
func (s *settings) open(stderr io.Writer) (*props.Properties, error) {
	level, err := log.ParseLevel(s.logLevel)
	if err != nil {
		return nil, fmt.Errorf("propsctl: %w", err)
	}
	logger := log.NewZap(level, stderr)
	return props.New(props.NewWidgets(),
		props.WithLogger(logger),
		props.WithBaseDir(s.baseDir),
		props.WithFormats(boltformat.New(logger), sqlformat.New(logger)),
	), nil
}
