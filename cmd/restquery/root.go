package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/parser"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/logging"
)

// app holds what every subcommand shares once flags are read.
type app struct {
	cfg    *configuration
	logger logrus.FieldLogger
}

func (a *app) parser() domain.Parser {
	return parser.NewParser(
		parser.WithLogger(a.logger),
		parser.WithDefaultLimit(a.cfg.DefaultLimit),
		parser.WithIgnoredKeys(a.cfg.IgnoredKeys...),
	)
}

func newRootCommand(cfg *configuration) *cobra.Command {
	a := &app{cfg: cfg, logger: logging.Discard()}

	cmd := &cobra.Command{
		Use:   "restquery",
		Short: "Turn REST query strings into document store queries",
		Long: `restquery reads URL query strings such as "name={i}ann&l=10&s=-age"
and prints the query descriptor they describe, or runs it against a
MongoDB collection or a JSON lines file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogJSON)
			if err != nil {
				return err
			}
			a.logger = l
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warning, error)")
	flags.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "write log entries as JSON")
	flags.Int64Var(&cfg.DefaultLimit, "limit", cfg.DefaultLimit, "limit used when a query sets none")
	flags.StringSliceVar(&cfg.IgnoredKeys, "ignore", cfg.IgnoredKeys, "query keys that never become conditions")

	cmd.AddCommand(newParseCommand(a))
	cmd.AddCommand(newExecCommand(a))

	return cmd
}
