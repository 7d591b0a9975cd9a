package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/compiler"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/memstore"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/mongostore"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/runner"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/params"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var errNoCollection = errors.New("a collection or a file is required, use --collection or --file")

func newExecCommand(a *app) *cobra.Command {
	cfg := a.cfg
	cmd := &cobra.Command{
		Use:   "exec <query>",
		Short: "Run a query string against a MongoDB collection or a JSON lines file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()

			if cfg.File != "" {
				store, err := a.fileStore(ctx)
				if err != nil {
					return err
				}
				return a.exec(ctx, store, args[0], cmd.OutOrStdout())
			}
			if cfg.Collection == "" {
				return errNoCollection
			}

			client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
			if err != nil {
				return err
			}
			defer func() {
				if err := client.Disconnect(context.Background()); err != nil {
					a.logger.WithField("err", err).Warn("could not disconnect")
				}
			}()

			storeOpts := []mongostore.Option{
				mongostore.WithCollection(client.Database(cfg.Database).Collection(cfg.Collection)),
				mongostore.WithLogger(a.logger),
			}
			for path, coll := range cfg.References {
				storeOpts = append(storeOpts, mongostore.WithReference(path, coll))
			}
			store, err := mongostore.NewStore(storeOpts...)
			if err != nil {
				return err
			}
			return a.exec(ctx, store, args[0], cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.MongoURI, "uri", cfg.MongoURI, "MongoDB connection string")
	flags.StringVar(&cfg.Database, "db", cfg.Database, "database name")
	flags.StringVarP(&cfg.Collection, "collection", "c", cfg.Collection, "collection name")
	flags.StringVarP(&cfg.File, "file", "f", cfg.File, "JSON lines file to query instead of a collection")
	flags.StringToStringVar(&cfg.References, "ref", cfg.References, "collection (or file, with --file) of a populate path, as path=collection")
	flags.BoolVar(&cfg.AllowJavaScript, "allow-js", cfg.AllowJavaScript, "let map/reduce send JavaScript to the server")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "time limit for the whole run")
	return cmd
}

// fileStore loads the documents of the configured file, along with the files
// given as references, into memory.
func (a *app) fileStore(ctx context.Context) (*memstore.Store, error) {
	opts := []memstore.Option{memstore.WithLogger(a.logger)}
	for path, file := range a.cfg.References {
		ref := memstore.NewStore(memstore.WithLogger(a.logger))
		if err := loadFile(ctx, ref, file); err != nil {
			return nil, err
		}
		opts = append(opts, memstore.WithReference(path, ref))
	}
	store := memstore.NewStore(opts...)
	if err := loadFile(ctx, store, a.cfg.File); err != nil {
		return nil, err
	}
	return store, nil
}

func loadFile(ctx context.Context, store *memstore.Store, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := store.Load(ctx, f); err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}
	return nil
}

// exec parses query and runs it against store, writing the result as JSON.
func (a *app) exec(ctx context.Context, store domain.Store, query string, w io.Writer) error {
	ps, err := params.FromQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return err
	}
	d, err := a.parser().Parse(ps)
	if err != nil {
		return err
	}

	code := compiler.NewDeny()
	if a.cfg.AllowJavaScript {
		code = compiler.NewJavaScript()
	}
	r := runner.NewRunner(
		runner.WithStore(store),
		runner.WithCompiler(code),
		runner.WithLogger(a.logger),
	)
	res, err := r.Run(ctx, d)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Value())
}
