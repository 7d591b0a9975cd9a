package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dolmen-go/contextio"
	"github.com/spf13/cobra"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/params"
)

func newParseCommand(a *app) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "parse [query...]",
		Short: "Print the descriptor of each query string",
		Long: `Print the descriptor of each query string as JSON, one per line.
Queries are read from standard input, one per line, when none is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			if len(args) > 0 {
				for _, q := range args {
					if err := a.parseOne(enc, q); err != nil {
						return err
					}
				}
				return nil
			}
			in := contextio.NewReader(cmd.Context(), cmd.InOrStdin())
			return a.parseLines(enc, in)
		},
	}
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "indent the JSON output")
	return cmd
}

func (a *app) parseLines(enc *json.Encoder, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		q := strings.TrimSpace(sc.Text())
		if q == "" {
			continue
		}
		if err := a.parseOne(enc, q); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (a *app) parseOne(enc *json.Encoder, query string) error {
	ps, err := params.FromQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return fmt.Errorf("%q: %w", query, err)
	}
	d, err := a.parser().Parse(ps)
	if err != nil {
		return fmt.Errorf("%q: %w", query, err)
	}
	return enc.Encode(d)
}
