/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/tomoncle/sqlrepo"
	"github.com/tomoncle/sqlrepo/database"
	"github.com/tomoncle/sqlrepo/dialect"
	"github.com/tomoncle/sqlrepo/query"
	"github.com/tomoncle/sqlrepo/types"
	"github.com/tomoncle/sqlrepo/utils"
)

var errUsage = errors.New("usage")

// Runner holds the dependencies of the CLI commands.
type Runner struct {
	registry *dialect.Registry
	indexer  *query.Indexer
	logger   utils.Logger
	output   io.Writer
}

func NewRunner(output io.Writer, logger utils.Logger) *Runner {
	if logger == nil {
		logger = utils.NopLogger
	}
	return &Runner{
		registry: dialect.Default(),
		indexer:  query.NewIndexer(),
		logger:   logger,
		output:   output,
	}
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.output, format, args...)
}

func dialectFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "dialect",
		Aliases:  []string{"d"},
		Usage:    "Dialect name, alias or connection URL",
		Required: true,
	}
}

func (r *Runner) Command() *cli.Command {
	return &cli.Command{
		Name:  "sqlrepo",
		Usage: "Inspect dialect SQL, named conditions and configured data sources",
		Commands: []*cli.Command{
			{
				Name:   "dialects",
				Usage:  "List registered dialects and their capabilities",
				Action: r.Dialects,
			},
			{
				Name:      "limit",
				Usage:     "Print the paginated form of a query",
				ArgsUsage: "<sql>",
				Flags: []cli.Flag{
					dialectFlag(),
					&cli.IntFlag{Name: "offset", Usage: "Rows to skip"},
					&cli.IntFlag{Name: "count", Usage: "Rows to return", Value: 10},
				},
				Action: r.Limit,
			},
			{
				Name:      "sequence",
				Usage:     "Print the SQL fetching the next value of a sequence",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{dialectFlag()},
				Action:    r.Sequence,
			},
			{
				Name:      "index",
				Usage:     "Translate a condition with :name placeholders",
				ArgsUsage: "<condition>",
				Action:    r.Index,
			},
			{
				Name:  "ping",
				Usage: "Open the configured data sources and report their health",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "sqlrepo.yaml",
					},
				},
				Action: r.Ping,
			},
		},
	}
}

func argument(cmd *cli.Command, what string) (string, error) {
	arg := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if arg == "" {
		return "", fmt.Errorf("%w: %s is required", errUsage, what)
	}
	return arg, nil
}

func (r *Runner) Dialects(_ context.Context, _ *cli.Command) error {
	w := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tLIMIT\tMAX_BOUND\tSEQUENCE\tPLACEHOLDER\tTEST QUERY")
	for _, name := range r.registry.Names() {
		d, err := r.registry.Lookup(name)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%s\t%t\t%t\t%t\t%s\t%s\n", d.Name(), d.SupportsLimit(), d.UseMaxForLimit(),
			d.SupportsSequence(), d.Placeholder(1), d.TestQuery())
	}
	return w.Flush()
}

func (r *Runner) Limit(_ context.Context, cmd *cli.Command) error {
	d, err := r.registry.Resolve(cmd.String("dialect"))
	if err != nil {
		return err
	}
	sql, err := argument(cmd, "sql")
	if err != nil {
		return err
	}
	limit, err := types.NewLimit(int(cmd.Int("offset")), int(cmd.Int("count")))
	if err != nil {
		return err
	}
	if !d.SupportsLimit() {
		r.printf("%s\n-- %s has no LIMIT support, rows %s are capped client side\n", sql, d.Name(), limit)
		return nil
	}
	text, args := dialect.Paginate(d, sql, limit)
	r.printf("%s\n-- args: %v\n", dialect.Rebind(d, text), args)
	return nil
}

func (r *Runner) Sequence(_ context.Context, cmd *cli.Command) error {
	d, err := r.registry.Resolve(cmd.String("dialect"))
	if err != nil {
		return err
	}
	name, err := argument(cmd, "sequence name")
	if err != nil {
		return err
	}
	stmt, err := d.SequenceNextVal(name)
	if err != nil {
		return err
	}
	frag, err := d.SelectSequenceNextVal(name)
	if err != nil {
		return err
	}
	r.printf("%s\n-- select fragment: %s\n", stmt, frag)
	return nil
}

func (r *Runner) Index(_ context.Context, cmd *cli.Command) error {
	condition, err := argument(cmd, "condition")
	if err != nil {
		return err
	}
	iq, err := r.indexer.Index(condition)
	if err != nil {
		return err
	}
	r.printf("%s\n", iq.Query)
	for i, name := range iq.Names() {
		r.printf("%d\t%s\n", i, name)
	}
	return nil
}

func (r *Runner) Ping(ctx context.Context, cmd *cli.Command) error {
	m, err := sqlrepo.Load(ctx, cmd.String("config"), sqlrepo.WithLogger(r.logger))
	if err != nil {
		return err
	}
	defer m.Close()

	def := m.DefaultSource()
	for _, src := range m.Sources() {
		marker := ""
		if def != nil && src.Name() == def.Name() {
			marker = " (default)"
		}
		ds, ok := src.(*database.DataSource)
		if !ok {
			continue
		}
		status := ds.HealthCheck(ctx)
		d, err := r.registry.ForSource(ctx, ds)
		name := "unknown"
		if err == nil {
			name = d.Name()
		}
		r.printf("%s%s\tdialect=%s\thealthy=%t\tresponse=%s", src.Name(), marker, name, status.Healthy, status.ResponseTime)
		if status.LastError != "" {
			r.printf("\terror=%s", status.LastError)
		}
		r.printf("\n")
	}
	return nil
}
