package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/gateway/http"
	"github.com/RiddheshMore/ros-component-explorer/storage"
)

// queryFlags are shared by the one-shot query commands.
type queryFlags struct {
	json bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON instead of a table")
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every component",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), "", store.ListAll(cmd.Context()), qf.json)
		},
	}
	qf.register(cmd)
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "search TERM",
		Short: "Search components by name, class, description or topic",
		Long: "Search treats TERM as a case-insensitive regular expression matched against\n" +
			"the component name, class, description and input/output topics.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), args[0], store.Search(cmd.Context(), args[0]), qf.json)
		},
	}
	qf.register(cmd)
	return cmd
}

func newDetailsCmd(opts *rootOptions) *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "details URI",
		Short: "Show every property of one component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			detail, ok := store.GetDetails(cmd.Context(), args[0])
			if !ok {
				return errors.Wrap(errors.ErrNotFound, "explorer", "details", "look up "+args[0])
			}
			return printDetail(cmd.OutOrStdout(), detail, qf.json)
		},
	}
	qf.register(cmd)
	return cmd
}

func newCountCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of components",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), store.Count(cmd.Context()))
			return err
		},
	}
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := opts.cfg.GraphFormat(); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid\n%s\n", opts.cfg)
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build %s)\n", appName, Version, BuildTime)
			return err
		},
	}
}

func (o *rootOptions) openStore(ctx context.Context) (storage.Store, error) {
	return openStore(ctx, o.cfg, o.logger, nil)
}

func printRecords(w io.Writer, term string, records []storage.Record, asJSON bool) error {
	if asJSON {
		if records == nil {
			records = []storage.Record{}
		}
		return writeJSON(w, http.SearchResponse{Term: term, Count: len(records), Components: records})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, http.StatusLine(term, len(records)))
	fmt.Fprintln(tw, "NAME\tCLASS\tDESCRIPTION\tURI")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Class, r.Description, r.URI)
	}
	return tw.Flush()
}

func printDetail(w io.Writer, d storage.Detail, asJSON bool) error {
	if asJSON {
		return writeJSON(w, d)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\n", d.Name)
	fmt.Fprintf(tw, "Class\t%s\n", d.Class)
	fmt.Fprintf(tw, "URI\t%s\n", d.URI)

	names := make([]string, 0, len(d.Properties))
	for name := range d.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(d.Properties[name], ", "))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
