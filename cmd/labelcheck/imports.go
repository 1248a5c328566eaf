package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/labelcheck/pkg/importer"
	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

type importFlags struct {
	all     bool
	url     string
	timeout time.Duration
}

func newImportCmd(g *globals) *cobra.Command {
	var flags importFlags
	cmd := &cobra.Command{
		Use:   "import [source-id]...",
		Short: "Import reference corpora from public sources into the SQLite store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), g, args, flags, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.BoolVar(&flags.all, "all", false, "import every source that has a URL")
	f.StringVar(&flags.url, "url", "", "source URL or local file (single source only)")
	f.DurationVar(&flags.timeout, "timeout", 30*time.Minute, "overall import timeout")
	return cmd
}

func runImport(ctx context.Context, g *globals, ids []string, flags importFlags, out io.Writer) error {
	if flags.url != "" && (flags.all || len(ids) != 1) {
		return codeError(3, "--url needs exactly one source id")
	}

	st, sdb, err := openImportDBs(g.cfg.DBPath)
	if err != nil {
		return codeError(1, "%s", err)
	}
	defer st.Close()
	defer sdb.Close()

	if !flags.all && len(ids) == 0 {
		return listSources(out, sdb)
	}

	var adapters []importer.Adapter
	if flags.all {
		adapters = importer.All()
	} else {
		for _, id := range ids {
			a, err := importer.Get(id)
			if err != nil {
				return codeError(3, "%s", err)
			}
			adapters = append(adapters, a)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, flags.timeout)
	defer cancel()

	failed := 0
	for _, a := range adapters {
		if flags.all {
			if url, _ := sdb.GetURL(a.ID()); url == "" {
				fmt.Fprintf(out, "[%s] skipped: no URL (set one with `labelcheck sources set-url`)\n", a.ID())
				continue
			}
		}
		fmt.Fprintf(out, "[%s] importing %s corpus...\n", a.ID(), a.Corpus())
		n, err := importer.Run(ctx, a, sdb, st, flags.url)
		if err != nil {
			g.logger.Error("import failed", "adapter", a.ID(), "error", err)
			failed++
			continue
		}
		fmt.Fprintf(out, "[%s] OK: %s records\n", a.ID(), humanize.Comma(int64(n)))
	}

	if g.cfg.Source != sourceSQLite {
		fmt.Fprintf(out, "\nnote: config source is %q; set source: sqlite to serve imported data\n", g.cfg.Source)
	}
	if failed > 0 {
		return codeError(1, "%d of %d imports failed", failed, len(adapters))
	}
	return nil
}

func openImportDBs(path string) (*refdata.Store, *importer.SourceDB, error) {
	st, err := openStore(path)
	if err != nil {
		return nil, nil, err
	}
	sdb, err := importer.OpenSourceDB(path)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	if err := sdb.Seed(importer.All()); err != nil {
		st.Close()
		sdb.Close()
		return nil, nil, err
	}
	return st, sdb, nil
}

func newSourcesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List import sources and their last check and import",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sdb, err := importer.OpenSourceDB(g.cfg.DBPath)
			if err != nil {
				return codeError(1, "%s", err)
			}
			defer sdb.Close()
			if err := sdb.Seed(importer.All()); err != nil {
				return codeError(1, "%s", err)
			}
			return listSources(cmd.OutOrStdout(), sdb)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-url <source-id> <url>",
		Short: "Override the URL a source is imported from",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sdb, err := importer.OpenSourceDB(g.cfg.DBPath)
			if err != nil {
				return codeError(1, "%s", err)
			}
			defer sdb.Close()
			if err := sdb.Seed(importer.All()); err != nil {
				return codeError(1, "%s", err)
			}
			if err := sdb.SetURL(args[0], args[1]); err != nil {
				return codeError(3, "%s", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] URL set to %s\n", args[0], args[1])
			return nil
		},
	})
	return cmd
}

func listSources(out io.Writer, sdb *importer.SourceDB) error {
	sources, err := sdb.ListSources()
	if err != nil {
		return codeError(1, "%s", err)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tCORPUS\tCHECKED\tIMPORTED\tURL")
	for _, src := range sources {
		checked := "never"
		if src.LastCheck != nil {
			checked = humanize.Time(time.Unix(*src.LastCheck, 0))
			if src.LastStatus != nil {
				checked += fmt.Sprintf(" [%d]", *src.LastStatus)
			}
		}
		imported := "never"
		if src.LastImport != nil {
			imported = humanize.Time(time.Unix(*src.LastImport, 0))
			switch {
			case src.ImportError != nil:
				imported += " (failed)"
			case src.ImportCount != nil:
				imported += " (" + humanize.Comma(int64(*src.ImportCount)) + " records)"
			}
		}
		url := src.SourceURL
		if url == "" {
			url = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", src.AdapterID, src.Corpus, checked, imported, url)
	}
	return tw.Flush()
}

func newStatsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Load the configured reference data and report per-corpus counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, g.cfg, g.logger)
			if err != nil {
				return codeError(1, "%s", err)
			}
			defer a.Close()

			a.cache.Snapshot(ctx)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "source: %s\n\n", g.cfg.Source)
			fmt.Fprintln(tw, "CORPUS\tRECORDS\tLOADED\tERROR")
			for _, s := range a.cache.Stats() {
				loaded := "no"
				if s.Loaded {
					loaded = humanize.Time(s.LoadedAt)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Corpus, humanize.Comma(int64(s.Records)), loaded, s.LastError)
			}
			return tw.Flush()
		},
	}
}
