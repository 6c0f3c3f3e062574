package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/japaniel/wordlens/pkg/db"
	"github.com/japaniel/wordlens/pkg/highlight"
	"github.com/japaniel/wordlens/pkg/ingest"
	"github.com/japaniel/wordlens/pkg/page"
)

func newHighlightCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "highlight <url>",
		Short: "Fetch a page and write it with the learned words highlighted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := page.NewSession("cli", args[0], a.fetcher(), a.store)
			if err := sess.Load(cmd.Context()); err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := sess.Render(w, highlight.InjectOptions{}); err != nil {
				return err
			}

			meta := sess.Meta()
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d matches (%s)\n",
				meta.Title, sess.LastScan().Matches, strings.Join(sess.Highlighter().Words(), ", "))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the page to this file instead of stdout")
	return cmd
}

func newScanCmd(a *app) *cobra.Command {
	var urlsFile string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Count word occurrences on many pages without rendering them",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := append([]string(nil), args...)
			if urlsFile != "" {
				more, err := readURLs(urlsFile)
				if err != nil {
					return err
				}
				urls = append(urls, more...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no urls given")
			}

			ig := ingest.NewIngester(a.store, a.fetcher())
			ig.Workers = a.cfg.Ingest.Workers
			if a.cfg.Ingest.Pool == "ants" {
				ig.PoolFactory = ingest.AntsPoolFactory
			}
			if a.cfg.Ingest.BatchSize > 0 {
				ig.BatchSize = a.cfg.Ingest.BatchSize
			}
			if a.cfg.Ingest.FlushInterval > 0 {
				ig.FlushInterval = a.cfg.Ingest.FlushInterval
			}
			if !quiet {
				ig.OnProgress = func(done, total int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "\r%d/%d pages", done, total)
					if done == total {
						fmt.Fprintln(cmd.ErrOrStderr())
					}
				}
			}

			start := time.Now()
			rep, err := ig.Ingest(cmd.Context(), urls)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d pages (%d failed) in %v: %d matches, %d words met.\n",
				rep.Pages, rep.Failed, time.Since(start).Round(time.Millisecond), rep.Matches, len(rep.Changed))
			return nil
		},
	}
	cmd.Flags().StringVar(&urlsFile, "file", "", "read urls from this file, one per line")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
	return cmd
}

func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

func newSourcesCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the pages wordlens has scanned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := db.ListSources(a.conn, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "VISITS\tMATCHES\tLAST SCAN\tTITLE\tURL")
			for _, s := range sources {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
					s.Visits, s.LastMatches, s.LastScannedAt.Local().Format(time.DateTime), s.Title, s.URL)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of pages to show")
	return cmd
}
