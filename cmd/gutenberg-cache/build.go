// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gutenberg-cache/internal/cache"
	"github.com/pdiddy/gutenberg-cache/internal/catalog"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Download the catalog and build the cache",
	Long: `Build downloads the catalog archive (unless already present), unpacks
it, extracts every ebook record and writes the SQLite cache. An existing
populated cache is reused unless --rebuild is given.`,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rebuild, _ := cmd.Flags().GetBool("rebuild")
	refresh, _ := cmd.Flags().GetBool("refresh")
	quiet, _ := cmd.Flags().GetBool("quiet")

	opts := catalog.Options{Rebuild: rebuild, Refresh: refresh}
	if !quiet {
		opts.Progress = os.Stderr
	}

	res, err := catalog.Setup(cmd.Context(), cfg, opts)
	if err != nil {
		return err
	}
	defer res.Store.Close()

	if res.Reused {
		fmt.Fprintf(os.Stdout, "Cache %s already populated (use --rebuild to rebuild)\n", res.Store.Path())
	} else {
		fmt.Fprintf(os.Stdout, "Built cache with %d books, %d titles, %d download links\n",
			res.Build.Books, res.Build.Titles, res.Build.DownloadLinks)
	}

	st, err := res.Store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	return printStats(os.Stdout, st)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the row count of every cache table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openCache(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "table", "":
			return printStats(os.Stdout, st)
		case "yaml":
			return cache.WriteYAML(os.Stdout, st)
		case "json":
			return cache.WriteJSON(os.Stdout, st)
		default:
			return fmt.Errorf("unsupported format %q: use table, yaml or json", format)
		}
	},
}

func printStats(w io.Writer, st cache.Stats) error {
	fmt.Fprintf(w, "\n%-20s  %10s\n", "Table", "Rows")
	fmt.Fprintln(w, strings.Repeat("-", 32))
	for _, t := range st.Tables {
		fmt.Fprintf(w, "%-20s  %10d\n", t.Table, t.Rows)
	}
	return nil
}

func init() {
	buildCmd.Flags().Bool("rebuild", false, "discard the existing cache and build it again")
	buildCmd.Flags().Bool("refresh", false, "download and unpack the archive even if present")
	buildCmd.Flags().Bool("quiet", false, "do not print progress")

	statsCmd.Flags().String("format", "table", "output format: table, yaml or json")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(statsCmd)
}
