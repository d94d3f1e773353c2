// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gutenberg-cache/internal/cache"
	"github.com/pdiddy/gutenberg-cache/internal/query"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Select ebooks by catalog fields",
	Long: `Query prints the catalog ids of the ebooks matching every given filter.
Filters come from flags, a YAML file (--filter) or a JSON object (--json);
flags override file and JSON values. Values must match exactly.

Example:
  gutenberg-cache query --language it --bookshelf "IT Poesia"
  gutenberg-cache query --json '{"language": "en", "author": "Jefferson, Thomas"}'`,
	RunE: runQuery,
}

// predicateFlags maps each query flag to its predicate.
var predicateFlags = []struct {
	flag  string
	pred  query.Predicate
	usage string
}{
	{"language", query.Language, "language code, e.g. en"},
	{"author", query.Author, `author name, e.g. "Jefferson, Thomas"`},
	{"title", query.Title, "title or alternative title"},
	{"subject", query.Subject, "subject heading"},
	{"publisher", query.Publisher, "publisher"},
	{"bookshelf", query.Bookshelf, "bookshelf name"},
	{"rights", query.Rights, "rights statement"},
	{"type", query.DownloadLinksType, "download link media type, e.g. image/jpeg"},
}

func runQuery(cmd *cobra.Command, args []string) error {
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		if err := query.WriteFile(save, f); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved filter to %s\n", save)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openCache(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.Query(cmd.Context(), f)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "ids", "":
		return printIDs(os.Stdout, ids)
	case "table", "yaml", "json":
		books, err := store.Describe(cmd.Context(), ids)
		if err != nil {
			return err
		}
		switch format {
		case "yaml":
			return cache.WriteYAML(os.Stdout, books)
		case "json":
			return cache.WriteJSON(os.Stdout, books)
		}
		return printBooks(os.Stdout, books)
	default:
		return fmt.Errorf("unsupported format %q: use ids, table, yaml or json", format)
	}
}

// filterFromFlags merges --filter, --json and the predicate flags, in that
// order of increasing precedence.
func filterFromFlags(cmd *cobra.Command) (query.Filter, error) {
	f := query.Filter{}

	if path, _ := cmd.Flags().GetString("filter"); path != "" {
		loaded, err := query.LoadFile(path)
		if err != nil {
			return nil, err
		}
		for p, v := range loaded {
			f[p] = v
		}
	}

	if js, _ := cmd.Flags().GetString("json"); js != "" {
		parsed, err := query.ParseJSON([]byte(js))
		if err != nil {
			return nil, err
		}
		for p, v := range parsed {
			f[p] = v
		}
	}

	for _, pf := range predicateFlags {
		if cmd.Flags().Changed(pf.flag) {
			v, _ := cmd.Flags().GetString(pf.flag)
			f[pf.pred] = v
		}
	}
	return f, nil
}

func printIDs(w io.Writer, ids []uint64) error {
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

func printBooks(w io.Writer, books []cache.Book) error {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return nil
	}

	fmt.Fprintf(w, "%-7s  %-50s  %-30s  %-5s  %s\n", "ID", "Title", "Author", "Lang", "Downloads")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, b := range books {
		title := ""
		if len(b.Titles) > 0 {
			title = truncate(b.Titles[0], 50)
		}
		fmt.Fprintf(w, "%-7d  %-50s  %-30s  %-5s  %d\n",
			b.ID, title, truncate(strings.Join(b.Authors, "; "), 30), strings.Join(b.Languages, ","), b.Downloads)
	}
	fmt.Fprintf(w, "\n%d books\n", len(books))
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func addFilterFlags(cmd *cobra.Command) {
	for _, pf := range predicateFlags {
		cmd.Flags().String(pf.flag, "", pf.usage)
	}
	cmd.Flags().String("filter", "", "YAML file of filters")
	cmd.Flags().String("json", "", "JSON object of filters")
}

func init() {
	addFilterFlags(queryCmd)
	queryCmd.Flags().String("save", "", "write the effective filter to a YAML file")
	queryCmd.Flags().String("format", "ids", "output format: ids, table, yaml or json")

	rootCmd.AddCommand(queryCmd)
}
