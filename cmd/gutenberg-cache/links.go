// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gutenberg-cache/internal/cache"
)

var linksCmd = &cobra.Command{
	Use:   "links <id>...",
	Short: "List the download links of ebooks",
	Long: `Links prints the download links of the given catalog ids. Use --type
(repeatable) to keep only links of the given media types, or --text for the
plain text types.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLinks,
}

func runLinks(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	typeNames, _ := cmd.Flags().GetStringSlice("type")
	if text, _ := cmd.Flags().GetBool("text"); text {
		typeNames = append(typeNames, cache.DefaultTextTypes...)
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

	typeIDs, err := store.FileTypeIDs(cmd.Context(), typeNames)
	if err != nil {
		return err
	}
	links, err := store.DownloadLinks(cmd.Context(), ids, typeIDs)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "":
		return printLinks(os.Stdout, links)
	case "yaml":
		return cache.WriteYAML(os.Stdout, links)
	case "json":
		return cache.WriteJSON(os.Stdout, links)
	default:
		return fmt.Errorf("unsupported format %q: use table, yaml or json", format)
	}
}

func parseIDs(args []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(strings.TrimSpace(a), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid catalog id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printLinks(w io.Writer, links []cache.Link) error {
	if len(links) == 0 {
		fmt.Fprintln(w, "No links found.")
		return nil
	}
	fmt.Fprintf(w, "%-7s  %-32s  %s\n", "ID", "Type", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, l := range links {
		typ := l.Type
		if typ == "" {
			typ = "(unknown)"
		}
		fmt.Fprintf(w, "%-7d  %-32s  %s\n", l.CatalogID, typ, l.URL)
	}
	return nil
}

func init() {
	linksCmd.Flags().StringSlice("type", nil, "media type to keep (repeatable)")
	linksCmd.Flags().Bool("text", false, "keep plain text links only")
	linksCmd.Flags().String("format", "table", "output format: table, yaml or json")

	rootCmd.AddCommand(linksCmd)
}
