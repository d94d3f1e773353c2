// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gutenberg-cache/internal/httputil"
	"github.com/pdiddy/gutenberg-cache/internal/textget"
)

var textCmd = &cobra.Command{
	Use:   "text <id>",
	Short: "Print the plain text of an ebook",
	Long: `Text downloads the plain text of an ebook (or reads it from the text
cache) and prints it with the Project Gutenberg header and footer removed.
Use --raw to keep them.`,
	Args: cobra.ExactArgs(1),
	RunE: runText,
}

func runText(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetBool("raw")
	out, _ := cmd.Flags().GetString("out")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openCache(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := textget.New(httputil.NewClient(cfg.HTTP, slog.Default()), cfg.Text, slog.Default())
	if err != nil {
		return err
	}
	text, err := client.Text(cmd.Context(), store, ids[0], !raw)
	if err != nil {
		return err
	}

	if out != "" {
		if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", out)
		return nil
	}
	_, err = fmt.Fprintln(os.Stdout, text)
	return err
}

func init() {
	textCmd.Flags().Bool("raw", false, "keep the Project Gutenberg header and footer")
	textCmd.Flags().String("out", "", "write the text to a file instead of stdout")

	rootCmd.AddCommand(textCmd)
}
