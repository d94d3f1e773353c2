// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the gutenberg-cache CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the gutenberg-cache CLI.
var rootCmd = &cobra.Command{
	Use:   "gutenberg-cache",
	Short: "Build and query a local cache of the Project Gutenberg catalog",
	Long: `gutenberg-cache downloads the Project Gutenberg RDF catalog, extracts
the bibliographic fields of every ebook and stores them in a SQLite cache.

Use build to create the cache, query to select ebooks by language, author,
bookshelf and other fields, links to list their download links, and text to
fetch a book's plain text.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		level, err := parseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./gutenberg-cache.yaml or ~/.config/gutenberg-cache/gutenberg-cache.yaml)")
	rootCmd.PersistentFlags().String("db", "", "cache database file (overrides cache.db_path)")
	rootCmd.PersistentFlags().Bool("in-memory", false, "use an ephemeral in-memory cache")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	viper.BindPFlag("cache.db_path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("cache.in_memory", rootCmd.PersistentFlags().Lookup("in-memory"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("gutenberg-cache")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "gutenberg-cache"))
		}
	}

	// A .env file in the working directory may supply GUTENBERG_CACHE_*
	// variables; variables already set in the environment take precedence.
	_ = godotenv.Load()

	viper.SetEnvPrefix("GUTENBERG_CACHE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
