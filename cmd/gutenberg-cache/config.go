// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/gutenberg-cache/internal/cache"
	"github.com/pdiddy/gutenberg-cache/internal/catalog"
	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// setDefaults registers every configuration key with its default so that
// environment variables and Unmarshal see the full key set.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("catalog.archive_url", d.Catalog.ArchiveURL)
	v.SetDefault("catalog.archive_path", d.Catalog.ArchivePath)
	v.SetDefault("catalog.unpack_dir", d.Catalog.UnpackDir)
	v.SetDefault("cache.db_path", d.Cache.DBPath)
	v.SetDefault("cache.in_memory", d.Cache.InMemory)
	v.SetDefault("text.cache_dir", d.Text.CacheDir)
	v.SetDefault("text.mirror", d.Text.Mirror)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.max_retries", d.HTTP.MaxRetries)
	v.SetDefault("log_level", d.LogLevel)
}

// decodeConfig unmarshals v into a Config.
func decodeConfig(v *viper.Viper) (types.Config, error) {
	setDefaults(v, types.DefaultConfig())
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

func loadConfig() (types.Config, error) {
	return decodeConfig(viper.GetViper())
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: use debug, info, warn or error", s)
	}
	return level, nil
}

// openCache returns the configured cache, building it first when it is
// empty or in memory.
func openCache(ctx context.Context, cfg types.Config) (*cache.Store, error) {
	res, err := catalog.Setup(ctx, cfg, catalog.Options{Progress: os.Stderr})
	if err != nil {
		return nil, err
	}
	return res.Store, nil
}
