package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "gutenberg-cache/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// CatalogConfig locates the catalog archive and its unpacked documents.
type CatalogConfig struct {
	// ArchiveURL is where the tar.bz2 archive of catalog documents is published.
	ArchiveURL string `json:"archive_url" yaml:"archive_url" mapstructure:"archive_url"`

	// ArchivePath is the local file the archive is downloaded to.
	ArchivePath string `json:"archive_path" yaml:"archive_path" mapstructure:"archive_path"`

	// UnpackDir is the directory the archive is unpacked into. Documents
	// are discovered recursively below it.
	UnpackDir string `json:"unpack_dir" yaml:"unpack_dir" mapstructure:"unpack_dir"`
}

// CacheConfig holds settings for the relational cache.
type CacheConfig struct {
	// DBPath is the SQLite database file.
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// InMemory keeps the cache in an ephemeral in-memory database and
	// ignores DBPath.
	InMemory bool `json:"in_memory" yaml:"in_memory" mapstructure:"in_memory"`
}

// TextConfig holds settings for book text retrieval.
type TextConfig struct {
	// CacheDir is where downloaded book texts are kept.
	CacheDir string `json:"cache_dir" yaml:"cache_dir" mapstructure:"cache_dir"`

	// Mirror optionally replaces scheme and host of download links
	// (e.g. "https://gutenberg.pglaf.org").
	Mirror string `json:"mirror,omitempty" yaml:"mirror,omitempty" mapstructure:"mirror"`
}

// Config groups all settings of the tool.
type Config struct {
	Catalog  CatalogConfig `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Cache    CacheConfig   `json:"cache" yaml:"cache" mapstructure:"cache"`
	Text     TextConfig    `json:"text" yaml:"text" mapstructure:"text"`
	HTTP     HTTPConfig    `json:"http" yaml:"http" mapstructure:"http"`
	LogLevel string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// DefaultConfig returns the settings used when no config file or flag
// overrides them.
func DefaultConfig() Config {
	return Config{
		Catalog: CatalogConfig{
			ArchiveURL:  "https://www.gutenberg.org/cache/epub/feeds/rdf-files.tar.bz2",
			ArchivePath: "rdf-files.tar.bz2",
			UnpackDir:   "cache",
		},
		Cache: CacheConfig{
			DBPath: "gutenbergindex.db",
		},
		Text: TextConfig{
			CacheDir: "text_cache",
		},
		HTTP: HTTPConfig{
			Timeout:    60 * time.Second,
			UserAgent:  "gutenberg-cache/0.1",
			MaxRetries: 5,
		},
		LogLevel: "info",
	}
}
