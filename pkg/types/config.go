package types

// HistoryLayout selects how verification records are laid out on disk.
type HistoryLayout string

const (
	// LayoutFiles writes one pretty-printed JSON file per run, named by
	// the run's UTC second.
	LayoutFiles HistoryLayout = "files"

	// LayoutJournal appends one JSON line per run to a single journal file.
	LayoutJournal HistoryLayout = "journal"
)

// HistoryConfig holds settings for the history store.
type HistoryConfig struct {
	// Dir is the directory holding verification records.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Layout selects files (default) or journal.
	Layout HistoryLayout `json:"layout" yaml:"layout" mapstructure:"layout"`

	// SkipCorrupt makes reads skip unreadable or unparseable records
	// instead of failing the whole read.
	SkipCorrupt bool `json:"skip_corrupt" yaml:"skip_corrupt" mapstructure:"skip_corrupt"`

	// Environment is stamped into each record's metadata (e.g. "production").
	Environment string `json:"environment" yaml:"environment" mapstructure:"environment"`
}

// IndexConfig holds settings for the SQLite history index.
type IndexConfig struct {
	// Dir contains history.db and export files.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "console" for human-readable output or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all crosscheck settings.
type Config struct {
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Index   IndexConfig   `json:"index" yaml:"index" mapstructure:"index"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
