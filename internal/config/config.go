package config

import (
	"os"
)

// Config is the root configuration for dilasearch, loaded from a KDL
// config file and falling back to documented defaults when no file is
// present. It covers the persistent pipeline (C7), the one-shot
// orchestrator (C8), and the secondary Piste client (C10).
type Config struct {
	Project Project
	Fetch   Fetch
	Index   Index
	OneShot OneShot
	CSV     CSV
	Piste   Piste
}

// Project controls where the persistent pipeline keeps its working
// state: downloaded tarballs, extracted records, and the bleve index.
type Project struct {
	Root string // base directory; tarballs/, extracted/, index/ live under it
}

// Fetch controls C2's archive-listing and download concurrency.
type Fetch struct {
	MaxConcurrentDownloads   int    // default 10
	MaxConcurrentExtractions int    // default 10
	RequestTimeoutSec        int    // default 60
	BaseURL                  string // DILA opendata base URL
}

// Index controls C5's writer memory budget.
type Index struct {
	WriterMemoryMB int // default 50
}

// OneShot controls C8's ephemeral chunked run.
type OneShot struct {
	WriterMemoryMB         int // default 100, larger since the index is discarded per chunk
	ChunkSize             int // tarballs processed per chunk, default 20
	MaxConcurrentListings int // default 10
}

// CSV controls the finalization worker pool shared by C7's csv command
// and C8's final CSV pass after its last chunk.
type CSV struct {
	ParserWorkers int // default DefaultCSVParserWorkers; 0 is replaced by runtime.NumCPU()-1 (at least 1) in Validate
}

// Piste holds OAuth credentials and tuning for the secondary
// Légifrance API client (C10). Nothing here is checked for emptiness;
// the credentials are only tested when the client requests a token.
type Piste struct {
	ClientID                       string
	ClientSecret                   string
	TokenURL                       string
	BaseURL                        string
	MaxConcurrentPaginationFetches int // default 5
	MinStepSize                    int // floor for nextStepSize, default 1
}

// Default values, named so config.go and kdl_config.go agree on them
// and so tests can assert against named constants rather than magic
// numbers.
const (
	DefaultMaxConcurrentDownloads   = 10
	DefaultMaxConcurrentExtractions = 10
	DefaultRequestTimeoutSec        = 60
	DefaultBaseURL                  = "https://echanges.dila.gouv.fr/OPENDATA"

	DefaultIndexWriterMemoryMB = 50

	DefaultOneShotWriterMemoryMB        = 100
	DefaultOneShotChunkSize             = 20
	DefaultOneShotMaxConcurrentListings = 10

	DefaultCSVParserWorkers = 5

	DefaultPisteTokenURL                       = "https://oauth.piste.gouv.fr/api/oauth/token"
	DefaultPisteBaseURL                        = "https://api.piste.gouv.fr/dila/legifrance/lf-engine-app"
	DefaultPisteMaxConcurrentPaginationFetches = 5
	DefaultPisteMinStepSize                    = 1
)

// Default returns a Config populated entirely with the documented
// defaults, rooted at the current working directory.
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		Project: Project{Root: cwd},
		Fetch: Fetch{
			MaxConcurrentDownloads:   DefaultMaxConcurrentDownloads,
			MaxConcurrentExtractions: DefaultMaxConcurrentExtractions,
			RequestTimeoutSec:        DefaultRequestTimeoutSec,
			BaseURL:                  DefaultBaseURL,
		},
		Index: Index{
			WriterMemoryMB: DefaultIndexWriterMemoryMB,
		},
		OneShot: OneShot{
			WriterMemoryMB:        DefaultOneShotWriterMemoryMB,
			ChunkSize:             DefaultOneShotChunkSize,
			MaxConcurrentListings: DefaultOneShotMaxConcurrentListings,
		},
		CSV: CSV{
			ParserWorkers: DefaultCSVParserWorkers,
		},
		Piste: Piste{
			TokenURL:                       DefaultPisteTokenURL,
			BaseURL:                        DefaultPisteBaseURL,
			MaxConcurrentPaginationFetches: DefaultPisteMaxConcurrentPaginationFetches,
			MinStepSize:                    DefaultPisteMinStepSize,
		},
	}
}

// Load reads dilasearch.kdl from dir (falling back to defaults if the
// file is absent) and validates the result.
func Load(dir string) (*Config, error) {
	cfg, err := LoadKDL(dir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = Default()
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
