package config

import (
	"fmt"
	"runtime"

	dilaerrors "github.com/standardbeagle/dilasearch/internal/errors"
)

// Validate range-checks a loaded Config and fills in auto-detected
// defaults (worker counts left at zero become runtime.NumCPU()-1, at
// least 1). It never rejects a Config for missing Piste credentials.
func Validate(cfg *Config) error {
	if err := validateProject(&cfg.Project); err != nil {
		return dilaerrors.IndexUnusable("config.validate.project", err)
	}
	if err := validateFetch(&cfg.Fetch); err != nil {
		return dilaerrors.IndexUnusable("config.validate.fetch", err)
	}
	if err := validateIndex(&cfg.Index); err != nil {
		return dilaerrors.IndexUnusable("config.validate.index", err)
	}
	if err := validateOneShot(&cfg.OneShot); err != nil {
		return dilaerrors.IndexUnusable("config.validate.oneshot", err)
	}
	if err := validateCSV(&cfg.CSV); err != nil {
		return dilaerrors.IndexUnusable("config.validate.csv", err)
	}
	if err := validatePiste(&cfg.Piste); err != nil {
		return dilaerrors.IndexUnusable("config.validate.piste", err)
	}

	setSmartDefaults(cfg)
	return nil
}

func validateProject(p *Project) error {
	if p.Root == "" {
		return fmt.Errorf("project root cannot be empty")
	}
	return nil
}

func validateFetch(f *Fetch) error {
	if f.MaxConcurrentDownloads <= 0 {
		return fmt.Errorf("fetch.max_concurrent_downloads must be positive, got %d", f.MaxConcurrentDownloads)
	}
	if f.MaxConcurrentExtractions <= 0 {
		return fmt.Errorf("fetch.max_concurrent_extractions must be positive, got %d", f.MaxConcurrentExtractions)
	}
	if f.RequestTimeoutSec <= 0 {
		return fmt.Errorf("fetch.request_timeout_sec must be positive, got %d", f.RequestTimeoutSec)
	}
	if f.BaseURL == "" {
		return fmt.Errorf("fetch.base_url cannot be empty")
	}
	return nil
}

func validateIndex(i *Index) error {
	if i.WriterMemoryMB <= 0 {
		return fmt.Errorf("index.writer_memory_mb must be positive, got %d", i.WriterMemoryMB)
	}
	return nil
}

func validateOneShot(o *OneShot) error {
	if o.WriterMemoryMB <= 0 {
		return fmt.Errorf("oneshot.writer_memory_mb must be positive, got %d", o.WriterMemoryMB)
	}
	if o.ChunkSize <= 0 {
		return fmt.Errorf("oneshot.chunk_size must be positive, got %d", o.ChunkSize)
	}
	if o.MaxConcurrentListings <= 0 {
		return fmt.Errorf("oneshot.max_concurrent_listings must be positive, got %d", o.MaxConcurrentListings)
	}
	return nil
}

func validateCSV(c *CSV) error {
	if c.ParserWorkers < 0 {
		return fmt.Errorf("csv.parser_workers cannot be negative, got %d", c.ParserWorkers)
	}
	return nil
}

func validatePiste(p *Piste) error {
	if p.MaxConcurrentPaginationFetches <= 0 {
		return fmt.Errorf("piste.max_concurrent_pagination_fetches must be positive, got %d", p.MaxConcurrentPaginationFetches)
	}
	if p.MinStepSize <= 0 {
		return fmt.Errorf("piste.min_step_size must be positive, got %d", p.MinStepSize)
	}
	// ClientID/ClientSecret may be empty: the Piste client is a leaf
	// collaborator, and missing credentials only surface when it
	// requests a token.
	return nil
}

// setSmartDefaults fills in zero-valued worker counts from the host's
// CPU count, leaving one core free, matching the teacher's own
// cores-minus-one convention.
func setSmartDefaults(cfg *Config) {
	if cfg.CSV.ParserWorkers == 0 {
		cfg.CSV.ParserWorkers = max(1, runtime.NumCPU()-1)
	}
}
