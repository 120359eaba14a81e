package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DefaultConfigPasses(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
}

func TestValidate_EmptyProjectRootFails(t *testing.T) {
	cfg := Default()
	cfg.Project.Root = ""
	assert.Error(t, Validate(cfg))
}

func TestValidateFetch(t *testing.T) {
	assert.NoError(t, validateFetch(&Fetch{
		MaxConcurrentDownloads:   10,
		MaxConcurrentExtractions: 10,
		RequestTimeoutSec:        60,
		BaseURL:                  "https://echanges.dila.gouv.fr/OPENDATA",
	}))

	assert.Error(t, validateFetch(&Fetch{MaxConcurrentDownloads: 0}))
	assert.Error(t, validateFetch(&Fetch{MaxConcurrentDownloads: 1, MaxConcurrentExtractions: 0}))
	assert.Error(t, validateFetch(&Fetch{MaxConcurrentDownloads: 1, MaxConcurrentExtractions: 1, RequestTimeoutSec: 0}))
	assert.Error(t, validateFetch(&Fetch{MaxConcurrentDownloads: 1, MaxConcurrentExtractions: 1, RequestTimeoutSec: 1, BaseURL: ""}))
}

func TestValidateIndex(t *testing.T) {
	assert.NoError(t, validateIndex(&Index{WriterMemoryMB: 50}))
	assert.Error(t, validateIndex(&Index{WriterMemoryMB: 0}))
}

func TestValidateOneShot(t *testing.T) {
	assert.NoError(t, validateOneShot(&OneShot{WriterMemoryMB: 100, ChunkSize: 20, MaxConcurrentListings: 5}))
	assert.Error(t, validateOneShot(&OneShot{WriterMemoryMB: 0, ChunkSize: 20, MaxConcurrentListings: 5}))
	assert.Error(t, validateOneShot(&OneShot{WriterMemoryMB: 100, ChunkSize: 0, MaxConcurrentListings: 5}))
	assert.Error(t, validateOneShot(&OneShot{WriterMemoryMB: 100, ChunkSize: 20, MaxConcurrentListings: 0}))
}

func TestValidateCSV(t *testing.T) {
	assert.NoError(t, validateCSV(&CSV{ParserWorkers: 0}))
	assert.NoError(t, validateCSV(&CSV{ParserWorkers: 4}))
	assert.Error(t, validateCSV(&CSV{ParserWorkers: -1}))
}

func TestValidatePiste(t *testing.T) {
	assert.NoError(t, validatePiste(&Piste{MaxConcurrentPaginationFetches: 5, MinStepSize: 1}))
	assert.Error(t, validatePiste(&Piste{MaxConcurrentPaginationFetches: 0, MinStepSize: 1}))
	assert.Error(t, validatePiste(&Piste{MaxConcurrentPaginationFetches: 5, MinStepSize: 0}))

	// Missing credentials are allowed: Piste is a leaf collaborator,
	// so empty credentials are not a validation failure.
	assert.NoError(t, validatePiste(&Piste{MaxConcurrentPaginationFetches: 5, MinStepSize: 1, ClientID: "", ClientSecret: ""}))
}

func TestSetSmartDefaults_FillsCSVWorkers(t *testing.T) {
	cfg := Default()
	cfg.CSV.ParserWorkers = 0
	setSmartDefaults(cfg)
	assert.Greater(t, cfg.CSV.ParserWorkers, 0)
}
