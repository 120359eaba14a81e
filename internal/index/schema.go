package index

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Document is the indexed projection of a parsed record: its
// extraction-relative path, the French-analyzed body text, and the
// year extracted from the raw XML, matching the "Index document" in
// the data model.
type Document struct {
	Path string `json:"path"`
	Body string `json:"body"`
	Year int    `json:"year"`
}

// buildMapping constructs the dilasearch schema: path is a stored,
// untokenized keyword field; body is stored and indexed with
// positions through custom_fr; year is a stored, indexed numeric
// field with doc values (bleve's analogue of a "fast" field).
func buildMapping() *mapping.IndexMappingImpl {
	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	pathField.IncludeInAll = false

	bodyField := bleve.NewTextFieldMapping()
	bodyField.Analyzer = AnalyzerName
	bodyField.Store = true
	bodyField.IncludeTermVectors = true

	yearField := bleve.NewNumericFieldMapping()
	yearField.Store = true
	yearField.Index = true
	yearField.DocValues = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("path", pathField)
	doc.AddFieldMappingsAt("body", bodyField)
	doc.AddFieldMappingsAt("year", yearField)

	idxMapping := bleve.NewIndexMapping()
	idxMapping.DefaultMapping = doc
	idxMapping.DefaultAnalyzer = AnalyzerName
	return idxMapping
}
