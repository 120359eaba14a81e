// Package index wraps bleve/v2 with the dilasearch schema: the
// custom_fr analyzer, the path/body/year document mapping, and a
// single-writer/multi-reader handle matching spec section 4.5.
// Grounded on original_source/src/dumps/tarballs.rs's init_tantivy,
// adapted from tantivy's schema builder to bleve's mapping API.
package index

import (
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/length"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"
)

// AnalyzerName is the name the body field's analyzer is registered
// under, matching spec.md's "custom_fr" pipeline name exactly.
const AnalyzerName = "custom_fr"

// maxTokenBytes drops tokens longer than this many bytes, per
// spec.md 4.5.
const maxTokenBytes = 40

// frenchStopWords is a representative French function-word stoplist,
// not the exhaustive Lucene list — sufficient for this corpus's
// register (legislative and judicial prose).
var frenchStopWords = []string{
	"au", "aux", "avec", "ce", "ces", "dans", "de", "des", "du", "elle",
	"en", "et", "eux", "il", "je", "la", "le", "leur", "lui", "ma",
	"mais", "me", "même", "mes", "moi", "mon", "ne", "nos", "notre",
	"nous", "on", "ou", "par", "pas", "pour", "qu", "que", "qui", "sa",
	"se", "ses", "son", "sur", "ta", "te", "tes", "toi", "ton", "tu",
	"un", "une", "vos", "votre", "vous", "c", "d", "j", "l", "à", "m",
	"n", "s", "t", "y", "été", "étée", "étées", "étés", "étant", "suis",
	"es", "est", "sommes", "êtes", "sont", "serai", "seras", "sera",
	"serons", "serez", "seront",
}

// accentFold maps common French diacritics to their ASCII base letter.
var accentFold = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'ç': 'c',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ñ': 'n',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ý': 'y', 'ÿ': 'y',
}

func foldRune(r rune) rune {
	if folded, ok := accentFold[r]; ok {
		return folded
	}
	return r
}

// asciiFoldFilter folds non-spacing diacritical marks on each token's
// term to their ASCII base letter.
type asciiFoldFilter struct{}

func newASCIIFoldFilter() *asciiFoldFilter { return &asciiFoldFilter{} }

func (f *asciiFoldFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, token := range input {
		folded := strings.Map(foldRune, string(token.Term))
		token.Term = []byte(folded)
	}
	return input
}

func buildCustomFrAnalyzer() *analysis.Analyzer {
	stopMap := analysis.NewTokenMap()
	for _, word := range frenchStopWords {
		// The stop filter runs after accent folding, so the list is
		// folded the same way for accented entries to match.
		stopMap.AddToken(strings.Map(foldRune, word))
	}

	return &analysis.Analyzer{
		Tokenizer: unicode.NewUnicodeTokenizer(),
		TokenFilters: []analysis.TokenFilter{
			length.NewLengthFilter(1, maxTokenBytes),
			lowercase.NewLowerCaseFilter(),
			newASCIIFoldFilter(),
			stop.NewStopTokensFilter(stopMap),
		},
	}
}

func init() {
	registry.RegisterAnalyzer(AnalyzerName, func(config map[string]interface{}, cache *registry.Cache) (*analysis.Analyzer, error) {
		return buildCustomFrAnalyzer(), nil
	})
}
