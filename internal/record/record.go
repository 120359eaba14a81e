// Package record parses an extracted DILA XML file into a typed
// metadata+body record. Grounded on
// original_source/src/dumps/extractor.rs's single-element state
// machine and law_extraction module.
package record

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	dilaerrors "github.com/standardbeagle/dilasearch/internal/errors"
)

// DilaRecord is the parsed metadata+body projection of a single DILA
// XML document.
type DilaRecord struct {
	ID                     string
	OldID                  string
	Origin                 string
	URL                    string
	Nature                 string
	Title                  string
	DecisionDate           string
	Jurisdiction           string
	JuriCode               string
	Requester              string
	President              string
	Lawyers                string
	Rapporteur             string
	GovernmentCommissioner string
	ECLICode               string
	Text                   string
}

// readingState names the element the parser is currently inside, or
// "" for idle. Modeled as a tagged variant over the recognized field
// identifiers, per the single-state-at-a-time design.
type readingState string

const (
	stateNone                   readingState = ""
	stateID                     readingState = "ID"
	stateOldID                  readingState = "ANCIEN_ID"
	stateOrigin                 readingState = "ORIGINE"
	stateURL                    readingState = "URL"
	stateNature                 readingState = "NATURE"
	stateTitle                  readingState = "TITRE"
	stateDecisionDate           readingState = "DATE_DEC"
	stateJurisdiction           readingState = "JURIDICTION"
	stateJuriCode               readingState = "NUMERO"
	stateRequester              readingState = "DEMANDEUR"
	statePresident              readingState = "PRESIDENT"
	stateLawyers                readingState = "AVOCATS"
	stateRapporteur             readingState = "RAPPORTEUR"
	stateGovernmentCommissioner readingState = "COMMISSAIRE_GVT"
	stateECLICode               readingState = "ECLI"
	stateText                   readingState = "CONTENU"
)

func eventToReadingState(tag string) readingState {
	switch tag {
	case string(stateID), string(stateOldID), string(stateOrigin), string(stateURL),
		string(stateNature), string(stateTitle), string(stateDecisionDate),
		string(stateJurisdiction), string(stateJuriCode), string(stateRequester),
		string(statePresident), string(stateLawyers), string(stateRapporteur),
		string(stateGovernmentCommissioner), string(stateECLICode), string(stateText):
		return readingState(tag)
	default:
		return stateNone
	}
}

func (r *DilaRecord) apply(state readingState, text string) {
	switch state {
	case stateID:
		r.ID = text
	case stateOldID:
		r.OldID = text
	case stateOrigin:
		r.Origin = text
	case stateURL:
		r.URL = text
	case stateNature:
		r.Nature = text
	case stateTitle:
		r.Title = text
	case stateDecisionDate:
		r.DecisionDate = text
	case stateJurisdiction:
		r.Jurisdiction = text
	case stateJuriCode:
		r.JuriCode = text
	case stateRequester:
		r.Requester = text
	case statePresident:
		r.President = text
	case stateLawyers:
		r.Lawyers = text
	case stateRapporteur:
		r.Rapporteur = text
	case stateGovernmentCommissioner:
		r.GovernmentCommissioner = text
	case stateECLICode:
		r.ECLICode = text
	case stateText:
		r.Text += text
	}
}

// Parse requires a .xml extension and drives a streaming XML decoder
// over file's contents, reducing it to a DilaRecord via the
// single-element reading-state machine. EOF terminates parsing
// successfully even if optional fields are absent.
func Parse(file string) (*DilaRecord, error) {
	if filepath.Ext(file) != ".xml" {
		return nil, dilaerrors.XMLMalformed("record.parse", file, fmt.Errorf("not a .xml file"))
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, dilaerrors.XMLMalformed("record.parse", file, err)
	}
	defer f.Close()

	rec, err := ParseReader(f)
	if err != nil {
		return nil, dilaerrors.XMLMalformed("record.parse", file, err)
	}
	return rec, nil
}

// ParseReader drives the same state machine as Parse over an
// arbitrary io.Reader, letting callers parse in-memory bodies (tests,
// one-shot ephemeral buffers) without touching disk.
func ParseReader(r io.Reader) (*DilaRecord, error) {
	rec := &DilaRecord{}
	state := stateNone

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if s := eventToReadingState(t.Name.Local); s != stateNone {
				state = s
			}
		case xml.EndElement:
			if eventToReadingState(t.Name.Local) == state {
				state = stateNone
			}
		case xml.CharData:
			if state != stateNone {
				rec.apply(state, string(t))
			}
		}
	}

	return rec, nil
}

// CountTags increments counter for both the start and end event of
// every element encountered in file; the sum across a well-formed
// document is therefore twice the number of elements for each tag.
func CountTags(file string, counter map[string]int) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil
		}

		switch t := tok.(type) {
		case xml.StartElement:
			counter[t.Name.Local]++
		case xml.EndElement:
			counter[t.Name.Local]++
		}
	}
	return nil
}

var (
	yearPattern = regexp.MustCompile(`(\d*)-\d*-\d*</DATE`)
	lawPattern  = regexp.MustCompile(`([A-Z])\.\s+([0-9-]+)`)
)

// YearOf returns the year from the first match of
// (\d*)-\d*-\d*</DATE in the raw XML; a record without a parseable
// year returns RecordIncomplete.
func YearOf(rawXML string) (int, error) {
	m := yearPattern.FindStringSubmatch(rawXML)
	if m == nil {
		return 0, dilaerrors.RecordIncomplete("record.year", "", fmt.Errorf("no year found"))
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, dilaerrors.RecordIncomplete("record.year", "", err)
	}
	return year, nil
}

// LawCode identifies a single "<PREFIX>. <number>" legal-code citation.
type LawCode struct {
	Prefix string
	Number string
}

// LawUses applies the cached law-citation regular expression to s and
// tallies each (prefix, number) pair into count.
func LawUses(s string, count map[LawCode]int) {
	for _, m := range lawPattern.FindAllStringSubmatch(s, -1) {
		code := LawCode{Prefix: m[1], Number: m[2]}
		count[code]++
	}
}
