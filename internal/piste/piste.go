// Package piste is the secondary, Piste/Légifrance OAuth-backed JSON
// API client used only when the local DILA corpus is insufficient. It
// is never imported by the core ingest/index/query pipeline (C1-C8);
// only a thin CLI subcommand exercises it, keeping it a leaf
// collaborator. Grounded on original_source/src/api/piste.rs (wire
// types) and src/api/client.rs (request shaping).
package piste

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/clientcredentials"
)

// Config carries the OAuth client-credentials grant and API base URL.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
}

// NewTokenSource builds an oauth2 client-credentials token source
// against cfg's OAuth endpoint, mirroring client.rs's authenticate
// exchanging (client_id, client_secret) for a bearer token.
func NewTokenSource(ctx context.Context, cfg Config) *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{"openid"},
	}
}

// Client talks to the Piste API using an OAuth2-authenticated HTTP
// client.
type Client struct {
	http    *http.Client
	baseURL string
}

// New builds a Client whose requests are authenticated via cfg's
// client-credentials grant.
func New(ctx context.Context, cfg Config) *Client {
	oauthCfg := NewTokenSource(ctx, cfg)
	return &Client{http: oauthCfg.Client(ctx), baseURL: cfg.BaseURL}
}

// searchQuery mirrors piste.rs's SearchQuery/Search/Field/Constraint
// wire shapes, trimmed to the single free-text "one of the words"
// search this client needs.
type searchQuery struct {
	Search searchCriteria `json:"recherche"`
	Fond   string         `json:"fond"`
}

type searchCriteria struct {
	FromAdvanced bool          `json:"fromAdvancedRecherche"`
	Fields       []searchField `json:"champs"`
	PageSize     int           `json:"pageSize"`
	Operator     string        `json:"operateur"`
	Pagination   string        `json:"typePagination"`
	PageNumber   int           `json:"pageNumber"`
	SecondSort   string        `json:"secondSort"`
}

type searchField struct {
	Constraints []searchConstraint `json:"criteres"`
	Operator    string             `json:"operateur"`
	FieldType   string             `json:"typeChamp"`
}

type searchConstraint struct {
	Value     string `json:"valeur"`
	Fuzzy     int    `json:"proximite"`
	Operator  string `json:"operateur"`
	MatchType string `json:"typeRecherche"`
}

// SearchResult is the subset of piste.rs's SearchResult this client
// surfaces to callers.
type SearchResult struct {
	Text   string `json:"text"`
	Nature string `json:"nature"`
}

// searchResponse mirrors piste.rs's SearchResponse.
type searchResponse struct {
	TotalResultNumber uint64         `json:"totalResultNumber"`
	Results           []SearchResult `json:"results"`
}

// SearchArticle issues a single free-text search page against /search
// for fond, page 1, matching "one of the words" semantics, per
// client.rs's PageQuery-to-SearchQuery translation.
func (c *Client) SearchArticle(ctx context.Context, text, fond string) (uint64, []SearchResult, error) {
	q := searchQuery{
		Search: searchCriteria{
			FromAdvanced: false,
			Fields: []searchField{{
				Constraints: []searchConstraint{{Value: text, Fuzzy: 2, Operator: "ET", MatchType: "UN_DES_MOTS"}},
				Operator:    "ET",
				FieldType:   "ALL",
			}},
			PageSize:   100,
			Operator:   "ET",
			Pagination: "DEFAUT",
			PageNumber: 1,
			SecondSort: "ID",
		},
		Fond: fond,
	}

	body, err := json.Marshal(q)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.post(ctx, "/search", body)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var res searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return 0, nil, err
	}
	return res.TotalResultNumber, res.Results, nil
}

// consultEndpoints maps fonds with a dedicated /consult/... endpoint;
// fonds absent from this map (CETAT, JUFI, CONSTIT in the original
// source) fall through to the generic endpoint below. This gap is
// preserved deliberately, per spec.md's open question, not "fixed".
var consultEndpoints = map[string]string{
	"JORF":      "/consult/jorf",
	"CNIL":      "/consult/cnil",
	"JURI":      "/consult/juri",
	"KALI":      "/consult/kaliCont",
	"CODE_DATE": "/consult/code",
	"LODA_DATE": "/consult/law_decree",
	"CIRC":      "/consult/circulaire",
	"ACCO":      "/consult/acco",
}

const genericConsultEndpoint = "/consult/getArticle"

// FullText fetches the full text of the document identified by cid
// within fond, falling back to the generic consult endpoint when fond
// has no dedicated one.
func (c *Client) FullText(ctx context.Context, cid, fond string) (string, error) {
	endpoint, ok := consultEndpoints[fond]
	if !ok {
		endpoint = genericConsultEndpoint
	}

	body, err := json.Marshal(map[string]string{
		"id": cid, "cid": cid, "textId": cid, "textCid": cid,
	})
	if err != nil {
		return "", err
	}

	resp, err := c.post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed struct {
		Text struct {
			Texte string `json:"texte"`
		} `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	return parsed.Text.Texte, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("piste: %s returned %s", endpoint, resp.Status)
	}
	return resp, nil
}

// NextStepSize computes the next pagination step, decided per
// spec.md's open question: the step size is divided by 3 and clamped
// to a floor of minStep, i.e. max(step/3, minStep) (config default 1).
func NextStepSize(step, minStep int) int {
	next := step / 3
	if next < minStep {
		return minStep
	}
	return next
}
