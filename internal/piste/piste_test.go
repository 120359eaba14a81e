package piste

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, searchBody, fullTextBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchBody))
	})
	mux.HandleFunc("/consult/getArticle", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fullTextBody))
	})
	return httptest.NewServer(mux)
}

func TestSearchArticle_ParsesTotalAndResults(t *testing.T) {
	srv := newTestServer(t, `{"totalResultNumber": 2, "results": [{"text": "a", "nature": "Texte"}]}`, "")
	defer srv.Close()

	client := New(context.Background(), Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/token",
		BaseURL:      srv.URL,
	})

	total, results, err := client.SearchArticle(context.Background(), "décision", "JORF")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Text)
}

func TestFullText_FallsBackToGenericEndpointForUnmappedFond(t *testing.T) {
	srv := newTestServer(t, "", `{"text": {"texte": "corps du texte"}}`)
	defer srv.Close()

	client := New(context.Background(), Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/token",
		BaseURL:      srv.URL,
	})

	text, err := client.FullText(context.Background(), "CETATEXT000001", "CETAT")
	require.NoError(t, err)
	assert.Equal(t, "corps du texte", text)
}

func TestNextStepSize(t *testing.T) {
	assert.Equal(t, 33, NextStepSize(100, 1))
	assert.Equal(t, 1, NextStepSize(2, 1))
	assert.Equal(t, 5, NextStepSize(10, 5))
}
