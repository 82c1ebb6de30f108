package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatTestServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		payload := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newChatTestClient(srv *httptest.Server) *PerplexityClient {
	p := NewPerplexityClient("test-key", "sonar-pro", nil)
	p.baseURL = srv.URL
	return p
}

// The shortlist drives who gets contacted first, so parsing must keep the
// model's order intact.
func TestRankDecisionMakersPreservesOrder(t *testing.T) {
	srv := newChatTestServer(t, "```json\n"+
		`[{"name": "Zoe Ward", "title": "CEO"},`+
		`{"name": "Adam Brown", "title": "VP Engineering"},`+
		`{"name": "Mia Chen", "title": "CTO"}]`+"\n```")
	p := newChatTestClient(srv)

	ranked, err := p.RankDecisionMakers(context.Background(), "Acme", nil)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	// Deliberately non-alphabetical to catch any order-losing decode.
	assert.Equal(t, "Zoe Ward", ranked[0].Name)
	assert.Equal(t, "CEO", ranked[0].Title)
	assert.Equal(t, "Adam Brown", ranked[1].Name)
	assert.Equal(t, "Mia Chen", ranked[2].Name)
}

func TestSuggestCompaniesParsesList(t *testing.T) {
	srv := newChatTestServer(t,
		`[{"name": "Acme", "industry": "Logistics", "domain": "acme.com"}]`)
	p := newChatTestClient(srv)

	got, err := p.SuggestCompanies(context.Background(), "route planning software", "mid-size carriers")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].Name)
	assert.Equal(t, "acme.com", got[0].Domain)
}

func TestChatRequiresAPIKey(t *testing.T) {
	p := NewPerplexityClient("", "", nil)
	_, err := p.RankDecisionMakers(context.Background(), "Acme", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestChatRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": "rate limited"}`)
	}))
	t.Cleanup(srv.Close)
	p := newChatTestClient(srv)

	_, err := p.ResearchPerson(context.Background(), "Acme", "Zoe Ward", "CEO", "product")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
