package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPITestServer(t *testing.T, tokenCalls *int, verdict func(email string) string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		*tokenCalls++
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"token": "session-token"}`)
	})
	mux.HandleFunc("/verify", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "session-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{"code": %q, "message": ""}`, verdict(r.URL.Query().Get("email")))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newAPITestVerifier(srv *httptest.Server) *APIVerifier {
	return NewAPIVerifier(Config{
		APIKey:       "test-key",
		APITokenURL:  srv.URL + "/token",
		APIVerifyURL: srv.URL + "/verify",
	})
}

func TestAPIVerifyAcceptsOnOK(t *testing.T) {
	var tokenCalls int
	srv := newAPITestServer(t, &tokenCalls, func(email string) string {
		if email == "john@example.com" {
			return "ok"
		}
		return "ko"
	})
	v := newAPITestVerifier(srv)

	got := v.Verify(context.Background(), Candidate{LocalPart: "john", Domain: "example.com"}, nil)
	require.True(t, got.Accepted)
	assert.Equal(t, "ok", got.RawSignal)
	assert.Equal(t, MechanismAPIToken, got.Mechanism)

	got = v.Verify(context.Background(), Candidate{LocalPart: "jane", Domain: "example.com"}, nil)
	assert.False(t, got.Accepted)
	assert.Equal(t, "ko", got.RawSignal)
}

func TestAPIVerifyCachesToken(t *testing.T) {
	var tokenCalls int
	srv := newAPITestServer(t, &tokenCalls, func(string) string { return "ok" })
	v := newAPITestVerifier(srv)

	for i := 0; i < 3; i++ {
		v.Verify(context.Background(), Candidate{LocalPart: "john", Domain: "example.com"}, nil)
	}
	assert.Equal(t, 1, tokenCalls, "token fetched once and reused")
}

func TestAPIVerifyMissingKeyIsNotAccepted(t *testing.T) {
	v := NewAPIVerifier(Config{APITokenURL: "http://127.0.0.1:0/token", APIVerifyURL: "http://127.0.0.1:0/verify"})
	got := v.Verify(context.Background(), Candidate{LocalPart: "john", Domain: "example.com"}, nil)
	assert.False(t, got.Accepted)
	assert.NotEmpty(t, got.RawSignal)
}
