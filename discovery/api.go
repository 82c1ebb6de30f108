package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// APIVerifier delegates deliverability checks to a third-party
// verification service (MailTester-style: a token endpoint exchanged for
// the API key, then a verification endpoint per address). Every failure
// mode here is recoverable per candidate: a missing key, a failed token
// fetch or an HTTP error marks the candidate unverified and discovery
// moves on.
type APIVerifier struct {
	apiKey    string
	tokenURL  string
	verifyURL string
	client    *http.Client
	logger    *logrus.Logger

	mu    sync.Mutex
	token string
}

func NewAPIVerifier(cfg Config) *APIVerifier {
	cfg = cfg.withDefaults()
	return &APIVerifier{
		apiKey:    cfg.APIKey,
		tokenURL:  cfg.APITokenURL,
		verifyURL: cfg.APIVerifyURL,
		client:    &http.Client{Timeout: cfg.HTTPTimeout},
		logger:    cfg.Logger,
	}
}

func (v *APIVerifier) Mechanism() Mechanism { return MechanismAPIToken }

// FetchToken exchanges the API key for a session token. The token is
// cached for the verifier's lifetime; a fresh one is fetched only when
// none is held yet.
func (v *APIVerifier) FetchToken(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.token != "" {
		return v.token, nil
	}
	if v.apiKey == "" {
		return "", fmt.Errorf("verification API key is not configured")
	}

	u, err := url.Parse(v.tokenURL)
	if err != nil {
		return "", fmt.Errorf("token endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", v.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token fetch: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("token fetch: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("token fetch: empty token in response")
	}
	v.token = payload.Token
	return v.token, nil
}

func (v *APIVerifier) Verify(ctx context.Context, cand Candidate, _ []MX) Verification {
	started := time.Now()
	result := Verification{Candidate: cand, Mechanism: MechanismAPIToken}

	token, err := v.FetchToken(ctx)
	if err != nil {
		v.logger.WithError(err).WithField("address", cand.Address()).Warn("verification API unavailable")
		result.RawSignal = err.Error()
		result.Latency = time.Since(started)
		return result
	}

	code, err := v.verifyAddress(ctx, cand.Address(), token)
	result.Latency = time.Since(started)
	if err != nil {
		v.logger.WithError(err).WithField("address", cand.Address()).Warn("verification API call failed")
		result.RawSignal = err.Error()
		return result
	}
	result.RawSignal = code
	result.Accepted = code == "ok"
	return result
}

func (v *APIVerifier) verifyAddress(ctx context.Context, address, token string) (string, error) {
	u, err := url.Parse(v.verifyURL)
	if err != nil {
		return "", fmt.Errorf("verify endpoint: %w", err)
	}
	q := u.Query()
	q.Set("email", address)
	q.Set("token", token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload.Code, nil
}
