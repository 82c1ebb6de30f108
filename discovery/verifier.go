package discovery

import (
	"context"
	"fmt"
	"time"
)

// Mechanism identifies which backend produced a Verification.
type Mechanism string

const (
	MechanismSMTPProbe Mechanism = "smtp_probe"
	MechanismAPIToken  Mechanism = "api_token"
	MechanismHeuristic Mechanism = "heuristic"
)

// Verification is the outcome of one backend attempt for one candidate.
// It is produced once per candidate; retries happen inside the backend's
// own policy, never above it.
type Verification struct {
	Candidate Candidate       `json:"candidate"`
	Accepted  bool            `json:"accepted"`
	Mechanism Mechanism       `json:"mechanism"`
	RawSignal string          `json:"raw_signal,omitempty"`
	Score     float64         `json:"score,omitempty"`
	Checks    map[string]bool `json:"checks,omitempty"`
	Latency   time.Duration   `json:"latency"`
}

// Verifier confirms whether a candidate mailbox is deliverable. The MX
// host list is resolved once per discovery and shared read-only across
// candidates.
type Verifier interface {
	Mechanism() Mechanism
	Verify(ctx context.Context, cand Candidate, mx []MX) Verification
}

// Backend names for configuration-driven selection.
const (
	BackendSMTP      = "smtp"
	BackendAPI       = "api"
	BackendHeuristic = "heuristic"
)

// NewVerifier builds the backend named by cfg.Backend. The three
// strategies are interchangeable behind the Verifier interface; selection
// is a deployment decision, not a code path.
func NewVerifier(cfg Config) (Verifier, error) {
	switch cfg.Backend {
	case BackendSMTP, "":
		return NewSMTPVerifier(cfg), nil
	case BackendAPI:
		return NewAPIVerifier(cfg), nil
	case BackendHeuristic:
		return NewHeuristicVerifier(cfg), nil
	default:
		return nil, fmt.Errorf("unknown verification backend %q", cfg.Backend)
	}
}
