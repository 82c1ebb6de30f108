package discovery

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mx  []MX
	err error
}

func (f *fakeResolver) ResolveMX(_ context.Context, _ string) ([]MX, error) {
	return f.mx, f.err
}

// scriptedVerifier settles each address according to its script entry and
// counts invocations. A per-address delay lets tests skew completion order
// against generator order.
type scriptedVerifier struct {
	mech    Mechanism
	accept  map[string]bool
	score   map[string]float64
	delay   map[string]time.Duration
	invoked int64
}

func (s *scriptedVerifier) Mechanism() Mechanism { return s.mech }

func (s *scriptedVerifier) Verify(ctx context.Context, cand Candidate, _ []MX) Verification {
	atomic.AddInt64(&s.invoked, 1)
	addr := cand.Address()
	if d := s.delay[addr]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return Verification{Candidate: cand, Mechanism: s.mech, RawSignal: "cancelled"}
		}
	}
	return Verification{
		Candidate: cand,
		Accepted:  s.accept[addr],
		Mechanism: s.mech,
		Score:     s.score[addr],
	}
}

func newTestEngine(t *testing.T, r Resolver, v Verifier) *Engine {
	t.Helper()
	e, err := NewEngine(Config{Backend: BackendSMTP, PoolSize: 3})
	require.NoError(t, err)
	return e.WithResolver(r).WithVerifier(v)
}

func TestDiscoverEmailNoMXSkipsVerification(t *testing.T) {
	v := &scriptedVerifier{mech: MechanismSMTPProbe}
	e := newTestEngine(t, &fakeResolver{err: ErrNoMXRecords}, v)

	got, err := e.DiscoverEmail(context.Background(), "John", "Doe", "example.com")
	require.NoError(t, err, "a mail-less domain is a structured outcome, not an error")
	assert.Equal(t, StatusNoMX, got.Status)
	assert.Empty(t, got.Email)
	assert.Zero(t, atomic.LoadInt64(&v.invoked), "no probes for a domain without MX")
}

func TestDiscoverEmailResolveTimeout(t *testing.T) {
	v := &scriptedVerifier{mech: MechanismSMTPProbe}
	e := newTestEngine(t, &fakeResolver{err: ErrResolveTimeout}, v)

	got, err := e.DiscoverEmail(context.Background(), "John", "Doe", "example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusResolveTimeout, got.Status)
	assert.Zero(t, atomic.LoadInt64(&v.invoked))
}

func TestDiscoverEmailInvalidInputBeforeNetwork(t *testing.T) {
	v := &scriptedVerifier{mech: MechanismSMTPProbe}
	e := newTestEngine(t, &fakeResolver{mx: []MX{{Host: "mx.example.com"}}}, v)

	_, err := e.DiscoverEmail(context.Background(), "", "Doe", "example.com")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, atomic.LoadInt64(&v.invoked))
}

func TestDiscoverEmailPicksHighestRankedAccepted(t *testing.T) {
	// Both john@ and johndoe@ are accepted; johndoe settles much faster.
	// The winner must still be john@, the first in generator order.
	v := &scriptedVerifier{
		mech: MechanismSMTPProbe,
		accept: map[string]bool{
			"john@example.com":    true,
			"johndoe@example.com": true,
		},
		delay: map[string]time.Duration{
			"john@example.com": 50 * time.Millisecond,
		},
	}
	e := newTestEngine(t, &fakeResolver{mx: []MX{{Host: "mx.example.com"}}}, v)

	got, err := e.DiscoverEmail(context.Background(), "John", "Doe", "example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusFound, got.Status)
	assert.Equal(t, "john@example.com", got.Email)
	assert.Equal(t, MechanismSMTPProbe, got.Mechanism)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9, "confidence reports the winner's prior")
}

func TestDiscoverEmailAdvancesOverRejections(t *testing.T) {
	v := &scriptedVerifier{
		mech:   MechanismSMTPProbe,
		accept: map[string]bool{"john_doe@example.com": true},
	}
	e := newTestEngine(t, &fakeResolver{mx: []MX{{Host: "mx.example.com"}}}, v)

	got, err := e.DiscoverEmail(context.Background(), "John", "Doe", "example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusFound, got.Status)
	assert.Equal(t, "john_doe@example.com", got.Email)
}

func TestDiscoverEmailAllRejected(t *testing.T) {
	v := &scriptedVerifier{mech: MechanismSMTPProbe}
	e := newTestEngine(t, &fakeResolver{mx: []MX{{Host: "mx.example.com"}}}, v)

	got, err := e.DiscoverEmail(context.Background(), "John", "Doe", "example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, got.Status)
	assert.Empty(t, got.Email)
	assert.Zero(t, got.Confidence)
	assert.Equal(t, int64(8), atomic.LoadInt64(&v.invoked), "every candidate settled")
}

func TestDiscoverEmailDeterministicAcrossRuns(t *testing.T) {
	v := &scriptedVerifier{
		mech: MechanismSMTPProbe,
		accept: map[string]bool{
			"john.doe@example.com": true,
			"j.doe@example.com":    true,
		},
	}
	e := newTestEngine(t, &fakeResolver{mx: []MX{{Host: "mx.example.com"}}}, v)

	for i := 0; i < 10; i++ {
		got, err := e.DiscoverEmail(context.Background(), "John", "Doe", "example.com")
		require.NoError(t, err)
		assert.Equal(t, "john.doe@example.com", got.Email, "run %d", i)
	}
}

func TestDiscoverEmailHeuristicPicksBestScore(t *testing.T) {
	v := &scriptedVerifier{
		mech: MechanismHeuristic,
		accept: map[string]bool{
			"john@example.com":     true,
			"john.doe@example.com": true,
		},
		score: map[string]float64{
			"john@example.com":     0.75,
			"john.doe@example.com": 0.95,
		},
	}
	e := newTestEngine(t, &fakeResolver{mx: []MX{{Host: "mx.example.com"}}}, v)

	got, err := e.DiscoverEmail(context.Background(), "John", "Doe", "example.com")
	require.NoError(t, err)
	assert.Equal(t, "john.doe@example.com", got.Email, "heuristic mode ranks by score, not priority")
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
}

type mapCache struct {
	store map[string]*Outcome
	hits  int
}

func (m *mapCache) Get(_ context.Context, key string) (*Outcome, bool) {
	o, ok := m.store[key]
	if ok {
		m.hits++
	}
	return o, ok
}

func (m *mapCache) Set(_ context.Context, key string, outcome *Outcome) {
	m.store[key] = outcome
}

func TestDiscoverEmailUsesOutcomeCache(t *testing.T) {
	v := &scriptedVerifier{
		mech:   MechanismSMTPProbe,
		accept: map[string]bool{"john@example.com": true},
	}
	cache := &mapCache{store: make(map[string]*Outcome)}
	e := newTestEngine(t, &fakeResolver{mx: []MX{{Host: "mx.example.com"}}}, v).WithCache(cache)

	first, err := e.DiscoverEmail(context.Background(), "John", "Doe", "example.com")
	require.NoError(t, err)
	probes := atomic.LoadInt64(&v.invoked)

	second, err := e.DiscoverEmail(context.Background(), "John", "Doe", "example.com")
	require.NoError(t, err)
	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, probes, atomic.LoadInt64(&v.invoked), "cache hit must not probe again")
}
