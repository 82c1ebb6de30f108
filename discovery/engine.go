package discovery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Outcome statuses. A not-found outcome is a normal, quiet result: most
// guesses fail.
const (
	StatusFound          = "found"
	StatusNotFound       = "not_found"
	StatusNoMX           = "no_mx"
	StatusResolveTimeout = "resolve_timeout"
)

// Outcome is the engine's final answer for one discovery request. It is
// immutable once returned.
type Outcome struct {
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	Domain     string          `json:"domain"`
	Email      string          `json:"email,omitempty"`
	Status     string          `json:"status"`
	Confidence float64         `json:"confidence"`
	Mechanism  Mechanism       `json:"mechanism,omitempty"`
	Checks     map[string]bool `json:"checks,omitempty"`
	Latency    time.Duration   `json:"latency"`
}

// OutcomeCache lets callers memoize whole outcomes outside the engine.
// The engine itself never caches MX records across requests.
type OutcomeCache interface {
	Get(ctx context.Context, key string) (*Outcome, bool)
	Set(ctx context.Context, key string, outcome *Outcome)
}

// Engine runs the full discovery pipeline: generate candidates, resolve
// the domain's MX hosts once, verify candidates through the configured
// backend, and select a winner.
//
// Selection policy: priority-first. Verifications run concurrently and
// are consumed in completion order for latency, but the winner is the
// accepted candidate that ranks first in generator order, decided only
// once every higher-ranked candidate has settled. The result is therefore
// deterministic for fixed verification outcomes regardless of scheduling.
// The heuristic backend instead verifies the whole candidate set and
// picks the best composite score at or above the validity threshold.
type Engine struct {
	cfg      Config
	resolver Resolver
	verifier Verifier
	analyzer *PatternAnalyzer
	limiter  *rate.Limiter
	cache    OutcomeCache
	logger   *logrus.Logger
}

func NewEngine(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	verifier, err := NewVerifier(cfg)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:      cfg,
		resolver: NewDNSResolver(cfg.Resolvers, cfg.ResolveTimeout, cfg.Logger),
		verifier: verifier,
		logger:   cfg.Logger,
	}
	if cfg.ProbePerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.ProbePerSecond), 1)
	}
	if cfg.PatternHints {
		e.analyzer = NewPatternAnalyzer(e.resolver, nil, cfg.Logger)
	}
	return e, nil
}

// WithCache attaches an outcome cache (e.g. Redis) for repeated lookups
// of the same person and domain.
func (e *Engine) WithCache(cache OutcomeCache) *Engine {
	e.cache = cache
	return e
}

// WithResolver and WithVerifier exist for tests and custom wiring.
func (e *Engine) WithResolver(r Resolver) *Engine { e.resolver = r; return e }
func (e *Engine) WithVerifier(v Verifier) *Engine { e.verifier = v; return e }

// DiscoverEmail guesses and verifies a mailbox for a person at a domain.
// Input and domain-resolution problems behave differently: bad input is
// an error before any network call, while a domain without mail service
// is a structured no_mx outcome with a nil error so the outreach pipeline
// can continue with other contacts.
func (e *Engine) DiscoverEmail(ctx context.Context, firstName, lastName, domain string) (*Outcome, error) {
	started := time.Now()

	candidates, err := Generate(firstName, lastName, domain)
	if err != nil {
		return nil, err
	}
	domain = candidates[0].Domain

	cacheKey := strings.Join([]string{domain, candidates[0].LocalPart, strings.ToLower(strings.TrimSpace(lastName))}, ":")
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, cacheKey); ok {
			return cached, nil
		}
	}

	outcome := &Outcome{
		FirstName: strings.ToLower(strings.TrimSpace(firstName)),
		LastName:  strings.ToLower(strings.TrimSpace(lastName)),
		Domain:    domain,
	}

	// MX hosts are fetched once per request and shared read-only by every
	// candidate probe.
	mx, err := e.resolver.ResolveMX(ctx, domain)
	switch {
	case errors.Is(err, ErrNoMXRecords):
		outcome.Status = StatusNoMX
		outcome.Latency = time.Since(started)
		return outcome, nil
	case errors.Is(err, ErrResolveTimeout):
		outcome.Status = StatusResolveTimeout
		outcome.Latency = time.Since(started)
		return outcome, nil
	case err != nil:
		return nil, err
	}

	if e.analyzer != nil {
		if boosts := e.analyzer.AnalyzeDomain(ctx, domain, mx); len(boosts) > 0 {
			candidates = Rerank(candidates, boosts)
		}
	}

	if e.verifier.Mechanism() == MechanismHeuristic {
		e.selectBestScore(ctx, candidates, mx, outcome)
	} else {
		e.selectPriorityFirst(ctx, candidates, mx, outcome)
	}
	outcome.Latency = time.Since(started)

	if e.cache != nil {
		e.cache.Set(ctx, cacheKey, outcome)
	}

	e.logger.WithFields(logrus.Fields{
		"domain":  domain,
		"status":  outcome.Status,
		"email":   outcome.Email,
		"latency": outcome.Latency.String(),
	}).Info("discovery finished")
	return outcome, nil
}

// selectPriorityFirst dispatches candidates to the bounded pool and
// settles them in completion order. The frontier only advances over
// rejected candidates; the first accepted candidate at the frontier wins
// and all in-flight work is cancelled, since probes past a winner are
// pure cost and invite rate-limiting.
func (e *Engine) selectPriorityFirst(ctx context.Context, candidates []Candidate, mx []MX, outcome *Outcome) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type settled struct {
		idx int
		v   Verification
	}

	jobs := make(chan int)
	results := make(chan settled, len(candidates))

	workers := e.cfg.PoolSize
	if workers > len(candidates) {
		workers = len(candidates)
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results <- settled{idx, Verification{Candidate: candidates[idx], RawSignal: "cancelled"}}
					continue
				}
				if e.limiter != nil {
					if err := e.limiter.Wait(ctx); err != nil {
						results <- settled{idx, Verification{Candidate: candidates[idx], RawSignal: "cancelled"}}
						continue
					}
				}
				results <- settled{idx, e.verifier.Verify(ctx, candidates[idx], mx)}
			}
		}()
	}
	go func() {
		for i := range candidates {
			jobs <- i
		}
		close(jobs)
	}()

	const (
		pending  = 0
		accepted = 1
		rejected = -1
	)
	state := make([]int, len(candidates))
	verdicts := make([]Verification, len(candidates))
	frontier := 0

	for received := 0; received < len(candidates); received++ {
		r := <-results
		verdicts[r.idx] = r.v
		if r.v.Accepted {
			state[r.idx] = accepted
		} else {
			state[r.idx] = rejected
		}

		for frontier < len(candidates) && state[frontier] != pending {
			if state[frontier] == accepted {
				win := verdicts[frontier]
				outcome.Email = win.Candidate.Address()
				outcome.Status = StatusFound
				outcome.Confidence = win.Candidate.Prior
				outcome.Mechanism = win.Mechanism
				outcome.Checks = win.Checks
				// Abandon the rest; the buffered channel lets workers
				// finish without a reader.
				return
			}
			frontier++
		}
	}

	outcome.Status = StatusNotFound
	outcome.Confidence = 0
}

// selectBestScore verifies the whole candidate set through the pool and
// returns the highest composite score at or above the threshold.
func (e *Engine) selectBestScore(ctx context.Context, candidates []Candidate, mx []MX, outcome *Outcome) {
	jobs := make(chan int)
	results := make(chan Verification, len(candidates))

	workers := e.cfg.PoolSize
	if workers > len(candidates) {
		workers = len(candidates)
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if e.limiter != nil {
					if err := e.limiter.Wait(ctx); err != nil {
						results <- Verification{Candidate: candidates[idx], RawSignal: "cancelled"}
						continue
					}
				}
				results <- e.verifier.Verify(ctx, candidates[idx], mx)
			}
		}()
	}
	go func() {
		for i := range candidates {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var best *Verification
	for v := range results {
		if !v.Accepted {
			continue
		}
		v := v
		if best == nil || v.Score > best.Score {
			best = &v
		}
	}

	if best == nil {
		outcome.Status = StatusNotFound
		outcome.Confidence = 0
		return
	}
	outcome.Email = best.Candidate.Address()
	outcome.Status = StatusFound
	outcome.Confidence = best.Score
	outcome.Mechanism = best.Mechanism
	outcome.Checks = best.Checks
}
