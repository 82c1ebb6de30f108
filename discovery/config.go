package discovery

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config carries every externally tunable knob of the engine. Nothing in
// this package hard-codes credentials or endpoints; callers populate this
// from the environment.
type Config struct {
	// Backend selects the verification strategy: smtp, api or heuristic.
	Backend string

	// SMTP probe identity and bounds.
	HeloDomain     string
	MailFrom       string
	DialTimeout    time.Duration
	SessionTimeout time.Duration
	ProbeRetries   int           // retries per host on soft failures
	RetryBackoff   time.Duration // exponential backoff base
	MaxMXHosts     int           // how many MX hosts to try per candidate

	// Third-party verification API (token endpoint + verify endpoint).
	APIKey       string
	APITokenURL  string
	APIVerifyURL string
	HTTPTimeout  time.Duration

	// DNS resolution.
	Resolvers      []string
	ResolveTimeout time.Duration

	// Concurrency. PoolSize caps simultaneous outbound probes: mail
	// servers rate-limit or blacklist IPs that open many connections at
	// once, so this is a throttle, not an incidental limit.
	PoolSize int
	// ProbePerSecond additionally rate-limits probe starts across the
	// pool. Zero disables the limiter.
	ProbePerSecond float64

	// PatternHints enables the optional domain-specific re-ranking of
	// candidate patterns (website mailto scan + MX provider heuristics).
	PatternHints bool

	// WhoisLookup attaches registrar info to heuristic validations.
	WhoisLookup bool

	Logger *logrus.Logger
}

func (c Config) withDefaults() Config {
	if c.HeloDomain == "" {
		c.HeloDomain = "localhost"
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = 15 * time.Second
	}
	if c.ProbeRetries < 0 {
		c.ProbeRetries = 0
	} else if c.ProbeRetries == 0 {
		c.ProbeRetries = 1
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.MaxMXHosts <= 0 {
		c.MaxMXHosts = 2
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	if c.ResolveTimeout <= 0 {
		c.ResolveTimeout = defaultResolveTimeout
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 3
	}
	if c.PoolSize > 5 {
		c.PoolSize = 5
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
	}
	return c
}
