package discovery

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/likexian/whois"
	"github.com/sirupsen/logrus"
)

// Check names used in Validation.Checks and DiscoveryOutcome persistence.
const (
	CheckSyntax      = "syntax"
	CheckMXRecords   = "mx_records"
	CheckDisposable  = "disposable"
	CheckRoleAccount = "role_account"
	CheckSMTPVerify  = "smtp_verify"
	CheckWebPresence = "web_presence"
)

// checkWeights is the fixed, inspectable scoring policy: a weighted sum of
// independent signals, clamped to [0,1]. Callers can audit exactly why an
// address passed or failed.
var checkWeights = map[string]float64{
	CheckSyntax:      0.15,
	CheckMXRecords:   0.25,
	CheckDisposable:  -0.5,
	CheckRoleAccount: -0.2,
	CheckSMTPVerify:  0.3,
	CheckWebPresence: 0.1,
}

// validThreshold is inclusive: a score of exactly 0.70 passes.
const validThreshold = 0.7

var roleAccounts = []string{"admin", "support", "info", "contact", "sales", "billing", "noreply", "postmaster"}

// Validation is the multi-signal verdict for a single address.
type Validation struct {
	Email   string          `json:"email"`
	Valid   bool            `json:"valid"`
	Score   float64         `json:"score"`
	Checks  map[string]bool `json:"checks"`
	Details string          `json:"details,omitempty"`
}

// HeuristicVerifier combines six independent signals instead of trusting
// any single oracle. It is the right backend for domains whose mail
// servers soft-fail RCPT probes.
type HeuristicVerifier struct {
	resolver    Resolver
	smtp        *SMTPVerifier
	client      *http.Client
	whoisClient *whois.Client
	logger      *logrus.Logger
	whoisLookup bool
}

func NewHeuristicVerifier(cfg Config) *HeuristicVerifier {
	cfg = cfg.withDefaults()
	whoisClient := whois.NewClient()
	whoisClient.SetTimeout(cfg.HTTPTimeout)
	return &HeuristicVerifier{
		resolver:    NewDNSResolver(cfg.Resolvers, cfg.ResolveTimeout, cfg.Logger),
		smtp:        NewSMTPVerifier(cfg),
		client:      &http.Client{Timeout: cfg.HTTPTimeout},
		whoisClient: whoisClient,
		logger:      cfg.Logger,
		whoisLookup: cfg.WhoisLookup,
	}
}

func (v *HeuristicVerifier) Mechanism() Mechanism { return MechanismHeuristic }

func (v *HeuristicVerifier) Verify(ctx context.Context, cand Candidate, mx []MX) Verification {
	started := time.Now()
	val := v.validate(ctx, cand.Address(), mx)
	return Verification{
		Candidate: cand,
		Accepted:  val.Valid,
		Mechanism: MechanismHeuristic,
		RawSignal: val.Details,
		Score:     val.Score,
		Checks:    val.Checks,
		Latency:   time.Since(started),
	}
}

// Validate runs all six checks on an arbitrary address and reports the
// composite verdict. Validation is idempotent: re-validating a valid
// address yields the same result.
func (v *HeuristicVerifier) Validate(ctx context.Context, email string) Validation {
	return v.validate(ctx, strings.ToLower(strings.TrimSpace(email)), nil)
}

func (v *HeuristicVerifier) validate(ctx context.Context, email string, mx []MX) Validation {
	val := Validation{
		Email: email,
		Checks: map[string]bool{
			CheckSyntax:      false,
			CheckMXRecords:   false,
			CheckDisposable:  false,
			CheckRoleAccount: false,
			CheckSMTPVerify:  false,
			CheckWebPresence: false,
		},
	}

	if err := checkmail.ValidateFormat(email); err != nil {
		val.Details = "syntax: " + err.Error()
		return val
	}
	val.Checks[CheckSyntax] = true

	at := strings.LastIndex(email, "@")
	localPart, domain := email[:at], email[at+1:]

	if len(mx) == 0 {
		resolved, err := v.resolver.ResolveMX(ctx, domain)
		if err != nil {
			v.logger.WithField("domain", domain).WithError(err).Debug("heuristic MX check failed")
		}
		mx = resolved
	}
	val.Checks[CheckMXRecords] = len(mx) > 0
	val.Checks[CheckDisposable] = isDisposableDomain(domain)
	val.Checks[CheckRoleAccount] = isRoleAccount(localPart)

	if len(mx) > 0 {
		probe := v.smtp.Verify(ctx, Candidate{LocalPart: localPart, Domain: domain}, mx)
		val.Checks[CheckSMTPVerify] = probe.Accepted
	}
	val.Checks[CheckWebPresence] = v.checkWebPresence(ctx, domain, localPart)

	val.Score = scoreChecks(val.Checks)
	val.Valid = val.Score >= validThreshold

	if v.whoisLookup && val.Valid {
		if info, err := v.whoisClient.Whois(domain); err == nil {
			val.Details = firstLine(info)
		}
	}
	return val
}

// scoreChecks applies the fixed weights to the boolean signals and clamps
// the sum to [0,1].
func scoreChecks(checks map[string]bool) float64 {
	score := 0.0
	for name, hit := range checks {
		if hit {
			score += checkWeights[name]
		}
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// isRoleAccount matches whole delimiter-separated tokens so personal
// addresses that merely contain a role word ("marketinfo", "jsadmin")
// keep their score.
func isRoleAccount(localPart string) bool {
	tokens := strings.FieldsFunc(strings.ToLower(localPart), func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	for _, token := range tokens {
		for _, role := range roleAccounts {
			if token == role {
				return true
			}
		}
	}
	return false
}

// checkWebPresence looks for the local part in the domain's published
// security contact file, a cheap public signal that the mailbox exists.
func (v *HeuristicVerifier) checkWebPresence(ctx context.Context, domain, localPart string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://"+domain+"/.well-known/security.txt", nil)
	if err != nil {
		return false
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return false
	}
	return strings.Contains(string(body), localPart)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
