package discovery

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// PatternAnalyzer derives domain-specific pattern weights from two public
// signals: mailto: links on the company website and the domain's mail
// provider. The boosts re-rank a copy of the generated candidates for that
// one domain; the fixed global ordering stays untouched. This is a
// refinement layer, not required for correctness.
type PatternAnalyzer struct {
	resolver Resolver
	client   *http.Client
	logger   *logrus.Logger
}

func NewPatternAnalyzer(resolver Resolver, client *http.Client, logger *logrus.Logger) *PatternAnalyzer {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &PatternAnalyzer{resolver: resolver, client: client, logger: logger}
}

// AnalyzeDomain returns multiplicative boosts per pattern kind. An empty
// map means no signal was found.
func (a *PatternAnalyzer) AnalyzeDomain(ctx context.Context, domain string, mx []MX) map[PatternKind]float64 {
	boosts := make(map[PatternKind]float64)

	for kind, weight := range a.scanWebsitePatterns(ctx, domain) {
		boosts[kind] = weight
	}
	for kind, weight := range providerPatternBoosts(mx) {
		boosts[kind] = weight
	}
	return boosts
}

// Rerank returns a copy of candidates ordered by boosted prior. Candidates
// without a boost keep their base prior; the sort is stable so unboosted
// candidates preserve their hand-ranked relative order.
func Rerank(candidates []Candidate, boosts map[PatternKind]float64) []Candidate {
	if len(boosts) == 0 {
		return candidates
	}
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		if boost, ok := boosts[out[i].Pattern]; ok {
			p := out[i].Prior * boost
			if p > 1 {
				p = 1
			}
			out[i].Prior = p
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Prior > out[j].Prior })
	return out
}

// scanWebsitePatterns fetches the company homepage and tallies the pattern
// kinds of any mailto: links, normalized to relative frequency.
func (a *PatternAnalyzer) scanWebsitePatterns(ctx context.Context, domain string) map[PatternKind]float64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+domain, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; LeadStreamBot/1.0)")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.WithField("domain", domain).WithError(err).Debug("website pattern scan failed")
		return nil
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil
	}

	counts := make(map[PatternKind]int)
	total := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || !strings.HasPrefix(attr.Val, "mailto:") {
					continue
				}
				address := strings.SplitN(strings.TrimPrefix(attr.Val, "mailto:"), "?", 2)[0]
				if kind, ok := classifyLocalPart(address); ok {
					counts[kind]++
					total++
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if total == 0 {
		return nil
	}
	boosts := make(map[PatternKind]float64, len(counts))
	for kind, n := range counts {
		boosts[kind] = 1 + float64(n)/float64(total)
	}
	return boosts
}

func classifyLocalPart(address string) (PatternKind, bool) {
	at := strings.IndexByte(address, '@')
	if at <= 0 {
		return "", false
	}
	local := strings.ToLower(address[:at])
	switch {
	case isRoleAccount(local):
		return "", false
	case strings.Contains(local, "."):
		return PatternFirstDotLast, true
	case strings.Contains(local, "_"):
		return PatternFirstUnderLast, true
	case strings.Contains(local, "-"):
		return PatternFirstDashLast, true
	default:
		return PatternFirstLast, true
	}
}

// providerPatternBoosts encodes observed conventions of the big mail
// providers: Workspace shops lean toward first.last, Microsoft tenants
// toward first.last and initials, SES-fronted domains toward underscores.
func providerPatternBoosts(mx []MX) map[PatternKind]float64 {
	if len(mx) == 0 {
		return nil
	}
	host := strings.ToLower(mx[0].Host)
	switch {
	case strings.Contains(host, "google"):
		return map[PatternKind]float64{PatternFirstDotLast: 1.2, PatternInitialLast: 1.1}
	case strings.Contains(host, "outlook"), strings.Contains(host, "office365"):
		return map[PatternKind]float64{PatternFirstDotLast: 1.1, PatternInitialDotLast: 1.05}
	case strings.Contains(host, "amazonaws"):
		return map[PatternKind]float64{PatternFirstUnderLast: 1.3}
	}
	return nil
}
