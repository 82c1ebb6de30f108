package discovery

import (
	"context"
	"errors"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// MX is a single mail-exchanger record.
type MX struct {
	Host string `json:"host"`
	Pref uint16 `json:"pref"`
}

// Resolver resolves a domain's mail exchangers.
type Resolver interface {
	ResolveMX(ctx context.Context, domain string) ([]MX, error)
}

// DNSResolver queries explicit public recursive resolvers instead of the
// system default, so a misconfigured or stale local resolver cannot poison
// discovery. Each configured server is an independent fallback.
type DNSResolver struct {
	servers []string
	timeout time.Duration
	logger  *logrus.Logger
}

const defaultResolveTimeout = 10 * time.Second

// DefaultResolverAddrs are two independent public providers; relying on a
// single one would make DNS a single point of failure.
var DefaultResolverAddrs = []string{"8.8.8.8:53", "1.1.1.1:53"}

func NewDNSResolver(servers []string, timeout time.Duration, logger *logrus.Logger) *DNSResolver {
	if len(servers) == 0 {
		servers = DefaultResolverAddrs
	}
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &DNSResolver{servers: servers, timeout: timeout, logger: logger}
}

// ResolveMX returns the domain's MX hosts sorted by preference. It fails
// with ErrNoMXRecords when the domain authoritatively has none and with
// ErrResolveTimeout when no configured server answers in time. It never
// returns an empty list with a nil error.
func (r *DNSResolver) ResolveMX(ctx context.Context, domain string) ([]MX, error) {
	var lastErr error

	for _, server := range r.servers {
		records, err := r.lookupVia(ctx, server, domain)
		if err == nil {
			if len(records) == 0 {
				return nil, ErrNoMXRecords
			}
			sort.Slice(records, func(i, j int) bool { return records[i].Pref < records[j].Pref })
			return records, nil
		}

		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, ErrNoMXRecords
		}
		r.logger.WithFields(logrus.Fields{
			"domain":   domain,
			"resolver": server,
		}).WithError(err).Debug("MX lookup failed, trying next resolver")
		lastErr = err
	}

	if lastErr != nil {
		var dnsErr *net.DNSError
		if errors.As(lastErr, &dnsErr) && dnsErr.IsTimeout {
			return nil, ErrResolveTimeout
		}
		if errors.Is(lastErr, context.DeadlineExceeded) {
			return nil, ErrResolveTimeout
		}
		return nil, lastErr
	}
	return nil, ErrResolveTimeout
}

func (r *DNSResolver) lookupVia(ctx context.Context, server, domain string) ([]MX, error) {
	resolver := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			d := net.Dialer{Timeout: r.timeout}
			return d.DialContext(ctx, network, server)
		},
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	records, err := resolver.LookupMX(ctx, domain)
	if err != nil {
		return nil, err
	}

	out := make([]MX, 0, len(records))
	for _, rec := range records {
		host := strings.TrimSuffix(rec.Host, ".")
		if host == "" {
			continue
		}
		out = append(out, MX{Host: host, Pref: rec.Pref})
	}
	return out, nil
}
