package discovery

import (
	"context"
	"errors"
	"io"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// probeStatus classifies a single RCPT TO dialogue.
type probeStatus int

const (
	probeAccepted probeStatus = iota
	probeRejected
	// probeUndetermined covers soft 4xx codes, greylisting and server
	// disconnects: the host said neither yes nor no.
	probeUndetermined
)

type probeResult struct {
	status probeStatus
	signal string
}

// SMTPVerifier confirms deliverability by asking the recipient's own mail
// server. It opens an SMTP session to each MX host in preference order and
// issues EHLO, MAIL FROM and RCPT TO, then RSET: the server's
// recipient-acceptance response is the oracle, no message is delivered.
type SMTPVerifier struct {
	heloDomain     string
	mailFrom       string
	dialTimeout    time.Duration
	sessionTimeout time.Duration
	retries        int
	backoffBase    time.Duration
	maxMXHosts     int
	logger         *logrus.Logger

	// probeHost is swappable so selection and retry policy can be tested
	// without talking to real mail servers.
	probeHost func(ctx context.Context, host, address string) probeResult

	// sleep is swappable for the same reason.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewSMTPVerifier(cfg Config) *SMTPVerifier {
	cfg = cfg.withDefaults()
	v := &SMTPVerifier{
		heloDomain:     cfg.HeloDomain,
		mailFrom:       cfg.MailFrom,
		dialTimeout:    cfg.DialTimeout,
		sessionTimeout: cfg.SessionTimeout,
		retries:        cfg.ProbeRetries,
		backoffBase:    cfg.RetryBackoff,
		maxMXHosts:     cfg.MaxMXHosts,
		logger:         cfg.Logger,
	}
	v.probeHost = v.dialAndProbe
	v.sleep = sleepCtx
	return v
}

func (v *SMTPVerifier) Mechanism() Mechanism { return MechanismSMTPProbe }

// Verify probes MX hosts in preference order. A definitive answer from any
// host ends the attempt; undetermined answers are retried with exponential
// backoff before moving to the next host. Undetermined across the board is
// reported as not accepted, never as an error: one soft-failing candidate
// must not abort the discovery.
func (v *SMTPVerifier) Verify(ctx context.Context, cand Candidate, mx []MX) Verification {
	started := time.Now()
	result := Verification{Candidate: cand, Mechanism: MechanismSMTPProbe}

	hosts := mx
	if len(hosts) > v.maxMXHosts {
		hosts = hosts[:v.maxMXHosts]
	}

	address := cand.Address()
	for _, host := range hosts {
		for attempt := 0; ; attempt++ {
			if ctx.Err() != nil {
				result.RawSignal = "cancelled"
				result.Latency = time.Since(started)
				return result
			}

			pr := v.probeHost(ctx, host.Host, address)
			result.RawSignal = pr.signal

			switch pr.status {
			case probeAccepted:
				result.Accepted = true
				result.Latency = time.Since(started)
				return result
			case probeRejected:
				result.Latency = time.Since(started)
				return result
			}

			// Soft failure. Back off and retry on this host a bounded
			// number of times, then fall through to the next one.
			if attempt >= v.retries {
				break
			}
			backoff := v.backoffBase << uint(attempt)
			v.logger.WithFields(logrus.Fields{
				"address": address,
				"host":    host.Host,
				"signal":  pr.signal,
				"backoff": backoff.String(),
			}).Debug("soft SMTP failure, retrying")
			if err := v.sleep(ctx, backoff); err != nil {
				result.Latency = time.Since(started)
				return result
			}
		}
	}

	result.Latency = time.Since(started)
	return result
}

// dialAndProbe runs one full SMTP dialogue against a single host. The
// connection is closed on every exit path.
func (v *SMTPVerifier) dialAndProbe(ctx context.Context, host, address string) probeResult {
	dialer := net.Dialer{Timeout: v.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, "25"))
	if err != nil {
		return probeResult{probeUndetermined, "dial: " + err.Error()}
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(v.sessionTimeout))

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return probeResult{probeUndetermined, "banner: " + err.Error()}
	}
	defer client.Close()

	if err := client.Hello(v.heloDomain); err != nil {
		return classifySMTPErr("helo", err)
	}
	if err := client.Mail(v.mailFrom); err != nil {
		return classifySMTPErr("mail_from", err)
	}

	rcptErr := client.Rcpt(address)

	// Reset the envelope and say goodbye regardless of the answer; some
	// servers greylist clients that drop sessions mid-transaction.
	_ = client.Reset()
	_ = client.Quit()

	if rcptErr == nil {
		return probeResult{probeAccepted, "250"}
	}
	return classifySMTPErr("rcpt_to", rcptErr)
}

// classifySMTPErr maps an SMTP command error onto the probe taxonomy:
// 5xx is a permanent rejection, 4xx is transient (greylisting, catch-all
// servers soft-failing probes), and a dropped connection is undetermined.
func classifySMTPErr(stage string, err error) probeResult {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		signal := stage + ": " + strconv.Itoa(tpErr.Code)
		switch {
		case tpErr.Code >= 500:
			return probeResult{probeRejected, signal}
		case tpErr.Code >= 400:
			return probeResult{probeUndetermined, signal}
		}
		return probeResult{probeUndetermined, signal}
	}
	if errors.Is(err, io.EOF) {
		return probeResult{probeUndetermined, stage + ": server disconnected"}
	}
	return probeResult{probeUndetermined, stage + ": " + err.Error()}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
