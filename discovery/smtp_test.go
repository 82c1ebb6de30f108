package discovery

import (
	"context"
	"io"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSMTPVerifier(t *testing.T) *SMTPVerifier {
	t.Helper()
	v := NewSMTPVerifier(Config{
		HeloDomain:   "probe.test",
		MailFrom:     "verify@probe.test",
		ProbeRetries: 1,
		RetryBackoff: time.Millisecond,
	})
	// Never sleep for real in tests.
	v.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return v
}

func TestSMTPVerifySoftFailThenAccept(t *testing.T) {
	v := newTestSMTPVerifier(t)

	var calls int
	v.probeHost = func(_ context.Context, host, address string) probeResult {
		calls++
		if calls == 1 {
			return probeResult{probeUndetermined, "rcpt_to: 450"}
		}
		return probeResult{probeAccepted, "250"}
	}

	cand := Candidate{LocalPart: "john", Domain: "example.com"}
	got := v.Verify(context.Background(), cand, []MX{{Host: "mx.example.com", Pref: 10}})

	assert.True(t, got.Accepted, "a 450 on first attempt must not be terminal")
	assert.Equal(t, 2, calls)
	assert.Equal(t, "250", got.RawSignal)
}

func TestSMTPVerifyHardReject(t *testing.T) {
	v := newTestSMTPVerifier(t)

	var calls int
	v.probeHost = func(_ context.Context, _, _ string) probeResult {
		calls++
		return probeResult{probeRejected, "rcpt_to: 550"}
	}

	got := v.Verify(context.Background(), Candidate{LocalPart: "x", Domain: "example.com"},
		[]MX{{Host: "mx1.example.com"}, {Host: "mx2.example.com"}})

	assert.False(t, got.Accepted)
	assert.Equal(t, 1, calls, "a 5xx answer is definitive, no retry and no next host")
}

func TestSMTPVerifyFallsThroughHosts(t *testing.T) {
	v := newTestSMTPVerifier(t)

	seen := make(map[string]int)
	v.probeHost = func(_ context.Context, host, _ string) probeResult {
		seen[host]++
		if host == "mx2.example.com" {
			return probeResult{probeAccepted, "250"}
		}
		return probeResult{probeUndetermined, "rcpt_to: server disconnected"}
	}

	got := v.Verify(context.Background(), Candidate{LocalPart: "x", Domain: "example.com"},
		[]MX{{Host: "mx1.example.com", Pref: 5}, {Host: "mx2.example.com", Pref: 10}})

	require.True(t, got.Accepted)
	assert.Equal(t, 2, seen["mx1.example.com"], "soft failures retried before moving on")
	assert.Equal(t, 1, seen["mx2.example.com"])
}

func TestSMTPVerifyAllUndeterminedIsNotFoundNotError(t *testing.T) {
	v := newTestSMTPVerifier(t)
	v.probeHost = func(_ context.Context, _, _ string) probeResult {
		return probeResult{probeUndetermined, "dial: connection refused"}
	}

	got := v.Verify(context.Background(), Candidate{LocalPart: "x", Domain: "example.com"},
		[]MX{{Host: "mx.example.com"}})
	assert.False(t, got.Accepted)
	assert.NotEmpty(t, got.RawSignal)
}

func TestSMTPVerifyRespectsCancellation(t *testing.T) {
	v := newTestSMTPVerifier(t)
	v.probeHost = func(_ context.Context, _, _ string) probeResult {
		return probeResult{probeUndetermined, "rcpt_to: 451"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := v.Verify(ctx, Candidate{LocalPart: "x", Domain: "example.com"},
		[]MX{{Host: "mx.example.com"}})
	assert.False(t, got.Accepted)
	assert.Equal(t, "cancelled", got.RawSignal)
}

func TestClassifySMTPErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want probeStatus
	}{
		{"permanent 550", &textproto.Error{Code: 550, Msg: "no such user"}, probeRejected},
		{"permanent 554", &textproto.Error{Code: 554, Msg: "denied"}, probeRejected},
		{"greylisted 450", &textproto.Error{Code: 450, Msg: "try later"}, probeUndetermined},
		{"throttled 421", &textproto.Error{Code: 421, Msg: "too many"}, probeUndetermined},
		{"disconnect", io.EOF, probeUndetermined},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifySMTPErr("rcpt_to", tc.err)
			assert.Equal(t, tc.want, got.status)
		})
	}
}
