package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreChecksBoundaryIsInclusive(t *testing.T) {
	// syntax + mx + smtp = 0.15 + 0.25 + 0.30 = 0.70 exactly.
	checks := map[string]bool{
		CheckSyntax:      true,
		CheckMXRecords:   true,
		CheckDisposable:  false,
		CheckRoleAccount: false,
		CheckSMTPVerify:  true,
		CheckWebPresence: false,
	}
	score := scoreChecks(checks)
	assert.InDelta(t, 0.70, score, 1e-9)
	assert.True(t, score >= validThreshold, "0.70 must pass the threshold")
}

func TestScoreChecksNegativeSignals(t *testing.T) {
	checks := map[string]bool{
		CheckSyntax:      true,
		CheckMXRecords:   true,
		CheckDisposable:  true,
		CheckRoleAccount: true,
		CheckSMTPVerify:  true,
		CheckWebPresence: true,
	}
	// 0.15+0.25-0.5-0.2+0.3+0.1 = 0.10
	assert.InDelta(t, 0.10, scoreChecks(checks), 1e-9)
}

func TestScoreChecksClampsAtZero(t *testing.T) {
	checks := map[string]bool{
		CheckDisposable:  true,
		CheckRoleAccount: true,
	}
	assert.Equal(t, 0.0, scoreChecks(checks))
}

func TestIsRoleAccount(t *testing.T) {
	assert.True(t, isRoleAccount("admin"))
	assert.True(t, isRoleAccount("it-support"))
	assert.True(t, isRoleAccount("Sales"))
	assert.True(t, isRoleAccount("info+deals"))
	assert.False(t, isRoleAccount("john.doe"))

	// Role words embedded in personal names are not role accounts.
	assert.False(t, isRoleAccount("marketinfo"))
	assert.False(t, isRoleAccount("jsadmin"))
	assert.False(t, isRoleAccount("desalesio"))
}

func TestIsDisposableDomain(t *testing.T) {
	assert.True(t, isDisposableDomain("mailinator.com"))
	assert.True(t, isDisposableDomain("Yopmail.com"))
	assert.False(t, isDisposableDomain("example.com"))
}
