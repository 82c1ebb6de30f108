package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// The drafter is optional at deploy time, so callers may hold a nil
// pointer; drafting must fail with an error rather than crash.
func TestNilDrafterReturnsError(t *testing.T) {
	var d *Drafter

	_, err := d.DraftProposal(context.Background(), DraftInput{})
	require.Error(t, err)

	_, err = d.DraftReminder(context.Background(), DraftInput{}, "subject", "body")
	require.Error(t, err)
}
