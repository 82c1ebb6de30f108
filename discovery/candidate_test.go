package discovery

import (
	"testing"

	"github.com/badoux/checkmail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderAndShape(t *testing.T) {
	candidates, err := Generate("John", "Doe", "Example.COM")
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	wantOrder := []string{
		"john", "john.doe", "johndoe", "john_doe",
		"doe.john", "john-doe", "j.doe", "jdoe",
	}
	require.Len(t, candidates, len(wantOrder))
	for i, c := range candidates {
		assert.Equal(t, wantOrder[i], c.LocalPart)
		assert.Equal(t, "example.com", c.Domain)
		assert.Equal(t, c.LocalPart+"@example.com", c.Address())
	}

	// Priors strictly decrease: the order encodes likelihood.
	for i := 1; i < len(candidates); i++ {
		assert.Greater(t, candidates[i-1].Prior, candidates[i].Prior)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate("jane", "smith", "acme.io")
	require.NoError(t, err)
	b, err := Generate("  Jane ", " SMITH ", "acme.io")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateRoundTrip(t *testing.T) {
	candidates, err := Generate("John", "Doe", "example.com")
	require.NoError(t, err)

	hits := 0
	for _, c := range candidates {
		if c.Address() == "john.doe@example.com" {
			hits++
		}
	}
	assert.Equal(t, 1, hits, "first.last must appear exactly once")
}

func TestGenerateAddressesAreSyntacticallyValid(t *testing.T) {
	candidates, err := Generate("Marie", "O'Neil", "example.org")
	require.NoError(t, err)
	for _, c := range candidates {
		err := checkmail.ValidateFormat(c.Address())
		assert.NoError(t, err, "address %q", c.Address())
		// Re-validation of an already valid address must agree.
		assert.NoError(t, checkmail.ValidateFormat(c.Address()))
	}
}

func TestGenerateInputValidation(t *testing.T) {
	cases := []struct {
		name                string
		first, last, domain string
		wantErr             error
	}{
		{"empty first", "", "doe", "example.com", ErrInvalidInput},
		{"blank last", "john", "   ", "example.com", ErrInvalidInput},
		{"empty domain", "john", "doe", "", ErrInvalidInput},
		{"malformed domain", "john", "doe", "not a domain", ErrInvalidDomain},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Generate(tc.first, tc.last, tc.domain)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGenerateCollapsesDuplicates(t *testing.T) {
	// A one-letter first name makes "first" and some initial variants
	// collide; duplicates must not be emitted.
	candidates, err := Generate("J", "Doe", "example.com")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, c := range candidates {
		assert.False(t, seen[c.LocalPart], "duplicate local part %q", c.LocalPart)
		seen[c.LocalPart] = true
	}
}
