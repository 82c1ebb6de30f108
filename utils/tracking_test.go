package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInjectTracking(t *testing.T) {
	body := "<p>Hello</p>"
	out := InjectTracking(body, "https://app.example.com/", "abc-123")

	assert.True(t, strings.HasPrefix(out, body), "original body stays first")
	assert.Contains(t, out, "https://app.example.com/track/open/abc-123")
	assert.Contains(t, out, "https://app.example.com/track/response/abc-123?response=Interested")
	assert.Contains(t, out, "https://app.example.com/track/response/abc-123?response=Not+Interested")
	assert.True(t, strings.HasSuffix(out, `style="display:none">`), "pixel goes last")
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("John Doe")
	assert.Equal(t, "John", first)
	assert.Equal(t, "Doe", last)

	first, last = SplitName("Mary Jane Watson")
	assert.Equal(t, "Mary", first)
	assert.Equal(t, "Jane Watson", last)

	first, last = SplitName("Prince")
	assert.Equal(t, "Prince", first)
	assert.Empty(t, last)
}

func TestDomainFromWebsite(t *testing.T) {
	assert.Equal(t, "acme.com", DomainFromWebsite("https://www.acme.com/about"))
	assert.Equal(t, "acme.io", DomainFromWebsite("http://acme.io"))
	assert.Equal(t, "acme.dev", DomainFromWebsite("ACME.dev"))
}
