package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalLooseStripsFences(t *testing.T) {
	content := "```json\n{\"subject\": \"Hello\", \"body\": \"World\"}\n```"
	var out map[string]string
	require.NoError(t, UnmarshalLoose(content, &out))
	assert.Equal(t, "Hello", out["subject"])
	assert.Equal(t, "World", out["body"])
}

func TestUnmarshalLoosePlainJSON(t *testing.T) {
	var out []map[string]string
	require.NoError(t, UnmarshalLoose(`[{"name": "Acme", "industry": "SaaS"}]`, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Acme", out[0]["name"])
}

func TestUnmarshalLooseEscapesBareNewlines(t *testing.T) {
	// Models sometimes emit literal newlines inside string values.
	content := "{\"body\": \"line one\nline two\"}"
	var out map[string]string
	require.NoError(t, UnmarshalLoose(content, &out))
	assert.Equal(t, "line one\nline two", out["body"])
}

func TestUnmarshalLooseRejectsGarbage(t *testing.T) {
	var out map[string]string
	assert.Error(t, UnmarshalLoose("Sure! Here is the email you asked for.", &out))
	assert.Error(t, UnmarshalLoose("", &out))
	assert.Error(t, UnmarshalLoose("``````", &out))
}
