package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvPrefersSetValue(t *testing.T) {
	t.Setenv("LS_TEST_STRING", "from-env")
	assert.Equal(t, "from-env", getEnv("LS_TEST_STRING", "fallback"))
	assert.Equal(t, "fallback", getEnv("LS_TEST_UNSET", "fallback"))
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("LS_TEST_INT", "42")
	assert.Equal(t, 42, getEnvAsInt("LS_TEST_INT", 7))

	t.Setenv("LS_TEST_INT", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("LS_TEST_INT", 7))
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("LS_TEST_BOOL", "yes")
	assert.True(t, getEnvAsBool("LS_TEST_BOOL", false))

	t.Setenv("LS_TEST_BOOL", "off")
	assert.False(t, getEnvAsBool("LS_TEST_BOOL", true))

	t.Setenv("LS_TEST_BOOL", "maybe")
	assert.True(t, getEnvAsBool("LS_TEST_BOOL", true))
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("LS_TEST_DUR", "90s")
	assert.Equal(t, 90*time.Second, getEnvAsDuration("LS_TEST_DUR", time.Minute))

	t.Setenv("LS_TEST_DUR", "soon")
	assert.Equal(t, time.Minute, getEnvAsDuration("LS_TEST_DUR", time.Minute))
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("LS_TEST_LIST", "8.8.8.8:53, 1.1.1.1:53 ,")
	assert.Equal(t, []string{"8.8.8.8:53", "1.1.1.1:53"}, getEnvAsList("LS_TEST_LIST", nil))

	assert.Equal(t, []string{"fallback"}, getEnvAsList("LS_TEST_LIST_UNSET", []string{"fallback"}))
}

func TestMaskPasswordHidesDSNPassword(t *testing.T) {
	dsn := "host=localhost user=postgres password=hunter2 dbname=leadstream"
	masked := maskPassword(dsn)
	assert.NotContains(t, masked, "hunter2")
	assert.Contains(t, masked, "host=localhost")

	assert.Equal(t, "host=localhost", maskPassword("host=localhost"))
}
