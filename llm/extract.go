package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fenceRE       = regexp.MustCompile("```(?:json)?")
	bareNewlineRE = regexp.MustCompile(`([^\\])\n`)
)

// UnmarshalLoose decodes model output that is supposed to be JSON but is
// often wrapped in markdown fences or carries unescaped newlines inside
// string values. It strips the fences, tries a straight decode, and only
// then falls back to escaping bare newlines.
func UnmarshalLoose(content string, v interface{}) error {
	cleaned := strings.TrimSpace(fenceRE.ReplaceAllString(content, ""))
	if cleaned == "" {
		return fmt.Errorf("empty model output")
	}
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	escaped := bareNewlineRE.ReplaceAllString(cleaned, `$1\n`)
	if err := json.Unmarshal([]byte(escaped), v); err != nil {
		return fmt.Errorf("model output is not valid JSON: %w", err)
	}
	return nil
}
