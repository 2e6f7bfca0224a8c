package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UnmarshalLoose extracts the first JSON object from a model response and
// unmarshals it. Models wrap JSON in prose or ```json fences often enough
// that strict parsing loses valid answers.
func UnmarshalLoose(content string, v interface{}) error {
	content = strings.TrimSpace(content)

	if idx := strings.Index(content, "{"); idx >= 0 {
		content = content[idx:]
	}
	if idx := strings.LastIndex(content, "}"); idx >= 0 {
		content = content[:idx+1]
	}

	if err := json.Unmarshal([]byte(content), v); err != nil {
		return fmt.Errorf("JSON unmarshal failed: %w", err)
	}
	return nil
}
