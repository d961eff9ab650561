package completion

import (
	"encoding/json"
	"regexp"
	"strings"

	"go-booking-agent/core/errors"
)

var fencePattern = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON parses a JSON object out of a completion, tolerating a
// surrounding ``` or ```json fence.
func ExtractJSON(text string) (map[string]any, error) {
	body := strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(body); m != nil {
		body = m[1]
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, errors.NewAppError(errors.ErrParse, "completion did not contain a JSON object", err)
	}
	if out == nil {
		return nil, errors.NewAppError(errors.ErrParse, "completion did not contain a JSON object", nil)
	}
	return out, nil
}
