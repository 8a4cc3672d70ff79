package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrNoJSON indicates the model output contained no JSON value of the
// requested shape.
var ErrNoJSON = fmt.Errorf("gemini: no JSON found in model output")

// ExtractJSONObject slices the outermost {...} from model output and
// unmarshals it into out. Markdown fences and surrounding prose are ignored.
func ExtractJSONObject(text string, out any) error {
	return extractJSON(text, "{", "}", out)
}

// ExtractJSONArray slices the outermost [...] from model output and
// unmarshals it into out.
func ExtractJSONArray(text string, out any) error {
	return extractJSON(text, "[", "]", out)
}

func extractJSON(text, opener, closer string, out any) error {
	start := strings.Index(text, opener)
	end := strings.LastIndex(text, closer)
	if start == -1 || end == -1 || end < start {
		return ErrNoJSON
	}
	if errUnmarshal := json.Unmarshal([]byte(text[start:end+1]), out); errUnmarshal != nil {
		return fmt.Errorf("gemini: parse model JSON: %w", errUnmarshal)
	}
	return nil
}
