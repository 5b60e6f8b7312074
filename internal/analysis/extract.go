package analysis

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractStructured pulls a JSON object out of an LLM text reply. Models
// asked for bare JSON still wrap it in a fenced code block often enough that
// the fallback chain is: fenced block, then the whole reply as JSON. The
// second return is false when neither parses.
func ExtractStructured(text string) (map[string]any, bool) {
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		if obj, ok := parseObject(m[1]); ok {
			return obj, true
		}
	}
	return parseObject(text)
}

func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
