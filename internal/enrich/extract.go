package enrich

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedJSONExpr = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	fencedExpr     = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// ExtractJSON locates the first well-formed JSON value in provider output
// that may be wrapped in markdown fences or prose. Strategies are tried in
// order: ```json fence, bare fence, first-brace-to-last-brace, raw text.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	for _, candidate := range jsonCandidates(text) {
		if candidate != "" && json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no valid JSON object in provider output")
}

func jsonCandidates(text string) []string {
	var out []string
	if m := fencedJSONExpr.FindStringSubmatch(text); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	if m := fencedExpr.FindStringSubmatch(text); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			out = append(out, strings.TrimSpace(text[start:end+1]))
		}
	}
	return append(out, text)
}
