package extract

import "regexp"

// Models wrap their JSON in code fences or surrounding prose more often than
// not. Try, in order: a fence explicitly labeled json, any fence, the first
// brace-delimited substring. First match wins.
var jsonPatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```"),
	regexp.MustCompile("(?s)```\\s*(\\{.*?\\})\\s*```"),
	regexp.MustCompile(`(?s)(\{.*\})`),
}

// IsolateJSON extracts a single JSON object from raw model text. The second
// return value is false when no candidate object was found.
func IsolateJSON(text string) (string, bool) {
	for _, p := range jsonPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}
