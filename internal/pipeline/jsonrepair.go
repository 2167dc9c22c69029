package pipeline

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/dvloznov/statement-extractor/internal/textutil"
)

const maxExcerpt = 200

var (
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	newlineRuns   = regexp.MustCompile(`[\r\n]+`)
	spaceRuns     = regexp.MustCompile(`\s+`)
)

// ExtractJSON recovers the JSON object embedded in a model reply. It tolerates
// prose around the object, trailing commas and embedded newlines. Numbers are
// kept as json.Number so long account numbers survive intact.
func ExtractJSON(reply, label string) (map[string]interface{}, error) {
	candidate, ok := objectCandidate(reply)
	if !ok {
		return nil, &EmptyOrMalformedReplyError{Label: label}
	}

	repaired := repairJSON(candidate)

	dec := json.NewDecoder(strings.NewReader(repaired))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, &JSONRepairFailedError{Label: label, Err: err, Excerpt: textutil.Excerpt(repaired, maxExcerpt)}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &JSONRepairFailedError{Label: label, Err: errors.New("unexpected data after top-level object"), Excerpt: textutil.Excerpt(repaired, maxExcerpt)}
	}

	return obj, nil
}

// objectCandidate slices from the first '{' to the last '}' inclusive.
func objectCandidate(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

func repairJSON(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")
	s = newlineRuns.ReplaceAllString(s, " ")
	s = spaceRuns.ReplaceAllString(s, " ")
	return s
}
