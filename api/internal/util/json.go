package util

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSONObject = errors.New("no json object in text")

// DecodeLooseJSON decodes s into v. Models often wrap the object in prose or
// code fences, so on a direct failure the span from the first '{' to the last
// '}' is decoded instead.
func DecodeLooseJSON(s string, v any) error {
	s = strings.TrimSpace(s)
	err := json.Unmarshal([]byte(s), v)
	if err == nil {
		return nil
	}
	s = StripCodeFences(s)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return errors.Join(err, ErrNoJSONObject)
	}
	return json.Unmarshal([]byte(s[start:end+1]), v)
}
