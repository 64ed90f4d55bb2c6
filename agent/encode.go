package agent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	errorspkg "github.com/sweetpotato0/voyager/errors"
)

// decodeJSON extracts the JSON document from raw model output and
// unmarshals it into T. Failures wrap ErrMalformedResponse.
func decodeJSON[T any](raw string) (*T, error) {
	clean := sanitizeJSON(raw)
	if clean == "" {
		return nil, fmt.Errorf("%w: no JSON found", errorspkg.ErrMalformedResponse)
	}
	var out T
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("%w: decode JSON: %w", errorspkg.ErrMalformedResponse, err)
	}
	return &out, nil
}

// sanitizeJSON returns the JSON part of raw. A triple-backtick fence is
// honored wherever it appears, with or without a language tag; otherwise the
// outermost object or array embedded in the text is used.
func sanitizeJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if start := strings.Index(trimmed, "```"); start >= 0 {
		body := trimmed[start+3:]
		// drop a language tag such as json or JSON
		i := 0
		for i < len(body) && isTagChar(body[i]) {
			i++
		}
		body = body[i:]
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	if trimmed == "" || trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	open := strings.IndexAny(trimmed, "{[")
	if open < 0 {
		return ""
	}
	closer := byte('}')
	if trimmed[open] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(trimmed, closer)
	if end <= open {
		return ""
	}
	return trimmed[open : end+1]
}

func isTagChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

// flexNumber decodes a JSON number or a numeric string such as "30k",
// "₹45,000" or "5 days". Null and unparseable strings decode as unset.
type flexNumber struct {
	value float64
	set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*n = flexNumber{}
		return nil
	}
	if s[0] != '"' {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("number %s: %w", s, err)
		}
		*n = flexNumber{value: v, set: true}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	v, ok := parseLooseNumber(text)
	*n = flexNumber{value: v, set: ok}
	return nil
}

func parseLooseNumber(text string) (float64, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	var digits strings.Builder
	rest := ""
scan:
	for i, r := range lower {
		switch {
		case r >= '0' && r <= '9' || r == '.':
			digits.WriteRune(r)
		case r == ',' || r == '_':
		default:
			if digits.Len() > 0 {
				rest = strings.TrimSpace(lower[i:])
				break scan
			}
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(digits.String(), 64)
	if err != nil {
		return 0, false
	}
	switch {
	case strings.HasPrefix(rest, "k"):
		v *= 1_000
	case strings.HasPrefix(rest, "lakh"), strings.HasPrefix(rest, "lac"):
		v *= 100_000
	case rest == "m", strings.HasPrefix(rest, "mn"), strings.HasPrefix(rest, "million"):
		v *= 1_000_000
	}
	return v, true
}

// rankedID is one entry of an id list reply.
type rankedID struct {
	ID        string
	Score     float64
	Reasoning string
}

type rankedEntry struct {
	PackageID string     `json:"package_id"`
	ID        string     `json:"id"`
	Score     flexNumber `json:"score"`
	Reasoning string     `json:"reasoning"`
}

// decodeIDList decodes a list of package ids. The list may be the value of
// one of keys in an object or the whole document, and each element may be
// a bare id or an object carrying package_id.
func decodeIDList(raw string, keys ...string) ([]rankedID, error) {
	clean := sanitizeJSON(raw)
	if clean == "" {
		return nil, fmt.Errorf("%w: no JSON found", errorspkg.ErrMalformedResponse)
	}
	list := json.RawMessage(clean)
	if clean[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(clean), &obj); err != nil {
			return nil, fmt.Errorf("%w: decode JSON: %w", errorspkg.ErrMalformedResponse, err)
		}
		list = nil
		for _, k := range keys {
			if v, ok := obj[k]; ok {
				list = v
				break
			}
		}
		if list == nil {
			return nil, fmt.Errorf("%w: none of %v present", errorspkg.ErrMalformedResponse, keys)
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, fmt.Errorf("%w: decode id list: %w", errorspkg.ErrMalformedResponse, err)
	}
	out := make([]rankedID, 0, len(items))
	for _, item := range items {
		var id string
		if err := json.Unmarshal(item, &id); err == nil {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, rankedID{ID: id})
			}
			continue
		}
		var e rankedEntry
		if err := json.Unmarshal(item, &e); err != nil {
			return nil, fmt.Errorf("%w: decode id entry: %w", errorspkg.ErrMalformedResponse, err)
		}
		id = strings.TrimSpace(e.PackageID)
		if id == "" {
			id = strings.TrimSpace(e.ID)
		}
		if id != "" {
			out = append(out, rankedID{ID: id, Score: e.Score.value, Reasoning: e.Reasoning})
		}
	}
	return out, nil
}
