package ir

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter value prefixes.
const (
	PrefixLike = "like:"
	PrefixJSON = "json:"
)

var jsonFieldPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParseMatch parses a key or value filter string.
//
//	"red"              exact match
//	"like:re"          substring match
//	"json:shade=red"   JSON field match (only when allowJSON)
//
// An empty string yields ok=false: the field is not filtered.
func ParseMatch(s string, allowJSON bool) (m Match, ok bool, err error) {
	if s == "" {
		return Match{}, false, nil
	}

	switch {
	case strings.HasPrefix(s, PrefixLike):
		return Match{Mode: MatchLike, Text: strings.TrimPrefix(s, PrefixLike)}, true, nil

	case strings.HasPrefix(s, PrefixJSON):
		if !allowJSON {
			return Match{}, false, fmt.Errorf("%q filters are only supported on value", PrefixJSON)
		}
		field, literal, found := strings.Cut(strings.TrimPrefix(s, PrefixJSON), "=")
		if !found {
			return Match{}, false, fmt.Errorf("json filter %q: expected json:<field>=<value>", s)
		}
		if !jsonFieldPattern.MatchString(field) {
			return Match{}, false, fmt.Errorf("json filter %q: field must match %s", s, jsonFieldPattern)
		}
		return Match{Mode: MatchJSONField, Field: field, Text: literal}, true, nil

	default:
		return Match{Mode: MatchExact, Text: s}, true, nil
	}
}

// Verbs resolves the verb set the filter targets.
func (f Filter) Verbs() ([]Verb, error) {
	if f.Verb == VerbAll {
		return append([]Verb(nil), AllVerbs...), nil
	}
	if f.Verb == "" {
		return nil, fmt.Errorf("verb is required (use %q for every verb)", VerbAll)
	}
	v, err := ParseVerb(f.Verb)
	if err != nil {
		return nil, err
	}
	return []Verb{v}, nil
}

// Normalize validates the filter and returns a copy with defaults applied
// and time bounds rewritten into TimestampLayout.
func (f Filter) Normalize() (Filter, error) {
	if _, err := f.Verbs(); err != nil {
		return Filter{}, err
	}
	if _, _, err := ParseMatch(f.Key, false); err != nil {
		return Filter{}, fmt.Errorf("key: %w", err)
	}
	if _, _, err := ParseMatch(f.Value, true); err != nil {
		return Filter{}, fmt.Errorf("value: %w", err)
	}
	if f.Limit < 0 {
		return Filter{}, fmt.Errorf("limit must be non-negative, got %d", f.Limit)
	}
	if f.Offset < 0 {
		return Filter{}, fmt.Errorf("offset must be non-negative, got %d", f.Offset)
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}

	var err error
	if f.Since != "" {
		if f.Since, err = NormalizeTimestamp(f.Since); err != nil {
			return Filter{}, fmt.Errorf("since: %w", err)
		}
	}
	if f.Until != "" {
		if f.Until, err = NormalizeUpperBound(f.Until); err != nil {
			return Filter{}, fmt.Errorf("until: %w", err)
		}
	}
	if f.Since != "" && f.Until != "" && f.Since > f.Until {
		return Filter{}, fmt.Errorf("since %s is after until %s", f.Since, f.Until)
	}
	return f, nil
}
