package matcher

import (
	"fmt"
	"strings"
)

// httpTokenChars are the RFC 7230 "tchar" set: a non-empty run of these
// forms a valid HTTP method token, including extension methods (PROPFIND,
// PURGE, ...) beyond the common verbs.
const httpTokenChars = "!#$%&'*+-.^_`|~0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ParseMethod canonicalizes a method token to uppercase and validates it is
// a legal HTTP method token. An unparseable method is a fatal compile
// error, per spec §4.2.
func ParseMethod(raw string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if upper == "" {
		return "", fmt.Errorf("empty method")
	}
	for _, r := range upper {
		if !strings.ContainsRune(httpTokenChars, r) {
			return "", fmt.Errorf("invalid method token %q", raw)
		}
	}
	return upper, nil
}

// MethodSet is the compiled form of a MatchRule's `methods` field. An empty
// set matches any method (spec §3: "Empty set = match any method").
type MethodSet map[string]struct{}

// ParseMethodSet parses and canonicalizes a list of method names.
func ParseMethodSet(raw []string) (MethodSet, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	set := make(MethodSet, len(raw))
	for _, m := range raw {
		canon, err := ParseMethod(m)
		if err != nil {
			return nil, err
		}
		set[canon] = struct{}{}
	}
	return set, nil
}

// Matches reports whether method satisfies this set. A nil/empty set is a
// wildcard.
func (s MethodSet) Matches(method string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[strings.ToUpper(method)]
	return ok
}
