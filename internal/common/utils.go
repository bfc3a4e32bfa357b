package common

import "strings"

// ContainsAnyFold reports whether s contains any of subs, ignoring case.
// subs are expected in lower case.
func ContainsAnyFold(s string, subs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
