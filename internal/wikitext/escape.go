package wikitext

import "regexp"

// Escape quotes every regular expression metacharacter in s so the result
// matches s literally when embedded in a pattern.
func Escape(s string) string { return regexp.QuoteMeta(s) }
