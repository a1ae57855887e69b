package models

import "regexp"

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsValidDate reports whether s is an ISO YYYY-MM-DD date string. Dates are
// stored as text; the ISO form keeps lexical order equal to chronological
// order.
func IsValidDate(s string) bool {
	return dateRe.MatchString(s)
}
