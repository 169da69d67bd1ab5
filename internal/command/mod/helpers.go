// Package mod holds the operator command surface: denylist management,
// listings, and the announcement fan-out.
package mod

import "strconv"

// validID accepts decimal snowflake ids.
func validID(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
