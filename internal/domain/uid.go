package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// UIDPrefix is the fixed prefix of every requirement uid.
const UIDPrefix = "REQ-"

var uidPattern = regexp.MustCompile(`^REQ-([0-9]+)$`)

// FormatUID renders n as REQ-NNNN. Numbers wider than four digits are
// printed in full (REQ-10000), never truncated.
func FormatUID(n int) string {
	return fmt.Sprintf("%s%04d", UIDPrefix, n)
}

// ParseUID returns the numeric suffix of a REQ-NNNN uid.
func ParseUID(uid string) (int, error) {
	m := uidPattern.FindStringSubmatch(uid)
	if m == nil {
		return 0, &ValidationError{Field: "uid", Rule: "must look like REQ-0001", Value: uid}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &ValidationError{Field: "uid", Rule: "numeric suffix out of range", Value: uid}
	}
	return n, nil
}

// IsUID reports whether s has the REQ-NNNN shape.
func IsUID(s string) bool {
	return uidPattern.MatchString(s)
}
