package domain

import (
	"fmt"
	"strings"
)

type RequirementStatus string

const (
	StatusDraft      RequirementStatus = "DRAFT"
	StatusReview     RequirementStatus = "REVIEW"
	StatusApproved   RequirementStatus = "APPROVED"
	StatusDeprecated RequirementStatus = "DEPRECATED"
	StatusArchived   RequirementStatus = "ARCHIVED"
)

// RequirementStatuses lists the statuses in their conventional progression
// order. The order is advisory; any status may move to any other.
var RequirementStatuses = []RequirementStatus{
	StatusDraft,
	StatusReview,
	StatusApproved,
	StatusDeprecated,
	StatusArchived,
}

// Valid reports whether s is one of the known statuses.
func (s RequirementStatus) Valid() bool {
	for _, known := range RequirementStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseRequirementStatus accepts a status name in any case.
func ParseRequirementStatus(v string) (RequirementStatus, error) {
	s := RequirementStatus(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", &ValidationError{
			Field: "status",
			Rule:  fmt.Sprintf("must be one of %s", joinStatuses()),
			Value: v,
		}
	}
	return s, nil
}

func joinStatuses() string {
	names := make([]string, len(RequirementStatuses))
	for i, s := range RequirementStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
