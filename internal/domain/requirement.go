package domain

import (
	"slices"
	"strings"
	"time"
)

// Requirement is the aggregate root. Its text lives in RequirementVersion
// rows; the requirement itself only carries pointer and workflow state.
type Requirement struct {
	ID                  string
	UID                 string
	ProjectID           string
	SubjectID           *string
	ParentRequirementID *string
	CurrentVersionID    *string
	Status              RequirementStatus
	Priority            *int
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PointTo makes v the current version.
func (r *Requirement) PointTo(v *RequirementVersion, now time.Time) {
	id := v.ID
	r.CurrentVersionID = &id
	r.UpdatedAt = now
}

// SetStatus changes the workflow status. No transition graph is enforced:
// status is advisory metadata and any known status may follow any other.
func (r *Requirement) SetStatus(s RequirementStatus, now time.Time) error {
	if !s.Valid() {
		return &ValidationError{Field: "status", Rule: "must be one of " + joinStatuses(), Value: string(s)}
	}
	r.Status = s
	r.UpdatedAt = now
	return nil
}

// ApplyPriority patches the priority. A nil value keeps the current one
// unless clear is set.
func (r *Requirement) ApplyPriority(p *int, clear bool) {
	switch {
	case clear:
		r.Priority = nil
	case p != nil:
		v := *p
		r.Priority = &v
	}
}

// RequirementVersion is one immutable snapshot of a requirement's text.
// EffectiveTo is stamped once, when a newer version supersedes it.
type RequirementVersion struct {
	ID            string
	RequirementID string
	VersionNumber int
	Title         string
	Statement     string
	Rationale     *string
	Tags          []string
	DeltaNotes    *string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	CreatedBy     string
	CreatedAt     time.Time
}

// IsCurrent reports whether the version's effective interval is still open.
func (v *RequirementVersion) IsCurrent() bool {
	return v.EffectiveTo == nil
}

// EffectiveAt reports whether t falls inside [EffectiveFrom, EffectiveTo).
func (v *RequirementVersion) EffectiveAt(t time.Time) bool {
	if t.Before(v.EffectiveFrom) {
		return false
	}
	return v.EffectiveTo == nil || t.Before(*v.EffectiveTo)
}

// VersionContent is the substantive text of a new version plus its author.
type VersionContent struct {
	Title      string
	Statement  string
	Rationale  *string
	Tags       []string
	DeltaNotes *string
	CreatedBy  string
}

// RequirementRef is a requirement paired with its current version, used for
// parent and child links.
type RequirementRef struct {
	Requirement    *Requirement
	CurrentVersion *RequirementVersion
}

// RequirementDetail is the assembled read model of one requirement.
// Versions is ordered newest first and only populated on single-item reads.
type RequirementDetail struct {
	*Requirement
	CurrentVersion *RequirementVersion
	Versions       []*RequirementVersion
	Parent         *RequirementRef
	Children       []RequirementRef
}

// NormalizeTags trims, drops empties, and removes duplicates while keeping
// first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
