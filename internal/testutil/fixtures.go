package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/reqtrack/internal/domain"
	"github.com/google/uuid"
)

var testShortIDCounter atomic.Int64

// Project options
type ProjectOption func(*domain.Project)

func WithShortID(id string) ProjectOption {
	return func(p *domain.Project) {
		p.ShortID = id
	}
}

func WithDescription(d string) ProjectOption {
	return func(p *domain.Project) {
		p.Description = d
	}
}

func defaultShortID(name string) string {
	upper := strings.ToUpper(name)
	var letters []byte
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			letters = append(letters, upper[i])
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	n := testShortIDCounter.Add(1)
	return fmt.Sprintf("%s%02d", string(letters), n%10000)
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:        uuid.New().String(),
		ShortID:   defaultShortID(name),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func NewTestSubject(projectID, name string) *domain.Subject {
	now := time.Now().UTC()
	return &domain.Subject{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Requirement options
type RequirementOption func(*domain.Requirement)

func WithParentRequirement(id string) RequirementOption {
	return func(r *domain.Requirement) {
		r.ParentRequirementID = &id
	}
}

func WithSubject(id string) RequirementOption {
	return func(r *domain.Requirement) {
		r.SubjectID = &id
	}
}

func WithStatus(s domain.RequirementStatus) RequirementOption {
	return func(r *domain.Requirement) {
		r.Status = s
	}
}

func WithPriority(p int) RequirementOption {
	return func(r *domain.Requirement) {
		r.Priority = &p
	}
}

func WithCreatedAt(t time.Time) RequirementOption {
	return func(r *domain.Requirement) {
		r.CreatedAt = t.UTC()
		r.UpdatedAt = t.UTC()
	}
}

// NewTestRequirement builds a requirement row without a current version.
// Repository tests attach one with the version store.
func NewTestRequirement(projectID, uid string, opts ...RequirementOption) *domain.Requirement {
	now := time.Now().UTC()
	r := &domain.Requirement{
		ID:        uuid.New().String(),
		UID:       uid,
		ProjectID: projectID,
		Status:    domain.StatusDraft,
		CreatedBy: "tester",
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewTestContent returns version content with a derived statement.
func NewTestContent(title string, tags ...string) domain.VersionContent {
	if tags == nil {
		tags = []string{}
	}
	return domain.VersionContent{
		Title:     title,
		Statement: "The system shall " + strings.ToLower(title) + ".",
		Tags:      tags,
		CreatedBy: "tester",
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
