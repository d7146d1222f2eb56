package service

import (
	"context"
	"time"

	"github.com/alexanderramin/reqtrack/internal/domain"
)

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// Resolve accepts a short ID, a full UUID, or a unique UUID prefix.
	Resolve(ctx context.Context, ref string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
}

type SubjectService interface {
	Create(ctx context.Context, s *domain.Subject) error
	GetByID(ctx context.Context, id string) (*domain.Subject, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Subject, error)
}

// RequirementService owns the requirement aggregate: the requirement row,
// its version ledger, and the current-version pointer.
type RequirementService interface {
	Create(ctx context.Context, in domain.CreateRequirementInput, authorID string) (*domain.RequirementDetail, error)
	Update(ctx context.Context, requirementID string, in domain.UpdateRequirementInput, authorID string) (*domain.RequirementDetail, error)
	UpdateStatus(ctx context.Context, requirementID string, status domain.RequirementStatus) (*domain.RequirementDetail, error)
	Reparent(ctx context.Context, requirementID string, parentID *string) (*domain.RequirementDetail, error)
	Remove(ctx context.Context, requirementID string) error

	FindOne(ctx context.Context, requirementID string) (*domain.RequirementDetail, error)
	FindByUID(ctx context.Context, projectID, uid string) (*domain.RequirementDetail, error)
	FindAll(ctx context.Context, projectID string) ([]*domain.RequirementDetail, error)
	History(ctx context.Context, requirementID string) ([]*domain.RequirementVersion, error)
	VersionAsOf(ctx context.Context, requirementID string, t time.Time) (*domain.RequirementVersion, error)
}
