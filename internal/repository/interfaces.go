package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/reqtrack/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByShortID(ctx context.Context, shortID string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type SubjectRepo interface {
	Create(ctx context.Context, s *domain.Subject) error
	GetByID(ctx context.Context, id string) (*domain.Subject, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Subject, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// RequirementRepo persists requirement rows. It never touches versions;
// see VersionStore.
type RequirementRepo interface {
	Create(ctx context.Context, r *domain.Requirement) error
	GetByID(ctx context.Context, id string) (*domain.Requirement, error)
	GetByUID(ctx context.Context, projectID, uid string) (*domain.Requirement, error)
	ExistsUID(ctx context.Context, projectID, uid string) (bool, error)
	// ListByProject orders newest first.
	ListByProject(ctx context.Context, projectID string) ([]*domain.Requirement, error)
	// ListChildren orders by creation, oldest first.
	ListChildren(ctx context.Context, parentID string) ([]*domain.Requirement, error)
	Update(ctx context.Context, r *domain.Requirement) error
	Delete(ctx context.Context, id string) error
}

// VersionStore is the append-only ledger of requirement versions.
type VersionStore interface {
	AppendVersion(ctx context.Context, requirementID string, priorCurrentVersionID *string, content domain.VersionContent) (*domain.RequirementVersion, error)
	GetByID(ctx context.Context, id string) (*domain.RequirementVersion, error)
	// ListByRequirement orders newest first.
	ListByRequirement(ctx context.Context, requirementID string) ([]*domain.RequirementVersion, error)
	Latest(ctx context.Context, requirementID string) (*domain.RequirementVersion, error)
	AsOf(ctx context.Context, requirementID string, t time.Time) (*domain.RequirementVersion, error)
	// CurrentByProject returns the open version of every requirement in the
	// project, keyed by requirement ID.
	CurrentByProject(ctx context.Context, projectID string) (map[string]*domain.RequirementVersion, error)
}

// UIDAllocator hands out the next REQ-NNNN identifier for a project.
type UIDAllocator interface {
	Allocate(ctx context.Context, projectID string) (string, error)
}
