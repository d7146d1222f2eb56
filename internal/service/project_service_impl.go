package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/reqtrack/internal/domain"
	"github.com/alexanderramin/reqtrack/internal/repository"
	"github.com/google/uuid"
)

type projectService struct {
	projects repository.ProjectRepo
	observer UseCaseObserver
}

func NewProjectService(projects repository.ProjectRepo, observers ...UseCaseObserver) ProjectService {
	return &projectService{projects: projects, observer: useCaseObserverOrNoop(observers)}
}

func (s *projectService) Create(ctx context.Context, p *domain.Project) (err error) {
	startedAt := time.Now()
	fields := map[string]any{"short_id": p.ShortID}
	defer func() { observe(ctx, s.observer, "create-project", startedAt, fields, &err) }()

	p.ShortID = strings.ToUpper(strings.TrimSpace(p.ShortID))
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return &domain.ValidationError{Field: "name", Rule: "is required"}
	}
	if err = p.ValidateShortID(); err != nil {
		return &domain.ValidationError{Field: "shortId", Rule: err.Error(), Value: p.ShortID}
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.projects.Create(ctx, p)
}

func (s *projectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *projectService) List(ctx context.Context) ([]*domain.Project, error) {
	return s.projects.List(ctx)
}

func (s *projectService) Resolve(ctx context.Context, ref string) (*domain.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &domain.ValidationError{Field: "project", Rule: "is required"}
	}

	p, err := s.projects.GetByShortID(ctx, ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	p, err = s.projects.GetByID(ctx, ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	var match *domain.Project
	for _, candidate := range projects {
		if !strings.HasPrefix(candidate.ID, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("ambiguous project prefix %q: matches %s and %s", ref, match.DisplayID(), candidate.DisplayID())
		}
		match = candidate
	}
	if match == nil {
		return nil, domain.NewNotFound("project", ref)
	}
	return match, nil
}
