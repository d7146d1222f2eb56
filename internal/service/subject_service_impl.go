package service

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/reqtrack/internal/domain"
	"github.com/alexanderramin/reqtrack/internal/repository"
	"github.com/google/uuid"
)

type subjectService struct {
	subjects repository.SubjectRepo
	projects repository.ProjectRepo
	observer UseCaseObserver
}

func NewSubjectService(subjects repository.SubjectRepo, projects repository.ProjectRepo, observers ...UseCaseObserver) SubjectService {
	return &subjectService{subjects: subjects, projects: projects, observer: useCaseObserverOrNoop(observers)}
}

func (s *subjectService) Create(ctx context.Context, subj *domain.Subject) (err error) {
	startedAt := time.Now()
	fields := map[string]any{"project_id": subj.ProjectID}
	defer func() { observe(ctx, s.observer, "create-subject", startedAt, fields, &err) }()

	subj.Name = strings.TrimSpace(subj.Name)
	if subj.Name == "" {
		return &domain.ValidationError{Field: "name", Rule: "is required"}
	}
	ok, err := s.projects.Exists(ctx, subj.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewNotFound("project", subj.ProjectID)
	}
	if subj.ID == "" {
		subj.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	subj.CreatedAt = now
	subj.UpdatedAt = now
	if err = s.subjects.Create(ctx, subj); err != nil {
		return err
	}
	fields["subject_id"] = subj.ID
	return nil
}

func (s *subjectService) GetByID(ctx context.Context, id string) (*domain.Subject, error) {
	return s.subjects.GetByID(ctx, id)
}

func (s *subjectService) ListByProject(ctx context.Context, projectID string) ([]*domain.Subject, error) {
	return s.subjects.ListByProject(ctx, projectID)
}
