package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/reqtrack/internal/db"
	"github.com/alexanderramin/reqtrack/internal/domain"
	"github.com/alexanderramin/reqtrack/internal/repository"
)

type requirementService struct {
	uow      db.UnitOfWork
	clock    domain.Clock
	ids      domain.IDGenerator
	locks    *keyedLocker
	observer UseCaseObserver

	newAllocator func(tx db.DBTX) repository.UIDAllocator
}

// RequirementOption customizes a RequirementService.
type RequirementOption func(*requirementService)

func WithClock(c domain.Clock) RequirementOption {
	return func(s *requirementService) { s.clock = c }
}

func WithIDGenerator(g domain.IDGenerator) RequirementOption {
	return func(s *requirementService) { s.ids = g }
}

func WithObservers(observers ...UseCaseObserver) RequirementOption {
	return func(s *requirementService) { s.observer = useCaseObserverOrNoop(observers) }
}

// WithUIDAllocator replaces the allocator built for each transaction.
func WithUIDAllocator(fn func(tx db.DBTX) repository.UIDAllocator) RequirementOption {
	return func(s *requirementService) { s.newAllocator = fn }
}

// NewRequirementService wires the requirement aggregate. Every write runs
// inside uow; every read model is assembled from one read snapshot so a
// concurrent commit is seen entirely or not at all.
func NewRequirementService(uow db.UnitOfWork, opts ...RequirementOption) RequirementService {
	s := &requirementService{
		uow:      uow,
		clock:    domain.RealClock{},
		ids:      domain.UUIDGenerator{},
		locks:    newKeyedLocker(),
		observer: NoopUseCaseObserver{},
		newAllocator: func(tx db.DBTX) repository.UIDAllocator {
			return repository.NewSQLiteUIDAllocator(tx)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *requirementService) versions(conn db.DBTX) *repository.SQLiteVersionStore {
	return repository.NewSQLiteVersionStore(conn,
		repository.WithClock(s.clock),
		repository.WithIDGenerator(s.ids),
	)
}

func (s *requirementService) Create(ctx context.Context, in domain.CreateRequirementInput, authorID string) (detail *domain.RequirementDetail, err error) {
	startedAt := time.Now()
	fields := map[string]any{"project_id": in.ProjectID}
	defer func() { observe(ctx, s.observer, "create-requirement", startedAt, fields, &err) }()

	if err = in.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(projectLockKey(in.ProjectID))
	defer unlock()

	var created *domain.Requirement
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := s.checkReferences(ctx, tx, in); err != nil {
			return err
		}

		uid, err := s.newAllocator(tx).Allocate(ctx, in.ProjectID)
		if err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		req := &domain.Requirement{
			ID:                  s.ids.New(),
			UID:                 uid,
			ProjectID:           in.ProjectID,
			SubjectID:           in.SubjectID,
			ParentRequirementID: in.ParentRequirementID,
			Status:              domain.StatusDraft,
			CreatedBy:           authorID,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		req.ApplyPriority(in.Priority, false)

		reqs := repository.NewSQLiteRequirementRepo(tx)
		if err := reqs.Create(ctx, req); err != nil {
			return fmt.Errorf("creating requirement: %w", err)
		}
		v1, err := s.versions(tx).AppendVersion(ctx, req.ID, nil, in.Content(authorID))
		if err != nil {
			return fmt.Errorf("creating first version: %w", err)
		}
		req.PointTo(v1, v1.EffectiveFrom)
		if err := reqs.Update(ctx, req); err != nil {
			return fmt.Errorf("pointing at first version: %w", err)
		}
		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["uid"] = created.UID
	return s.readDetail(ctx, created.ID)
}

// checkReferences confirms that the project, subject and parent exist and
// that subject and parent live in the same project.
func (s *requirementService) checkReferences(ctx context.Context, tx db.DBTX, in domain.CreateRequirementInput) error {
	ok, err := repository.NewSQLiteProjectRepo(tx).Exists(ctx, in.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewNotFound("project", in.ProjectID)
	}

	if in.SubjectID != nil {
		subj, err := repository.NewSQLiteSubjectRepo(tx).GetByID(ctx, *in.SubjectID)
		if err != nil {
			return err
		}
		if subj.ProjectID != in.ProjectID {
			return &domain.ValidationError{Field: "subjectId", Rule: "must belong to the same project", Value: *in.SubjectID}
		}
	}

	if in.ParentRequirementID != nil {
		parent, err := repository.NewSQLiteRequirementRepo(tx).GetByID(ctx, *in.ParentRequirementID)
		if err != nil {
			return err
		}
		if parent.ProjectID != in.ProjectID {
			return &domain.ValidationError{Field: "parentRequirementId", Rule: "must belong to the same project", Value: *in.ParentRequirementID}
		}
	}
	return nil
}

func (s *requirementService) Update(ctx context.Context, requirementID string, in domain.UpdateRequirementInput, authorID string) (detail *domain.RequirementDetail, err error) {
	startedAt := time.Now()
	fields := map[string]any{"requirement_id": requirementID}
	defer func() { observe(ctx, s.observer, "update-requirement", startedAt, fields, &err) }()

	if err = in.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(requirementLockKey(requirementID))
	defer unlock()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		reqs := repository.NewSQLiteRequirementRepo(tx)
		versions := s.versions(tx)

		req, err := reqs.GetByID(ctx, requirementID)
		if err != nil {
			return err
		}

		prior, err := currentOrLatest(ctx, versions, req)
		if err != nil {
			return err
		}
		var priorID *string
		if prior != nil && prior.IsCurrent() {
			priorID = &prior.ID
		}

		next, err := versions.AppendVersion(ctx, req.ID, priorID, in.Content(authorID, prior))
		if err != nil {
			return fmt.Errorf("appending version: %w", err)
		}
		req.PointTo(next, next.EffectiveFrom)
		req.ApplyPriority(in.Priority, in.ClearPriority)
		if err := reqs.Update(ctx, req); err != nil {
			return fmt.Errorf("pointing at version %d: %w", next.VersionNumber, err)
		}
		fields["uid"] = req.UID
		fields["version"] = next.VersionNumber
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.readDetail(ctx, requirementID)
}

// currentOrLatest loads the version the pointer names, falling back to the
// highest-numbered version when the pointer is unset.
func currentOrLatest(ctx context.Context, versions repository.VersionStore, req *domain.Requirement) (*domain.RequirementVersion, error) {
	if req.CurrentVersionID != nil {
		v, err := versions.GetByID(ctx, *req.CurrentVersionID)
		if err != nil {
			return nil, fmt.Errorf("loading current version: %w", err)
		}
		return v, nil
	}
	v, err := versions.Latest(ctx, req.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest version: %w", err)
	}
	return v, nil
}

// UpdateStatus moves the requirement to any known status. The status is
// workflow metadata and never creates a version.
func (s *requirementService) UpdateStatus(ctx context.Context, requirementID string, status domain.RequirementStatus) (detail *domain.RequirementDetail, err error) {
	startedAt := time.Now()
	fields := map[string]any{"requirement_id": requirementID, "status": string(status)}
	defer func() { observe(ctx, s.observer, "update-requirement-status", startedAt, fields, &err) }()

	if status, err = domain.ParseRequirementStatus(string(status)); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(requirementLockKey(requirementID))
	defer unlock()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		reqs := repository.NewSQLiteRequirementRepo(tx)
		req, err := reqs.GetByID(ctx, requirementID)
		if err != nil {
			return err
		}
		fields["from"] = string(req.Status)
		if err := req.SetStatus(status, s.clock.Now().UTC()); err != nil {
			return err
		}
		return reqs.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return s.readDetail(ctx, requirementID)
}

// Reparent moves the requirement under parentID, or to the root when nil.
// The new parent must be in the same project and must not be the
// requirement itself or one of its descendants.
func (s *requirementService) Reparent(ctx context.Context, requirementID string, parentID *string) (detail *domain.RequirementDetail, err error) {
	startedAt := time.Now()
	fields := map[string]any{"requirement_id": requirementID}
	defer func() { observe(ctx, s.observer, "reparent-requirement", startedAt, fields, &err) }()

	unlock := s.locks.Lock(requirementLockKey(requirementID))
	defer unlock()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		reqs := repository.NewSQLiteRequirementRepo(tx)
		req, err := reqs.GetByID(ctx, requirementID)
		if err != nil {
			return err
		}
		if parentID != nil {
			fields["parent_id"] = *parentID
			if err := checkNewParent(ctx, reqs, req, *parentID); err != nil {
				return err
			}
			id := *parentID
			parentID = &id
		}
		req.ParentRequirementID = parentID
		req.UpdatedAt = s.clock.Now().UTC()
		return reqs.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return s.readDetail(ctx, requirementID)
}

// checkNewParent walks up from the proposed parent. Reaching req means the
// move would close a cycle. The visited set stops the walk on corrupt data.
func checkNewParent(ctx context.Context, reqs repository.RequirementRepo, req *domain.Requirement, parentID string) error {
	if parentID == req.ID {
		return &domain.ValidationError{Field: "parentRequirementId", Rule: "cannot be the requirement itself", Value: parentID}
	}
	parent, err := reqs.GetByID(ctx, parentID)
	if err != nil {
		return err
	}
	if parent.ProjectID != req.ProjectID {
		return &domain.ValidationError{Field: "parentRequirementId", Rule: "must belong to the same project", Value: parentID}
	}

	visited := map[string]bool{parent.ID: true}
	cur := parent
	for cur.ParentRequirementID != nil {
		next := *cur.ParentRequirementID
		if next == req.ID {
			return &domain.ValidationError{Field: "parentRequirementId", Rule: "would create a cycle", Value: parentID}
		}
		if visited[next] {
			return fmt.Errorf("requirement tree above %s already contains a cycle", parent.UID)
		}
		visited[next] = true
		if cur, err = reqs.GetByID(ctx, next); err != nil {
			return fmt.Errorf("walking ancestors: %w", err)
		}
	}
	return nil
}

// Remove deletes the requirement and its versions. Children stay and
// become roots.
func (s *requirementService) Remove(ctx context.Context, requirementID string) (err error) {
	startedAt := time.Now()
	fields := map[string]any{"requirement_id": requirementID}
	defer func() { observe(ctx, s.observer, "remove-requirement", startedAt, fields, &err) }()

	unlock := s.locks.Lock(requirementLockKey(requirementID))
	defer unlock()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteRequirementRepo(tx).Delete(ctx, requirementID)
	})
}

func (s *requirementService) FindOne(ctx context.Context, requirementID string) (*domain.RequirementDetail, error) {
	return s.readDetail(ctx, requirementID)
}

func (s *requirementService) FindByUID(ctx context.Context, projectID, uid string) (*domain.RequirementDetail, error) {
	if !domain.IsUID(uid) {
		return nil, &domain.ValidationError{Field: "uid", Rule: "must look like " + domain.FormatUID(1), Value: uid}
	}
	var d *domain.RequirementDetail
	err := s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		req, err := repository.NewSQLiteRequirementRepo(tx).GetByUID(ctx, projectID, uid)
		if err != nil {
			return err
		}
		d, err = s.loadDetail(ctx, tx, req.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// FindAll lists the project's requirements newest first, each with its
// current version, parent and children but without full history.
func (s *requirementService) FindAll(ctx context.Context, projectID string) ([]*domain.RequirementDetail, error) {
	var (
		reqs    []*domain.Requirement
		current map[string]*domain.RequirementVersion
	)
	err := s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		if reqs, err = repository.NewSQLiteRequirementRepo(tx).ListByProject(ctx, projectID); err != nil {
			return err
		}
		current, err = s.versions(tx).CurrentByProject(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Requirement, len(reqs))
	children := make(map[string][]*domain.Requirement)
	for _, r := range reqs {
		byID[r.ID] = r
	}
	// reqs is newest first; children are reported oldest first.
	for i := len(reqs) - 1; i >= 0; i-- {
		r := reqs[i]
		if r.ParentRequirementID != nil {
			children[*r.ParentRequirementID] = append(children[*r.ParentRequirementID], r)
		}
	}

	out := make([]*domain.RequirementDetail, 0, len(reqs))
	for _, r := range reqs {
		cv, ok := current[r.ID]
		if !ok {
			return nil, fmt.Errorf("requirement %s has no current version", r.UID)
		}
		d := &domain.RequirementDetail{Requirement: r, CurrentVersion: cv, Children: []domain.RequirementRef{}}
		if r.ParentRequirementID != nil {
			if p, ok := byID[*r.ParentRequirementID]; ok {
				d.Parent = &domain.RequirementRef{Requirement: p, CurrentVersion: current[p.ID]}
			}
		}
		for _, c := range children[r.ID] {
			d.Children = append(d.Children, domain.RequirementRef{Requirement: c, CurrentVersion: current[c.ID]})
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *requirementService) History(ctx context.Context, requirementID string) ([]*domain.RequirementVersion, error) {
	var history []*domain.RequirementVersion
	err := s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLiteRequirementRepo(tx).GetByID(ctx, requirementID); err != nil {
			return err
		}
		var err error
		history, err = s.versions(tx).ListByRequirement(ctx, requirementID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// VersionAsOf returns the version that was in effect at t.
func (s *requirementService) VersionAsOf(ctx context.Context, requirementID string, t time.Time) (*domain.RequirementVersion, error) {
	var v *domain.RequirementVersion
	err := s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLiteRequirementRepo(tx).GetByID(ctx, requirementID); err != nil {
			return err
		}
		var err error
		if v, err = s.versions(tx).AsOf(ctx, requirementID, t); err != nil {
			return err
		}
		if !v.EffectiveAt(t) {
			return fmt.Errorf("version %d of %s is not effective at %s", v.VersionNumber, requirementID, t.UTC().Format(time.RFC3339Nano))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// readDetail loads the read model of one requirement from a single snapshot.
func (s *requirementService) readDetail(ctx context.Context, requirementID string) (*domain.RequirementDetail, error) {
	var d *domain.RequirementDetail
	err := s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		d, err = s.loadDetail(ctx, tx, requirementID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// loadDetail assembles the full read model: current version, history
// newest first, parent and children with their current versions. conn
// must be a read snapshot or the writing transaction itself.
func (s *requirementService) loadDetail(ctx context.Context, conn db.DBTX, requirementID string) (*domain.RequirementDetail, error) {
	reqs := repository.NewSQLiteRequirementRepo(conn)
	versions := s.versions(conn)

	req, err := reqs.GetByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	history, err := versions.ListByRequirement(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	d := &domain.RequirementDetail{Requirement: req, Versions: history, Children: []domain.RequirementRef{}}
	for _, v := range history {
		if req.CurrentVersionID != nil && v.ID == *req.CurrentVersionID {
			d.CurrentVersion = v
			break
		}
	}
	if d.CurrentVersion == nil {
		return nil, fmt.Errorf("requirement %s has no current version", req.UID)
	}

	if req.ParentRequirementID != nil {
		parent, err := reqs.GetByID(ctx, *req.ParentRequirementID)
		if err != nil {
			return nil, fmt.Errorf("loading parent: %w", err)
		}
		ref, err := refFor(ctx, versions, parent)
		if err != nil {
			return nil, err
		}
		d.Parent = &ref
	}

	kids, err := reqs.ListChildren(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range kids {
		ref, err := refFor(ctx, versions, c)
		if err != nil {
			return nil, err
		}
		d.Children = append(d.Children, ref)
	}
	return d, nil
}

func refFor(ctx context.Context, versions repository.VersionStore, req *domain.Requirement) (domain.RequirementRef, error) {
	ref := domain.RequirementRef{Requirement: req}
	if req.CurrentVersionID == nil {
		return ref, nil
	}
	v, err := versions.GetByID(ctx, *req.CurrentVersionID)
	if err != nil {
		return ref, fmt.Errorf("loading current version of %s: %w", req.UID, err)
	}
	ref.CurrentVersion = v
	return ref, nil
}
