package importer

import (
	"context"
	"fmt"

	"github.com/alexanderramin/reqtrack/internal/domain"
)

// SubjectCreator is the part of the subject service an import needs.
type SubjectCreator interface {
	Create(ctx context.Context, s *domain.Subject) error
}

// RequirementCreator is the part of the requirement service an import needs.
type RequirementCreator interface {
	Create(ctx context.Context, in domain.CreateRequirementInput, authorID string) (*domain.RequirementDetail, error)
	UpdateStatus(ctx context.Context, requirementID string, status domain.RequirementStatus) (*domain.RequirementDetail, error)
}

// Result records what an import created. Refs lists requirement refs in
// creation order; UIDs maps each to its allocated uid.
type Result struct {
	Subjects int
	Refs     []string
	UIDs     map[string]string
}

// Apply validates schema and creates its subjects and requirements in
// projectID. Each requirement is created in its own transaction; on failure
// the returned Result describes what was already written.
func Apply(ctx context.Context, projectID string, schema *ImportSchema, subjects SubjectCreator, reqs RequirementCreator, authorID string) (*Result, error) {
	if errs := ValidateImportSchema(schema); len(errs) > 0 {
		return nil, errs
	}

	res := &Result{UIDs: make(map[string]string, len(schema.Requirements))}
	subjectIDs := make(map[string]string, len(schema.Subjects))
	reqIDs := make(map[string]string, len(schema.Requirements))

	for i, s := range schema.Subjects {
		subj := &domain.Subject{ProjectID: projectID, Name: s.Name, Description: s.Description}
		if err := subjects.Create(ctx, subj); err != nil {
			return res, fmt.Errorf("importing subjects[%d] (%s): %w", i, s.Ref, err)
		}
		subjectIDs[s.Ref] = subj.ID
		res.Subjects++
	}

	for i, r := range schema.Requirements {
		in := domain.CreateRequirementInput{
			ProjectID: projectID,
			Title:     r.Title,
			Statement: r.Statement,
			Rationale: r.Rationale,
			Tags:      r.Tags,
			Priority:  r.Priority,
		}
		if r.ParentRef != nil && *r.ParentRef != "" {
			id := reqIDs[*r.ParentRef]
			in.ParentRequirementID = &id
		}
		if r.SubjectRef != nil && *r.SubjectRef != "" {
			id := subjectIDs[*r.SubjectRef]
			in.SubjectID = &id
		}

		d, err := reqs.Create(ctx, in, authorID)
		if err != nil {
			return res, fmt.Errorf("importing requirements[%d] (%s): %w", i, r.Ref, err)
		}
		reqIDs[r.Ref] = d.ID
		res.Refs = append(res.Refs, r.Ref)
		res.UIDs[r.Ref] = d.UID

		if err := applyStatus(ctx, reqs, d, r.Status); err != nil {
			return res, fmt.Errorf("importing requirements[%d] (%s): %w", i, r.Ref, err)
		}
	}

	return res, nil
}

// applyStatus moves a freshly created requirement to raw. An empty raw
// keeps the initial status.
func applyStatus(ctx context.Context, reqs RequirementCreator, d *domain.RequirementDetail, raw string) error {
	if raw == "" {
		return nil
	}
	status, err := domain.ParseRequirementStatus(raw)
	if err != nil {
		return err
	}
	if status == d.Status {
		return nil
	}
	if _, err := reqs.UpdateStatus(ctx, d.ID, status); err != nil {
		return fmt.Errorf("setting status of %s: %w", d.UID, err)
	}
	return nil
}
