package importer

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/reqtrack/internal/domain"
)

// ValidateImportSchema checks the whole document before anything is written
// and returns every problem found, or nil.
func ValidateImportSchema(schema *ImportSchema) domain.ValidationErrors {
	var errs domain.ValidationErrors

	subjectRefs := make(map[string]bool)
	errs = append(errs, validateSubjects(schema.Subjects, subjectRefs)...)
	errs = append(errs, validateRequirements(schema.Requirements, subjectRefs)...)

	if len(schema.Requirements) == 0 {
		errs = append(errs, invalid("requirements", "must contain at least one requirement", nil))
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func invalid(field, rule string, value any) *domain.ValidationError {
	return &domain.ValidationError{Field: field, Rule: rule, Value: value}
}

func validateSubjects(subjects []SubjectImport, refs map[string]bool) domain.ValidationErrors {
	var errs domain.ValidationErrors

	for i, s := range subjects {
		prefix := fmt.Sprintf("subjects[%d]", i)

		switch {
		case s.Ref == "":
			errs = append(errs, invalid(prefix+".ref", "is required", nil))
		case refs[s.Ref]:
			errs = append(errs, invalid(prefix+".ref", fmt.Sprintf("duplicate ref %q", s.Ref), s.Ref))
		default:
			refs[s.Ref] = true
		}

		if strings.TrimSpace(s.Name) == "" {
			errs = append(errs, invalid(prefix+".name", "is required", nil))
		}
	}

	return errs
}

func validateRequirements(reqs []RequirementImport, subjectRefs map[string]bool) domain.ValidationErrors {
	var errs domain.ValidationErrors
	seen := make(map[string]bool)

	for i, r := range reqs {
		prefix := fmt.Sprintf("requirements[%d]", i)

		switch {
		case r.Ref == "":
			errs = append(errs, invalid(prefix+".ref", "is required", nil))
		case seen[r.Ref]:
			errs = append(errs, invalid(prefix+".ref", fmt.Sprintf("duplicate ref %q", r.Ref), r.Ref))
		}

		if strings.TrimSpace(r.Title) == "" {
			errs = append(errs, invalid(prefix+".title", "is required", nil))
		}
		if strings.TrimSpace(r.Statement) == "" {
			errs = append(errs, invalid(prefix+".statement", "is required", nil))
		}
		if r.Priority != nil && *r.Priority < 0 {
			errs = append(errs, invalid(prefix+".priority", "must be >= 0", *r.Priority))
		}
		if r.Status != "" {
			if _, err := domain.ParseRequirementStatus(r.Status); err != nil {
				errs = append(errs, invalid(prefix+".status", "unknown status", r.Status))
			}
		}

		// Parents must already be declared, which also rules out cycles.
		if r.ParentRef != nil && *r.ParentRef != "" {
			switch {
			case *r.ParentRef == r.Ref:
				errs = append(errs, invalid(prefix+".parent_ref", "cannot reference itself", r.Ref))
			case !seen[*r.ParentRef]:
				errs = append(errs, invalid(prefix+".parent_ref",
					fmt.Sprintf("ref %q not found (must appear earlier in requirements list)", *r.ParentRef), *r.ParentRef))
			}
		}
		if r.SubjectRef != nil && *r.SubjectRef != "" && !subjectRefs[*r.SubjectRef] {
			errs = append(errs, invalid(prefix+".subject_ref", fmt.Sprintf("ref %q not found in subjects", *r.SubjectRef), *r.SubjectRef))
		}

		if r.Ref != "" {
			seen[r.Ref] = true
		}
	}

	return errs
}
