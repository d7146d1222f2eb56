package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// inputValidate is shared by all input types; validator caches struct metadata.
var inputValidate = validator.New(validator.WithRequiredStructEnabled())

// CreateRequirementInput carries the fields accepted when a requirement is created.
type CreateRequirementInput struct {
	ProjectID           string   `validate:"required"`
	SubjectID           *string  `validate:"omitempty,min=1"`
	ParentRequirementID *string  `validate:"omitempty,min=1"`
	Title               string   `validate:"required"`
	Statement           string   `validate:"required"`
	Rationale           *string  `validate:"omitempty"`
	Tags                []string `validate:"omitempty,dive,max=64"`
	Priority            *int     `validate:"omitempty,gte=0"`
}

// Normalize trims text fields and folds blank optionals to nil.
func (in *CreateRequirementInput) Normalize() {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Title = strings.TrimSpace(in.Title)
	in.Statement = strings.TrimSpace(in.Statement)
	in.SubjectID = blankToNil(in.SubjectID)
	in.ParentRequirementID = blankToNil(in.ParentRequirementID)
	in.Rationale = blankToNil(in.Rationale)
	in.Tags = NormalizeTags(in.Tags)
}

// Validate normalizes the input and checks it.
func (in *CreateRequirementInput) Validate() error {
	in.Normalize()
	return translate(inputValidate.Struct(in))
}

// Content builds the first version's content.
func (in *CreateRequirementInput) Content(authorID string) VersionContent {
	return VersionContent{
		Title:     in.Title,
		Statement: in.Statement,
		Rationale: in.Rationale,
		Tags:      in.Tags,
		CreatedBy: authorID,
	}
}

// UpdateRequirementInput carries a full replacement of the requirement text.
// Title and Statement must be resubmitted on every edit. Tags == nil inherits
// the previous version's tags; a non-nil empty slice clears them. Priority ==
// nil keeps the stored priority unless ClearPriority is set.
type UpdateRequirementInput struct {
	Title         string   `validate:"required"`
	Statement     string   `validate:"required"`
	Rationale     *string  `validate:"omitempty"`
	Tags          []string `validate:"omitempty,dive,max=64"`
	DeltaNotes    *string  `validate:"omitempty"`
	Priority      *int     `validate:"omitempty,gte=0"`
	ClearPriority bool
}

// Normalize trims text fields and folds blank optionals to nil.
func (in *UpdateRequirementInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Statement = strings.TrimSpace(in.Statement)
	in.Rationale = blankToNil(in.Rationale)
	in.DeltaNotes = blankToNil(in.DeltaNotes)
	if in.Tags != nil {
		in.Tags = NormalizeTags(in.Tags)
	}
}

// Validate normalizes the input and checks it.
func (in *UpdateRequirementInput) Validate() error {
	in.Normalize()
	return translate(inputValidate.Struct(in))
}

// Content builds the next version's content, inheriting tags from prior
// when the input leaves them unset.
func (in *UpdateRequirementInput) Content(authorID string, prior *RequirementVersion) VersionContent {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
		if prior != nil {
			tags = append(tags, prior.Tags...)
		}
	}
	return VersionContent{
		Title:      in.Title,
		Statement:  in.Statement,
		Rationale:  in.Rationale,
		Tags:       tags,
		DeltaNotes: in.DeltaNotes,
		CreatedBy:  authorID,
	}
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// translate converts validator failures into domain ValidationErrors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, &ValidationError{
			Field: fieldName(fe.Field()),
			Rule:  ruleText(fe),
			Value: fe.Value(),
		})
	}
	return out
}

func fieldName(f string) string {
	switch f {
	case "ProjectID":
		return "projectId"
	case "SubjectID":
		return "subjectId"
	case "ParentRequirementID":
		return "parentRequirementId"
	case "DeltaNotes":
		return "deltaNotes"
	}
	if f == "" {
		return f
	}
	return strings.ToLower(f[:1]) + f[1:]
}

func ruleText(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must not be empty"
	}
	return "failed " + fe.Tag()
}
