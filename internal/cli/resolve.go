package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/alexanderramin/reqtrack/internal/domain"
)

func (g *globalFlags) resolveProject(ctx context.Context, app *App) (*domain.Project, error) {
	if strings.TrimSpace(g.project) == "" {
		return nil, &domain.ValidationError{Field: "project", Rule: "is required (use --project)"}
	}
	return app.Projects.Resolve(ctx, g.project)
}

// resolveRequirement accepts REQ-0012, a bare number (12), or a requirement
// UUID, always scoped to projectID.
func resolveRequirement(ctx context.Context, app *App, projectID, ref string) (*domain.RequirementDetail, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil && n > 0 {
		ref = domain.FormatUID(n)
	}
	if upper := strings.ToUpper(ref); domain.IsUID(upper) {
		return app.Requirements.FindByUID(ctx, projectID, upper)
	}

	d, err := app.Requirements.FindOne(ctx, ref)
	if err != nil {
		return nil, err
	}
	if d.ProjectID != projectID {
		return nil, domain.NewNotFound("requirement", ref)
	}
	return d, nil
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func splitTags(s string) []string {
	return domain.NormalizeTags(strings.Split(s, ","))
}
