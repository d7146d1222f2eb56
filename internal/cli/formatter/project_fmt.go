package formatter

import (
	"github.com/alexanderramin/reqtrack/internal/domain"
)

// FormatProjectList renders projects inside a bordered box.
func FormatProjectList(projects []*domain.Project) string {
	headers := []string{"ID", "NAME", "DESCRIPTION", "CREATED"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		desc := Dim("--")
		if p.Description != "" {
			desc = StyleFg.Render(p.Description)
		}
		rows = append(rows, []string{
			StyleHeader.Render(p.DisplayID()),
			Bold(p.Name),
			desc,
			Timestamp(p.CreatedAt),
		})
	}
	return RenderBox("Projects", RenderTable(headers, rows))
}

// FormatSubjectList renders a project's subjects.
func FormatSubjectList(subjects []*domain.Subject) string {
	headers := []string{"ID", "NAME", "DESCRIPTION"}
	rows := make([][]string, 0, len(subjects))
	for _, s := range subjects {
		desc := Dim("--")
		if s.Description != "" {
			desc = StyleFg.Render(s.Description)
		}
		rows = append(rows, []string{s.ID, Bold(s.Name), desc})
	}
	return RenderBox("Subjects", RenderTable(headers, rows))
}
