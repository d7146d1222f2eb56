package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/reqtrack/internal/domain"
)

// FormatRequirementDetail renders the full card shown by `req show`.
func FormatRequirementDetail(d *domain.RequirementDetail) string {
	var b strings.Builder

	title := Dim("(no current version)")
	if v := d.CurrentVersion; v != nil {
		title = StyleBold.Render(v.Title)
	}
	fmt.Fprintf(&b, "%s  %s\n", StyleHeader.Render(d.UID), title)
	fmt.Fprintf(&b, "%s\n\n", StatusPill(d.Status))

	field := func(label, value string) {
		fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render(fmt.Sprintf("%-9s", label)), value)
	}
	field("ID", TruncID(d.ID))
	field("PRIORITY", Priority(d.Priority))
	field("SUBJECT", Optional(d.SubjectID))
	if d.Parent != nil {
		field("PARENT", refLabel(*d.Parent))
	} else {
		field("PARENT", Dim("--"))
	}
	field("CREATED", StyleFg.Render(Timestamp(d.CreatedAt))+Dim(" by "+d.CreatedBy))
	field("UPDATED", StyleFg.Render(Timestamp(d.UpdatedAt)))

	if v := d.CurrentVersion; v != nil {
		b.WriteString("\n" + Header(fmt.Sprintf("Version %d", v.VersionNumber)) + "\n")
		b.WriteString(StyleFg.Render(v.Statement) + "\n")
		if v.Rationale != nil {
			b.WriteString("\n" + Dim("Rationale: ") + StyleFg.Render(*v.Rationale) + "\n")
		}
		b.WriteString("\n" + Tags(v.Tags) + "\n")
	}

	if len(d.Children) > 0 {
		b.WriteString("\n" + Header("Children") + "\n")
		for _, c := range d.Children {
			b.WriteString("  " + refLabel(c) + "\n")
		}
	}

	if len(d.Versions) > 0 {
		b.WriteString("\n" + Dim(fmt.Sprintf("%d version(s); see `req history %s`", len(d.Versions), d.UID)))
	}

	return RenderBox("", strings.TrimRight(b.String(), "\n"))
}

func refLabel(ref domain.RequirementRef) string {
	label := StyleBlue.Render(ref.Requirement.UID)
	if ref.CurrentVersion != nil {
		label += " " + StyleFg.Render(ref.CurrentVersion.Title)
	}
	return label
}

// FormatRequirementList renders the project's requirements as a table.
func FormatRequirementList(details []*domain.RequirementDetail) string {
	headers := []string{"UID", "TITLE", "STATUS", "PRIO", "VER", "PARENT", "TAGS"}
	rows := make([][]string, 0, len(details))

	for _, d := range details {
		title, ver, tags := Dim("--"), Dim("--"), Dim("--")
		if v := d.CurrentVersion; v != nil {
			title = Bold(v.Title)
			ver = "v" + strconv.Itoa(v.VersionNumber)
			tags = Tags(v.Tags)
		}
		parent := Dim("--")
		if d.Parent != nil {
			parent = StyleBlue.Render(d.Parent.Requirement.UID)
		}
		rows = append(rows, []string{
			StyleHeader.Render(d.UID),
			title,
			StatusPill(d.Status),
			Priority(d.Priority),
			ver,
			parent,
			tags,
		})
	}

	return RenderBox("Requirements", RenderTable(headers, rows))
}

// FormatHistory renders the version ledger, newest first.
func FormatHistory(uid string, versions []*domain.RequirementVersion) string {
	headers := []string{"VER", "TITLE", "EFFECTIVE FROM", "EFFECTIVE TO", "AUTHOR", "NOTES"}
	rows := make([][]string, 0, len(versions))

	for _, v := range versions {
		to := StyleGreen.Render("current")
		if v.EffectiveTo != nil {
			to = Timestamp(*v.EffectiveTo)
		}
		rows = append(rows, []string{
			"v" + strconv.Itoa(v.VersionNumber),
			Bold(v.Title),
			Timestamp(v.EffectiveFrom),
			to,
			v.CreatedBy,
			Optional(v.DeltaNotes),
		})
	}

	return RenderBox("History "+uid, RenderTable(headers, rows))
}

// FormatVersion renders a single version snapshot, as returned by `req at`.
func FormatVersion(uid string, v *domain.RequirementVersion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s\n\n", StyleHeader.Render(uid), Dim("v"+strconv.Itoa(v.VersionNumber)), StyleBold.Render(v.Title))
	b.WriteString(StyleFg.Render(v.Statement) + "\n")
	if v.Rationale != nil {
		b.WriteString("\n" + Dim("Rationale: ") + StyleFg.Render(*v.Rationale) + "\n")
	}
	b.WriteString("\n" + Tags(v.Tags) + "\n")

	to := "now"
	if v.EffectiveTo != nil {
		to = Timestamp(*v.EffectiveTo)
	}
	b.WriteString(Dim(fmt.Sprintf("effective %s → %s, by %s", Timestamp(v.EffectiveFrom), to, v.CreatedBy)))
	return RenderBox("", b.String())
}
