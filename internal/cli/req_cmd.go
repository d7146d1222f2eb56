package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/reqtrack/internal/cli/formatter"
	"github.com/alexanderramin/reqtrack/internal/domain"
	"github.com/alexanderramin/reqtrack/internal/importer"
	"github.com/spf13/cobra"
)

func newReqCmd(app *App, g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "req",
		Aliases: []string{"requirement"},
		Short:   "Manage versioned requirements",
	}

	cmd.AddCommand(
		newReqAddCmd(app, g),
		newReqEditCmd(app, g),
		newReqShowCmd(app, g),
		newReqListCmd(app, g),
		newReqHistoryCmd(app, g),
		newReqAtCmd(app, g),
		newReqStatusCmd(app, g),
		newReqMoveCmd(app, g),
		newReqRemoveCmd(app, g),
		newReqImportCmd(app, g),
	)

	return cmd
}

func newReqAddCmd(app *App, g *globalFlags) *cobra.Command {
	var (
		f           requirementFields
		tags        []string
		subjectID   string
		parentRef   string
		priority    int
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a requirement with its first version",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := g.resolveProject(ctx, app)
			if err != nil {
				return err
			}

			f.Tags = strings.Join(tags, ", ")
			if interactive || (app.Interactive && (f.Title == "" || f.Statement == "")) {
				if err := requirementForm(&f, false).Run(); err != nil {
					return err
				}
			}

			in := domain.CreateRequirementInput{
				ProjectID: p.ID,
				Title:     f.Title,
				Statement: f.Statement,
				Rationale: optional(f.Rationale),
				Tags:      splitTags(f.Tags),
				SubjectID: optional(subjectID),
			}
			in.Priority = changedInt(cmd.Flags(), "priority", priority)
			if parentRef != "" {
				parent, err := resolveRequirement(ctx, app, p.ID, parentRef)
				if err != nil {
					return fmt.Errorf("resolving parent: %w", err)
				}
				in.ParentRequirementID = &parent.ID
			}

			d, err := app.Requirements.Create(ctx, in, g.authorFor(app))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (v%d)\n", d.UID, d.CurrentVersion.VersionNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.Title, "title", "", "Requirement title")
	cmd.Flags().StringVar(&f.Statement, "statement", "", "Requirement statement")
	cmd.Flags().StringVar(&f.Rationale, "rationale", "", "Why the requirement exists")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority (0 is highest)")
	cmd.Flags().StringVar(&subjectID, "subject", "", "Subject ID")
	cmd.Flags().StringVar(&parentRef, "parent", "", "Parent requirement (REQ-0001)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Fill in the requirement with a form")

	return cmd
}

func newReqEditCmd(app *App, g *globalFlags) *cobra.Command {
	var (
		f             requirementFields
		tags          []string
		clearTags     bool
		priority      int
		clearPriority bool
		interactive   bool
	)

	cmd := &cobra.Command{
		Use:   "edit REQ",
		Short: "Record a new version of a requirement",
		Long: `Record a new version of a requirement.

Text flags that are not given keep the current version's value. Tags are
inherited unless --tag or --clear-tags is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := g.resolveProject(ctx, app)
			if err != nil {
				return err
			}
			d, err := resolveRequirement(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if cur := d.CurrentVersion; cur != nil {
				if !flags.Changed("title") {
					f.Title = cur.Title
				}
				if !flags.Changed("statement") {
					f.Statement = cur.Statement
				}
				if !flags.Changed("rationale") {
					f.Rationale = deref(cur.Rationale)
				}
			}

			in := domain.UpdateRequirementInput{ClearPriority: clearPriority}
			switch {
			case clearTags:
				in.Tags = []string{}
			case flags.Changed("tag"):
				in.Tags = domain.NormalizeTags(tags)
			}

			if interactive {
				f.Tags = strings.Join(currentTags(d, in.Tags), ", ")
				if err := requirementForm(&f, true).Run(); err != nil {
					return err
				}
				in.Tags = splitTags(f.Tags)
			}

			in.Title = f.Title
			in.Statement = f.Statement
			in.Rationale = optional(f.Rationale)
			in.DeltaNotes = optional(f.DeltaNotes)
			in.Priority = changedInt(flags, "priority", priority)

			updated, err := app.Requirements.Update(ctx, d.ID, in, g.authorFor(app))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s to v%d\n", updated.UID, updated.CurrentVersion.VersionNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.Title, "title", "", "New title")
	cmd.Flags().StringVar(&f.Statement, "statement", "", "New statement")
	cmd.Flags().StringVar(&f.Rationale, "rationale", "", "New rationale")
	cmd.Flags().StringVar(&f.DeltaNotes, "delta-notes", "", "What changed in this version")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Replace tags (repeatable)")
	cmd.Flags().BoolVar(&clearTags, "clear-tags", false, "Remove all tags")
	cmd.Flags().IntVar(&priority, "priority", 0, "New priority")
	cmd.Flags().BoolVar(&clearPriority, "clear-priority", false, "Remove the priority")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Edit the requirement with a form")
	cmd.MarkFlagsMutuallyExclusive("tag", "clear-tags")
	cmd.MarkFlagsMutuallyExclusive("priority", "clear-priority")

	return cmd
}

func currentTags(d *domain.RequirementDetail, override []string) []string {
	if override != nil {
		return override
	}
	if d.CurrentVersion == nil {
		return nil
	}
	return d.CurrentVersion.Tags
}

func newReqShowCmd(app *App, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show REQ",
		Short: "Show a requirement with its current version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := g.resolveProject(ctx, app)
			if err != nil {
				return err
			}
			d, err := resolveRequirement(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatRequirementDetail(d))
			return nil
		},
	}
}

func newReqListCmd(app *App, g *globalFlags) *cobra.Command {
	var statuses statusFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requirements in a project, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := g.resolveProject(ctx, app)
			if err != nil {
				return err
			}
			all, err := app.Requirements.FindAll(ctx, p.ID)
			if err != nil {
				return err
			}

			details := make([]*domain.RequirementDetail, 0, len(all))
			for _, d := range all {
				if statuses.matches(d.Status) {
					details = append(details, d)
				}
			}
			if len(details) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No requirements found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatRequirementList(details))
			return nil
		},
	}

	cmd.Flags().Var(&statuses, "status", "Only show requirements with this status (repeatable)")

	return cmd
}

func newReqHistoryCmd(app *App, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history REQ",
		Short: "Show every version of a requirement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := g.resolveProject(ctx, app)
			if err != nil {
				return err
			}
			d, err := resolveRequirement(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			versions, err := app.Requirements.History(ctx, d.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatHistory(d.UID, versions))
			return nil
		},
	}
}

func newReqAtCmd(app *App, g *globalFlags) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "at REQ",
		Short: "Show the version that was effective at a point in time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := time.Parse(time.RFC3339Nano, at)
			if err != nil {
				return &domain.ValidationError{Field: "time", Rule: "must be RFC3339, e.g. 2025-01-15T09:00:00Z", Value: at}
			}

			ctx := cmd.Context()
			p, err := g.resolveProject(ctx, app)
			if err != nil {
				return err
			}
			d, err := resolveRequirement(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			v, err := app.Requirements.VersionAsOf(ctx, d.ID, t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatVersion(d.UID, v))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "time", "", "Point in time (RFC3339)")
	_ = cmd.MarkFlagRequired("time")

	return cmd
}

func newReqStatusCmd(app *App, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status REQ STATUS",
		Short: "Set the workflow status (DRAFT, REVIEW, APPROVED, DEPRECATED, ARCHIVED)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseRequirementStatus(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := g.resolveProject(ctx, app)
			if err != nil {
				return err
			}
			d, err := resolveRequirement(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			updated, err := app.Requirements.UpdateStatus(ctx, d.ID, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", updated.UID, updated.Status)
			return nil
		},
	}
}

func newReqMoveCmd(app *App, g *globalFlags) *cobra.Command {
	var (
		parentRef string
		root      bool
	)

	cmd := &cobra.Command{
		Use:   "move REQ",
		Short: "Change a requirement's parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := g.resolveProject(ctx, app)
			if err != nil {
				return err
			}
			d, err := resolveRequirement(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}

			var parentID *string
			if !root {
				parent, err := resolveRequirement(ctx, app, p.ID, parentRef)
				if err != nil {
					return fmt.Errorf("resolving parent: %w", err)
				}
				parentID = &parent.ID
			}

			moved, err := app.Requirements.Reparent(ctx, d.ID, parentID)
			if err != nil {
				return err
			}
			if moved.Parent == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now a root requirement\n", moved.UID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s under %s\n", moved.UID, moved.Parent.Requirement.UID)
			return nil
		},
	}

	cmd.Flags().StringVar(&parentRef, "parent", "", "New parent requirement")
	cmd.Flags().BoolVar(&root, "root", false, "Detach from the current parent")
	cmd.MarkFlagsMutuallyExclusive("parent", "root")
	cmd.MarkFlagsOneRequired("parent", "root")

	return cmd
}

func newReqRemoveCmd(app *App, g *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm REQ",
		Aliases: []string{"remove"},
		Short:   "Delete a requirement and its history; children become roots",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := g.resolveProject(ctx, app)
			if err != nil {
				return err
			}
			d, err := resolveRequirement(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}

			if app.Interactive && !yes {
				confirmed := false
				if err := confirmForm(fmt.Sprintf("Delete %s and all of its versions?", d.UID), &confirmed).Run(); err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			if err := app.Requirements.Remove(ctx, d.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", d.UID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func newReqImportCmd(app *App, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create subjects and requirements from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := importer.LoadImportSchema(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := g.resolveProject(ctx, app)
			if err != nil {
				return err
			}

			res, err := importer.Apply(ctx, p.ID, schema, app.Subjects, app.Requirements, g.authorFor(app))
			if res != nil && len(res.Refs) > 0 {
				rows := make([][]string, 0, len(res.Refs))
				for _, ref := range res.Refs {
					rows = append(rows, []string{ref, res.UIDs[ref]})
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"REF", "UID"}, rows))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d subject(s) and %d requirement(s) into %s\n", res.Subjects, len(res.Refs), p.DisplayID())
			return nil
		},
	}
}
