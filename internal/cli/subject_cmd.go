package cli

import (
	"fmt"

	"github.com/alexanderramin/reqtrack/internal/cli/formatter"
	"github.com/alexanderramin/reqtrack/internal/domain"
	"github.com/spf13/cobra"
)

func newSubjectCmd(app *App, g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subject",
		Short: "Manage subjects within a project",
	}
	cmd.AddCommand(newSubjectAddCmd(app, g), newSubjectListCmd(app, g))
	return cmd
}

func newSubjectAddCmd(app *App, g *globalFlags) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := g.resolveProject(ctx, app)
			if err != nil {
				return err
			}
			s := &domain.Subject{ProjectID: p.ID, Name: name, Description: description}
			if err := app.Subjects.Create(ctx, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created subject %s (%s)\n", s.Name, s.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Subject name")
	cmd.Flags().StringVar(&description, "description", "", "Subject description")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSubjectListCmd(app *App, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subjects in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := g.resolveProject(ctx, app)
			if err != nil {
				return err
			}
			subjects, err := app.Subjects.ListByProject(ctx, p.ID)
			if err != nil {
				return err
			}
			if len(subjects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No subjects found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSubjectList(subjects))
			return nil
		},
	}
}
