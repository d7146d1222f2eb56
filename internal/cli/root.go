package cli

import (
	"github.com/alexanderramin/reqtrack/internal/config"
	"github.com/alexanderramin/reqtrack/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services and settings used by CLI commands.
type App struct {
	Projects     service.ProjectService
	Subjects     service.SubjectService
	Requirements service.RequirementService

	Config     *config.Config
	ConfigPath string

	// Interactive lets commands fall back to huh forms when required text
	// flags are missing. main enables it when stdin is a terminal.
	Interactive bool
}

type globalFlags struct {
	author  string
	project string
}

// NewRootCmd creates the top-level "reqtrack" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "reqtrack",
		Short:         "Versioned requirements tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.author, "author", "", "Author recorded on changes (default: config author, $REQTRACK_AUTHOR, $USER)")
	root.PersistentFlags().StringVarP(&g.project, "project", "p", "", "Project short ID or UUID")

	root.AddCommand(
		newConfigCmd(app),
		newProjectCmd(app),
		newSubjectCmd(app, g),
		newReqCmd(app, g),
	)

	return root
}

func (g *globalFlags) authorFor(app *App) string {
	if app.Config == nil {
		return (&config.Config{}).ResolveAuthor(g.author)
	}
	return app.Config.ResolveAuthor(g.author)
}
