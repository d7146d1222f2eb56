package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/alexanderramin/reqtrack/internal/config"
	"github.com/alexanderramin/reqtrack/internal/domain"
	"github.com/alexanderramin/reqtrack/internal/repository"
	"github.com/alexanderramin/reqtrack/internal/service"
	"github.com/alexanderramin/reqtrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	db := testutil.NewTestDB(t)

	projRepo := repository.NewSQLiteProjectRepo(db)
	subjRepo := repository.NewSQLiteSubjectRepo(db)

	return &App{
		Projects:     service.NewProjectService(projRepo),
		Subjects:     service.NewSubjectService(subjRepo, projRepo),
		Requirements: service.NewRequirementService(testutil.NewTestUoW(db)),
		Config:       &config.Config{DBPath: ":memory:", Author: "cfg-author", Log: config.LogConfig{Level: "warn"}},
	}
}

// run executes args against a fresh command tree and returns stripped output.
func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return ansiPattern.ReplaceAllString(buf.String(), ""), err
}

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := run(t, app, args...)
	require.NoError(t, err, "reqtrack %v\n%s", args, out)
	return out
}

func seedCLIProject(t *testing.T, app *App) *domain.Project {
	t.Helper()
	mustRun(t, app, "project", "add", "--id", "BRK", "--name", "Brakes")
	p, err := app.Projects.Resolve(context.Background(), "BRK")
	require.NoError(t, err)
	return p
}

func TestProjectAddAndList(t *testing.T) {
	app := testApp(t)

	out := mustRun(t, app, "project", "list")
	assert.Contains(t, out, "No projects found.")

	out = mustRun(t, app, "project", "add", "--id", "brk", "--name", "Brakes", "--description", "Brake system")
	assert.Contains(t, out, "Created project Brakes [BRK]")

	out = mustRun(t, app, "project", "list")
	assert.Contains(t, out, "BRK")
	assert.Contains(t, out, "Brake system")

	_, err := run(t, app, "project", "add", "--id", "BRK", "--name", "Again")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSubjectAddAndList(t *testing.T) {
	app := testApp(t)
	seedCLIProject(t, app)

	_, err := run(t, app, "subject", "list")
	assert.ErrorIs(t, err, domain.ErrValidation)

	out := mustRun(t, app, "subject", "add", "-p", "BRK", "--name", "Hydraulics")
	assert.Contains(t, out, "Created subject Hydraulics")

	out = mustRun(t, app, "subject", "list", "--project", "BRK")
	assert.Contains(t, out, "Hydraulics")
}

func TestReqLifecycle(t *testing.T) {
	app := testApp(t)
	p := seedCLIProject(t, app)

	out := mustRun(t, app, "req", "add", "-p", "BRK",
		"--title", "Braking", "--statement", "The vehicle shall brake.")
	assert.Contains(t, out, "Created REQ-0001 (v1)")

	out = mustRun(t, app, "req", "add", "-p", "BRK",
		"--title", "Brake response", "--statement", "Brakes engage within 100ms.",
		"--tag", "safety", "--tag", "timing", "--priority", "1", "--parent", "REQ-0001")
	assert.Contains(t, out, "Created REQ-0002 (v1)")

	out = mustRun(t, app, "req", "edit", "REQ-0002", "-p", "BRK",
		"--statement", "Brakes engage within 80ms.", "--delta-notes", "tightened")
	assert.Contains(t, out, "Updated REQ-0002 to v2")

	d, err := app.Requirements.FindByUID(context.Background(), p.ID, "REQ-0002")
	require.NoError(t, err)
	assert.Equal(t, "Brake response", d.CurrentVersion.Title, "untouched title carried forward")
	assert.Equal(t, []string{"safety", "timing"}, d.CurrentVersion.Tags, "tags inherited")
	assert.Equal(t, "cfg-author", d.CurrentVersion.CreatedBy)
	require.NotNil(t, d.Priority)
	assert.Equal(t, 1, *d.Priority)

	out = mustRun(t, app, "req", "show", "2", "-p", "BRK")
	assert.Contains(t, out, "REQ-0002")
	assert.Contains(t, out, "Brakes engage within 80ms.")
	assert.Contains(t, out, "REQ-0001 Braking")

	out = mustRun(t, app, "req", "list", "-p", "BRK")
	assert.Contains(t, out, "REQ-0001")
	assert.Contains(t, out, "REQ-0002")

	out = mustRun(t, app, "req", "history", "REQ-0002", "-p", "BRK")
	assert.Contains(t, out, "v2")
	assert.Contains(t, out, "v1")
	assert.Contains(t, out, "tightened")

	v1 := d.Versions[len(d.Versions)-1]
	out = mustRun(t, app, "req", "at", "REQ-0002", "-p", "BRK", "--time", v1.EffectiveFrom.Format(time.RFC3339Nano))
	assert.Contains(t, out, "Brakes engage within 100ms.")

	out = mustRun(t, app, "req", "status", "REQ-0002", "approved", "-p", "BRK")
	assert.Contains(t, out, "REQ-0002 is now APPROVED")

	out = mustRun(t, app, "req", "move", "REQ-0002", "-p", "BRK", "--root")
	assert.Contains(t, out, "REQ-0002 is now a root requirement")

	out = mustRun(t, app, "req", "move", "REQ-0001", "-p", "BRK", "--parent", "REQ-0002")
	assert.Contains(t, out, "Moved REQ-0001 under REQ-0002")

	out = mustRun(t, app, "req", "rm", "REQ-0002", "-p", "BRK")
	assert.Contains(t, out, "Removed REQ-0002")

	root, err := app.Requirements.FindByUID(context.Background(), p.ID, "REQ-0001")
	require.NoError(t, err)
	assert.Nil(t, root.ParentRequirementID)
}

func TestReqEdit_ClearTagsAndPriority(t *testing.T) {
	app := testApp(t)
	p := seedCLIProject(t, app)
	mustRun(t, app, "req", "add", "-p", "BRK", "--title", "T", "--statement", "S",
		"--tag", "a", "--priority", "3")

	mustRun(t, app, "req", "edit", "REQ-0001", "-p", "BRK", "--clear-tags", "--clear-priority", "--author", "dana")

	d, err := app.Requirements.FindByUID(context.Background(), p.ID, "REQ-0001")
	require.NoError(t, err)
	assert.Empty(t, d.CurrentVersion.Tags)
	assert.Nil(t, d.Priority)
	assert.Equal(t, "dana", d.CurrentVersion.CreatedBy)
}

func TestReqErrors(t *testing.T) {
	app := testApp(t)
	seedCLIProject(t, app)

	_, err := run(t, app, "req", "list")
	assert.ErrorIs(t, err, domain.ErrValidation, "missing --project")

	_, err = run(t, app, "req", "list", "-p", "NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = run(t, app, "req", "add", "-p", "BRK", "--title", "only title")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = run(t, app, "req", "show", "REQ-0099", "-p", "BRK")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mustRun(t, app, "req", "add", "-p", "BRK", "--title", "T", "--statement", "S")

	_, err = run(t, app, "req", "status", "REQ-0001", "bogus", "-p", "BRK")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = run(t, app, "req", "at", "REQ-0001", "-p", "BRK", "--time", "yesterday")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = run(t, app, "req", "at", "REQ-0001", "-p", "BRK", "--time", "2000-01-01T00:00:00Z")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = run(t, app, "req", "move", "REQ-0001", "-p", "BRK", "--parent", "REQ-0001")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = run(t, app, "req", "move", "REQ-0001", "-p", "BRK")
	assert.Error(t, err, "one of --parent or --root is required")
}

func TestReqScopedToProject(t *testing.T) {
	app := testApp(t)
	seedCLIProject(t, app)
	mustRun(t, app, "project", "add", "--id", "STR", "--name", "Steering")
	mustRun(t, app, "req", "add", "-p", "BRK", "--title", "T", "--statement", "S")

	_, err := run(t, app, "req", "show", "REQ-0001", "-p", "STR")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out := mustRun(t, app, "req", "add", "-p", "STR", "--title", "T", "--statement", "S")
	assert.Contains(t, out, "Created REQ-0001 (v1)")
}

func TestConfigInitAndShow(t *testing.T) {
	app := testApp(t)
	app.ConfigPath = filepath.Join(t.TempDir(), "config.toml")

	out := mustRun(t, app, "config", "show")
	assert.Contains(t, out, `author = "cfg-author"`)

	out = mustRun(t, app, "config", "init")
	assert.Contains(t, out, "Wrote "+app.ConfigPath)

	_, err := run(t, app, "config", "init")
	assert.ErrorContains(t, err, "already exists")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitValidation, ExitCode(&domain.ValidationError{Field: "title", Rule: "is required"}))
	assert.Equal(t, ExitNotFound, ExitCode(domain.NewNotFound("requirement", "x")))
	assert.Equal(t, ExitConflict, ExitCode(&domain.ConflictError{Entity: "requirement", Key: "REQ-0001"}))
	assert.Equal(t, ExitError, ExitCode(assert.AnError))

	msg := ansiPattern.ReplaceAllString(FormatError(domain.NewNotFound("requirement", "REQ-0009")), "")
	assert.Equal(t, `not found: requirement "REQ-0009" not found`, msg)
}

func TestReqImport(t *testing.T) {
	app := testApp(t)
	p := seedCLIProject(t, app)

	path := filepath.Join(t.TempDir(), "reqs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"subjects": [{"ref": "hyd", "name": "Hydraulics"}],
		"requirements": [
			{"ref": "root", "title": "Braking", "statement": "The vehicle shall brake."},
			{"ref": "leaf", "parent_ref": "root", "subject_ref": "hyd", "title": "Pressure",
			 "statement": "Line pressure stays above 80 bar.", "status": "REVIEW"}
		]
	}`), 0644))

	out := mustRun(t, app, "req", "import", path, "-p", "BRK")
	assert.Contains(t, out, "Imported 1 subject(s) and 2 requirement(s) into BRK")
	assert.Contains(t, out, "leaf")

	leaf, err := app.Requirements.FindByUID(context.Background(), p.ID, "REQ-0002")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReview, leaf.Status)
	require.NotNil(t, leaf.Parent)
	assert.Equal(t, "REQ-0001", leaf.Parent.Requirement.UID)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"requirements": [{"ref": "x", "title": "T"}]}`), 0644))
	_, err = run(t, app, "req", "import", bad, "-p", "BRK")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReqList_StatusFilter(t *testing.T) {
	app := testApp(t)
	seedCLIProject(t, app)
	mustRun(t, app, "req", "add", "-p", "BRK", "--title", "Draft one", "--statement", "S")
	mustRun(t, app, "req", "add", "-p", "BRK", "--title", "Approved one", "--statement", "S")
	mustRun(t, app, "req", "status", "REQ-0002", "APPROVED", "-p", "BRK")

	out := mustRun(t, app, "req", "list", "-p", "BRK", "--status", "approved")
	assert.Contains(t, out, "Approved one")
	assert.NotContains(t, out, "Draft one")

	out = mustRun(t, app, "req", "list", "-p", "BRK", "--status", "archived")
	assert.Contains(t, out, "No requirements found.")

	_, err := run(t, app, "req", "list", "-p", "BRK", "--status", "nope")
	assert.Error(t, err)
}
