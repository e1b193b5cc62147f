package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Oudwins/scout/internals/plan"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	task := plan.Task{
		Title:         "Team Styles",
		Scope:         "playing styles across the league",
		Format:        "json",
		Tools:         []string{"web", "pdf"},
		StopCondition: "3 sources",
	}
	template := "Title: <TASK_TITLE>\nScope: <TASK_SCOPE>\nFormat: <TASK_FORMAT>\nTools: <TASK_TOOLS>\nStop: <TASK_STOP_CONDITION>"

	got := Build(task, template)
	want := "Title: Team Styles\nScope: playing styles across the league\nFormat: json\nTools: web, pdf\nStop: 3 sources"
	if got != want {
		t.Fatalf("Build mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestBuildDefaultsFormat(t *testing.T) {
	t.Parallel()

	got := Build(plan.Task{Title: "X"}, "format=<TASK_FORMAT> tools=<TASK_TOOLS>")
	if got != "format=markdown tools=" {
		t.Fatalf("expected defaults, got %q", got)
	}
}

func TestBuildLeavesUnknownTokens(t *testing.T) {
	t.Parallel()

	template := "hello <SOMETHING_ELSE> <TASK_TITLE>"
	got := Build(plan.Task{Title: "X"}, template)
	if got != "hello <SOMETHING_ELSE> X" {
		t.Fatalf("expected unknown tokens untouched, got %q", got)
	}
}

func TestBuildTemplateWithoutPlaceholders(t *testing.T) {
	t.Parallel()

	template := "static prompt"
	if got := Build(plan.Task{Title: "X"}, template); got != template {
		t.Fatalf("expected template passthrough, got %q", got)
	}
}

func TestLoadTemplateFallback(t *testing.T) {
	got := LoadTemplate(filepath.Join(t.TempDir(), "missing.txt"), DefaultSubagentTemplate)
	if got != DefaultSubagentTemplate {
		t.Fatalf("expected fallback template")
	}
	if !strings.Contains(got, TokenTitle) {
		t.Fatalf("default template should contain the title token")
	}
}

func TestLoadTemplateReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.txt")
	if err := os.WriteFile(path, []byte("custom <TASK_TITLE>"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if got := LoadTemplate(path, DefaultSubagentTemplate); got != "custom <TASK_TITLE>" {
		t.Fatalf("expected file contents, got %q", got)
	}
}
