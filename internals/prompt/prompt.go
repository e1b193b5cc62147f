package prompt

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/Oudwins/scout/internals/plan"
)

// Placeholder tokens recognized in subagent templates. Tokens absent from a
// template pass through untouched; this is literal substitution, not a
// templating engine.
const (
	TokenTitle         = "<TASK_TITLE>"
	TokenScope         = "<TASK_SCOPE>"
	TokenFormat        = "<TASK_FORMAT>"
	TokenTools         = "<TASK_TOOLS>"
	TokenStopCondition = "<TASK_STOP_CONDITION>"
)

// DefaultSubagentTemplate is used when no template file is found on disk.
const DefaultSubagentTemplate = `You are a specialist research subagent.

You are assigned to research the following task:

<TASK_TITLE>

**Scope:**
<TASK_SCOPE>

**Deliverable Format:**
<TASK_FORMAT>

**Tools Available:**
<TASK_TOOLS>

**Heuristics:**
1. Start with a broad query, then narrow based on findings.
2. Prioritize primary sources and official documentation.
3. Avoid duplicate queries or sources.
4. If sources disagree, summarize all viewpoints.
5. Stop when the stop condition is met: <TASK_STOP_CONDITION>

Return your result in the specified format, and also include:
- citations: list of URLs with short 15-40 word source quotes.
- gaps: any info you expected to find but could not.
- notes: optional insights about conflicting definitions or unclear points.
`

// DefaultSynthesisTemplate is used when no synthesizer template file is found.
const DefaultSynthesisTemplate = `You are the Lead Researcher for this project.

Merge the provided subagent outputs (quoted below) into a single,
implementation-ready document. Resolve conflicts, cite trade-offs, and clearly
mark any open issues.
Output: a single Markdown document only.
`

// DefaultCitationTemplate is used when no citation template file is found.
const DefaultCitationTemplate = `You are a Citation Verifier.

Input is a Markdown document of research design decisions.
Identify factual claims and verify each with a specific source URL and a 15-40
word snippet.
Return two items:
1) A CSV (as a code block) with columns: claim_id, claim_text, status[VERIFIED|PARTIAL|UNVERIFIED], source_url, snippet
2) A cleaned Markdown body with inline numeric references [1], [2], ... aligned to the CSV rows.
`

// LoadTemplate reads a template file, falling back to the given default when
// the file does not exist. A missing template is never fatal.
func LoadTemplate(path string, fallback string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to read prompt template, using default", "path", path, "error", err)
		} else {
			slog.Warn("prompt template not found, using default", "path", path)
		}
		return fallback
	}
	return string(data)
}

// Build fills the subagent template with the task's fields. Missing task
// fields substitute as empty strings; format defaults to markdown.
func Build(task plan.Task, template string) string {
	format := task.Format
	if format == "" {
		format = "markdown"
	}

	out := strings.ReplaceAll(template, TokenTitle, task.Title)
	out = strings.ReplaceAll(out, TokenScope, task.Scope)
	out = strings.ReplaceAll(out, TokenFormat, format)
	out = strings.ReplaceAll(out, TokenTools, strings.Join(task.Tools, ", "))
	out = strings.ReplaceAll(out, TokenStopCondition, task.StopCondition)
	return out
}
