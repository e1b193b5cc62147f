package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Oudwins/scout/internals/fence"
	"github.com/Oudwins/scout/internals/naming"
	"github.com/Oudwins/scout/internals/oai"
	"github.com/Oudwins/scout/internals/plan"
	"github.com/Oudwins/scout/internals/prompt"
	"github.com/Oudwins/scout/internals/store"
)

// Executor drives one task end to end: build prompt, call the service,
// normalize content, persist result and metadata. Failures are captured in
// the ExecutionResult and never re-raised, so one task cannot take down the
// batch.
type Executor struct {
	Client      CompletionClient
	OutputDir   string
	Template    string
	Model       string
	Temperature float64
}

func (e *Executor) Execute(ctx context.Context, task plan.Task, index int) ExecutionResult {
	result, err := e.execute(ctx, task, index)
	if err != nil {
		slog.Error("task failed", "index", index+1, "title", task.Title, "error", err)
		return ExecutionResult{
			TaskIndex: index,
			Title:     task.Title,
			Error:     err.Error(),
		}
	}
	return result
}

func (e *Executor) execute(ctx context.Context, task plan.Task, index int) (ExecutionResult, error) {
	built := prompt.Build(task, e.Template)

	extension := "md"
	if strings.Contains(strings.ToLower(task.Format), "json") {
		extension = "json"
	}
	resultPath := filepath.Join(e.OutputDir, naming.ResultFilename(index, task.Title, extension))
	metaPath := filepath.Join(e.OutputDir, naming.MetaFilename(index, task.Title))

	slog.Info("executing task", "index", index+1, "title", task.Title)

	messages := []oai.Message{
		{Role: "system", Content: built},
		{Role: "user", Content: fmt.Sprintf("Research task: %s. Follow the instructions above.", task.Title)},
	}

	response, err := e.Client.Complete(ctx, oai.ChatRequest{
		Model:       e.Model,
		Messages:    messages,
		Temperature: e.Temperature,
	})
	if err != nil {
		return ExecutionResult{}, err
	}

	content := response.Content
	if extension == "json" {
		// Best-effort: models often wrap JSON deliverables in a fenced block.
		content = fence.StripJSON(content)
	}

	// Result before metadata: a partial failure must never leave metadata
	// referencing a missing result file.
	if err := store.WriteText(content, resultPath); err != nil {
		return ExecutionResult{}, err
	}

	meta := store.Metadata{
		Task:        task,
		Model:       e.Model,
		Timestamp:   time.Now().Format(store.TimestampFormat),
		ElapsedTime: response.ElapsedTime,
		TokenUsage:  response.Usage,
		PromptHash:  store.PromptHash(built),
		Prompt:      oai.SanitizeMessages(messages),
		ResultFile:  filepath.Base(resultPath),
	}
	if err := store.WriteJSON(meta, metaPath); err != nil {
		return ExecutionResult{}, err
	}

	slog.Info("task completed", "index", index+1, "title", task.Title,
		"elapsed", fmt.Sprintf("%.2fs", response.ElapsedTime), "result", resultPath)

	return ExecutionResult{
		TaskIndex:  index,
		Title:      task.Title,
		ResultPath: resultPath,
		MetaPath:   metaPath,
		Success:    true,
	}, nil
}
