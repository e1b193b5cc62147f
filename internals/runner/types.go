package runner

import (
	"context"

	"github.com/Oudwins/scout/internals/oai"
)

// ExecutionResult is the outcome of one dispatched task. Success implies
// both paths are set and Error is empty; failure implies the reverse.
type ExecutionResult struct {
	TaskIndex  int    `json:"task_index"`
	Title      string `json:"title"`
	ResultPath string `json:"result_path,omitempty"`
	MetaPath   string `json:"meta_path,omitempty"`
	Error      string `json:"error,omitempty"`
	Success    bool   `json:"success"`
}

// RunSummary is written once per run, after every worker has finished.
// Results are ordered by original task index regardless of completion order.
type RunSummary struct {
	RunID           string            `json:"run_id"`
	Timestamp       string            `json:"timestamp"`
	Model           string            `json:"model"`
	TasksTotal      int               `json:"tasks_total"`
	TasksSuccessful int               `json:"tasks_successful"`
	Results         []ExecutionResult `json:"results"`
}

// CompletionClient is the remote completion surface the executor depends on.
type CompletionClient interface {
	Complete(ctx context.Context, request oai.ChatRequest) (*oai.ChatResponse, error)
}

// Recorder receives task state transitions for the audit ledger. A nil
// Recorder disables recording.
type Recorder interface {
	BeginRun(ctx context.Context, runID string, model string, titles []string, indexes []int) error
	TaskRunning(ctx context.Context, runID string, index int) error
	TaskFinished(ctx context.Context, runID string, index int, success bool, errMsg string, resultPath string) error
	FinishRun(ctx context.Context, runID string, successful int) error
}
