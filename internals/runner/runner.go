// Package runner loads a research plan and fans its tasks out to a
// rate-limited completion service under a bounded worker pool. Workers share
// nothing mutable: each owns a disjoint pair of output files, so filename
// uniqueness is the only coordination needed.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Oudwins/scout/internals/plan"
	"github.com/Oudwins/scout/internals/store"
)

var ErrNoTasks = errors.New("no tasks found in plan")

type Options struct {
	PlanPath     string
	OutputDir    string
	TemplatePath string
	Template     string // resolved template content; loaded by the caller
	Model        string
	Temperature  float64
	MaxWorkers   int
	TaskIndex    int // -1 runs every task
	DryRun       bool
}

type Runner struct {
	client   CompletionClient
	recorder Recorder
}

func New(client CompletionClient, recorder Recorder) *Runner {
	return &Runner{client: client, recorder: recorder}
}

// Run executes the plan's tasks and returns the ordered summary. Individual
// task failures never abort the batch; only preconditions (empty plan, bad
// index) fail the run as a whole.
func (r *Runner) Run(ctx context.Context, tasks []plan.Task, opts Options) (*RunSummary, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTasks, opts.PlanPath)
	}

	type indexed struct {
		task  plan.Task
		index int
	}

	selected := make([]indexed, 0, len(tasks))
	if opts.TaskIndex >= 0 {
		if opts.TaskIndex >= len(tasks) {
			return nil, fmt.Errorf("invalid task index %d: valid range 0-%d", opts.TaskIndex, len(tasks)-1)
		}
		selected = append(selected, indexed{task: tasks[opts.TaskIndex], index: opts.TaskIndex})
	} else {
		for i, task := range tasks {
			selected = append(selected, indexed{task: task, index: i})
		}
	}

	workers := opts.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(selected) {
		workers = len(selected)
	}

	if opts.DryRun {
		slog.Info("dry run: no API calls or writes will happen", "tasks", len(selected))
		for _, item := range selected {
			slog.Info("dry run: would execute task", "index", item.index+1, "title", item.task.Title)
		}
		return &RunSummary{
			Timestamp:  time.Now().Format(store.TimestampFormat),
			Model:      opts.Model,
			TasksTotal: len(selected),
			Results:    []ExecutionResult{},
		}, nil
	}

	runID := uuid.NewString()
	slog.Info("running tasks", "run_id", runID, "tasks", len(selected), "workers", workers, "model", opts.Model)

	if r.recorder != nil {
		titles := make([]string, len(selected))
		indexes := make([]int, len(selected))
		for i, item := range selected {
			titles[i] = item.task.Title
			indexes[i] = item.index
		}
		if err := r.recorder.BeginRun(ctx, runID, opts.Model, titles, indexes); err != nil {
			return nil, fmt.Errorf("record run start: %w", err)
		}
	}

	executor := &Executor{
		Client:      r.client,
		OutputDir:   opts.OutputDir,
		Template:    opts.Template,
		Model:       opts.Model,
		Temperature: opts.Temperature,
	}

	// Each worker writes only its own slot, so the slice needs no lock.
	results := make([]ExecutionResult, len(selected))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, item := range selected {
		i, item := i, item
		group.Go(func() error {
			r.recordRunning(groupCtx, runID, item.index)
			result := executor.Execute(groupCtx, item.task, item.index)
			r.recordFinished(groupCtx, runID, result)
			results[i] = result
			return nil
		})
	}
	// Workers capture failures in their ExecutionResult, so Wait cannot fail.
	_ = group.Wait()

	sort.Slice(results, func(a, b int) bool {
		return results[a].TaskIndex < results[b].TaskIndex
	})

	successful := 0
	for _, result := range results {
		if result.Success {
			successful++
		}
	}

	summary := &RunSummary{
		RunID:           runID,
		Timestamp:       time.Now().Format(store.TimestampFormat),
		Model:           opts.Model,
		TasksTotal:      len(selected),
		TasksSuccessful: successful,
		Results:         results,
	}

	if err := store.WriteJSON(summary, filepath.Join(opts.OutputDir, "summary.json")); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}

	if r.recorder != nil {
		if err := r.recorder.FinishRun(ctx, runID, successful); err != nil {
			slog.Warn("failed to record run finish", "run_id", runID, "error", err)
		}
	}

	return summary, nil
}

func (r *Runner) recordRunning(ctx context.Context, runID string, index int) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.TaskRunning(ctx, runID, index); err != nil {
		slog.Warn("failed to record task start", "index", index, "error", err)
	}
}

func (r *Runner) recordFinished(ctx context.Context, runID string, result ExecutionResult) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.TaskFinished(ctx, runID, result.TaskIndex, result.Success, result.Error, result.ResultPath); err != nil {
		slog.Warn("failed to record task finish", "index", result.TaskIndex, "error", err)
	}
}
