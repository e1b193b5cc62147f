package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Oudwins/scout/internals/conf"
	"github.com/Oudwins/scout/internals/env"
	"github.com/Oudwins/scout/internals/ledger"
	"github.com/Oudwins/scout/internals/oai"
	"github.com/Oudwins/scout/internals/plan"
	"github.com/Oudwins/scout/internals/prompt"
	"github.com/Oudwins/scout/internals/runner"
)

var (
	runPlanPath   string
	runOutputDir  string
	runTemplate   string
	runModel      string
	runMaxWorkers int
	runTaskIndex  int
	runDryRun     bool
)

func init() {
	runCmd.Flags().StringVar(&runPlanPath, "plan", "", "Path to the plan file (default from config)")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "Directory for results and metadata (default from config)")
	runCmd.Flags().StringVar(&runTemplate, "template", "", "Path to the subagent prompt template (default from config)")
	runCmd.Flags().StringVar(&runModel, "model", "", "Model for subagent completions (default from config)")
	runCmd.Flags().IntVar(&runMaxWorkers, "max-workers", 0, "Maximum concurrent subagents (default from config)")
	runCmd.Flags().IntVar(&runTaskIndex, "task-index", -1, "Run only the task at this zero-based index")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Log what would run without API calls or writes")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the plan's research tasks with parallel subagents",
	RunE:  runSubagents,
}

func runSubagents(cmd *cobra.Command, args []string) error {
	config := conf.GetConfig()

	planPath := orDefault(runPlanPath, config.Outputs.Plan)
	outputDir := orDefault(runOutputDir, config.Outputs.RawDir)
	templatePath := orDefault(runTemplate, filepath.Join(config.Outputs.Templates, "subagent.txt"))
	model := orDefault(runModel, config.Agent.DefaultModel)
	workers := runMaxWorkers
	if workers < 1 {
		workers = config.Agent.MaxWorkers
	}

	tasks, err := plan.Load(planPath)
	if err != nil {
		return err
	}
	template := prompt.LoadTemplate(templatePath, prompt.DefaultSubagentTemplate)

	var client runner.CompletionClient
	var recorder runner.Recorder
	if !runDryRun {
		oaiClient, err := oai.New(env.Get())
		if err != nil {
			return err
		}
		client = oaiClient

		runLedger, err := ledger.Open(filepath.Join(config.Data.Dir, "scout.db"))
		if err != nil {
			return err
		}
		defer runLedger.Close()
		recorder = runLedger
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	summary, err := runner.New(client, recorder).Run(ctx, tasks, runner.Options{
		PlanPath:    planPath,
		OutputDir:   outputDir,
		Template:    template,
		Model:       model,
		Temperature: config.Agent.Temperature,
		MaxWorkers:  workers,
		TaskIndex:   runTaskIndex,
		DryRun:      runDryRun,
	})
	if err != nil {
		return err
	}

	// Failed tasks are reported but do not change the exit code: partial
	// results stay usable for synthesis.
	slog.Info("run finished", "successful", summary.TasksSuccessful, "total", summary.TasksTotal)
	for _, result := range summary.Results {
		if !result.Success {
			slog.Error("task failed", "index", result.TaskIndex+1, "title", result.Title, "error", result.Error)
		}
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
