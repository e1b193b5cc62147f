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
	"github.com/Oudwins/scout/internals/oai"
	"github.com/Oudwins/scout/internals/prompt"
	"github.com/Oudwins/scout/internals/synth"
)

var (
	synthInputDir  string
	synthOutputDir string
	synthTemplate  string
	synthModel     string
	synthDryRun    bool
)

func init() {
	synthesizeCmd.Flags().StringVar(&synthInputDir, "input-dir", "", "Directory holding subagent results (default from config)")
	synthesizeCmd.Flags().StringVar(&synthOutputDir, "output-dir", "", "Directory for the synthesized document (default from config)")
	synthesizeCmd.Flags().StringVar(&synthTemplate, "template", "", "Path to the synthesis prompt template (default from config)")
	synthesizeCmd.Flags().StringVar(&synthModel, "model", "", "Model for the synthesis call (default from config)")
	synthesizeCmd.Flags().BoolVar(&synthDryRun, "dry-run", false, "Log what would run without API calls or writes")
}

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Merge subagent results into one synthesized document",
	RunE:  runSynthesize,
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	config := conf.GetConfig()

	templatePath := orDefault(synthTemplate, filepath.Join(config.Outputs.Templates, "synthesizer.txt"))
	template := prompt.LoadTemplate(templatePath, prompt.DefaultSynthesisTemplate)

	var client synth.CompletionClient
	if !synthDryRun {
		oaiClient, err := oai.New(env.Get())
		if err != nil {
			return err
		}
		client = oaiClient
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := synth.New(client).Run(ctx, synth.Options{
		InputDir:    orDefault(synthInputDir, config.Outputs.RawDir),
		OutputDir:   orDefault(synthOutputDir, config.Outputs.SynthDir),
		Template:    template,
		Model:       orDefault(synthModel, config.Agent.SynthesisModel),
		Temperature: config.Agent.Temperature,
		DryRun:      synthDryRun,
	})
	if err != nil {
		return err
	}

	if !synthDryRun {
		slog.Info("synthesis written", "output", result.OutputPath)
	}
	return nil
}
