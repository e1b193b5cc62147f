package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Oudwins/scout/internals/cite"
	"github.com/Oudwins/scout/internals/conf"
	"github.com/Oudwins/scout/internals/env"
	"github.com/Oudwins/scout/internals/oai"
	"github.com/Oudwins/scout/internals/prompt"
	"github.com/Oudwins/scout/internals/synth"
)

var (
	verifyInput     string
	verifyOutputDir string
	verifyTemplate  string
	verifyModel     string
	verifyDryRun    bool
)

func init() {
	verifyCmd.Flags().StringVar(&verifyInput, "input", "", "Path to the synthesized document to verify (default from config)")
	verifyCmd.Flags().StringVar(&verifyOutputDir, "output-dir", "", "Directory for the claim table and annotated document (default from config)")
	verifyCmd.Flags().StringVar(&verifyTemplate, "template", "", "Path to the citation prompt template (default from config)")
	verifyCmd.Flags().StringVar(&verifyModel, "model", "", "Model for the verification call (default from config)")
	verifyCmd.Flags().BoolVar(&verifyDryRun, "dry-run", false, "Log what would run without API calls or writes")
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the synthesized document's claims against its citations",
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	config := conf.GetConfig()

	templatePath := orDefault(verifyTemplate, filepath.Join(config.Outputs.Templates, "citation_agent.txt"))
	template := prompt.LoadTemplate(templatePath, prompt.DefaultCitationTemplate)

	var client cite.CompletionClient
	if !verifyDryRun {
		oaiClient, err := oai.New(env.Get())
		if err != nil {
			return err
		}
		client = oaiClient
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := cite.New(client).Run(ctx, cite.Options{
		InputPath:   orDefault(verifyInput, filepath.Join(config.Outputs.SynthDir, synth.OutputName)),
		OutputDir:   orDefault(verifyOutputDir, config.Outputs.CiteDir),
		Template:    template,
		Model:       orDefault(verifyModel, config.Agent.SynthesisModel),
		Temperature: config.Agent.Temperature,
		DryRun:      verifyDryRun,
	})
	if err != nil {
		return err
	}

	if !verifyDryRun {
		slog.Info("verification written", "table", result.TablePath, "verified", result.VerifiedPath)
	}
	return nil
}
