package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Oudwins/scout/internals/conf"
	"github.com/Oudwins/scout/internals/logging"
)

var rootCmd = &cobra.Command{
	Use:          "scout",
	Short:        "Parallel research pipeline: subagents, synthesis, citation verification",
	Long:         `Scout runs a research plan through three phases: fan the plan's tasks out to parallel model subagents, synthesize their outputs into one document, then verify that document's claims.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(synthesizeCmd)
	rootCmd.AddCommand(verifyCmd)
}

func main() {
	config := conf.GetConfig()
	rootCmd.Version = config.Version

	_, logFile := logging.Init(config)
	defer logFile.Close()

	if err := rootCmd.Execute(); err != nil {
		logFile.Close()
		os.Exit(1)
	}
}
