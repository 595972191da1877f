package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bricksgw",
	Short: "OpenAI-compatible gateway for Databricks serving endpoints",
	Long: `bricksgw exposes an OpenAI-compatible HTTP API and forwards
requests to Databricks model serving endpoints, translating request and
response payloads, streaming output, and error envelopes in both
directions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"path to the configuration file")
}
