package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"openbricks/gateway/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		fmt.Printf("Configuration OK\n")
		fmt.Printf("  listen address: %s\n", cfg.Server.ListenAddress)
		fmt.Printf("  upstream:       %s\n", cfg.Upstream.BaseURL)
		fmt.Printf("  models:         %d\n", len(cfg.Models))
		for _, m := range cfg.Models {
			fmt.Printf("    - %s\n", m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
