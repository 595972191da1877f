package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"openbricks/gateway/pkg/audit"
	"openbricks/gateway/pkg/config"
)

var (
	auditLast  int
	auditModel string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recorded request audit entries",
	Long: `Reads the configured audit store and prints request records,
newest first. Only works with the sqlite backend; the memory backend
does not survive the serving process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cfg.Audit.Backend != "sqlite" {
			return fmt.Errorf("audit listing requires the sqlite backend, configured backend is %q", cfg.Audit.Backend)
		}

		store, err := audit.NewSQLiteStore(cfg.Audit.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List(cmd.Context(), audit.Query{
			Model: auditModel,
			Limit: auditLast,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tENDPOINT\tMODEL\tSTATUS\tDURATION\tTOKENS\tERROR")
		for _, rec := range records {
			tokens := ""
			if rec.PromptTokens > 0 || rec.CompletionTokens > 0 {
				tokens = fmt.Sprintf("%d+%d", rec.PromptTokens, rec.CompletionTokens)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				rec.Timestamp.Format(time.RFC3339),
				rec.Endpoint,
				rec.Model,
				rec.Status,
				time.Duration(rec.DurationMS)*time.Millisecond,
				tokens,
				rec.ErrorType,
			)
		}
		return w.Flush()
	},
}

func init() {
	auditCmd.Flags().IntVar(&auditLast, "last", 50, "number of records to show")
	auditCmd.Flags().StringVar(&auditModel, "model", "", "filter by model identifier")
	rootCmd.AddCommand(auditCmd)
}
