package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gyeh/billingdash/internal/exitcode"
	"github.com/gyeh/billingdash/internal/ingest"
	"github.com/gyeh/billingdash/internal/logging"
	"github.com/gyeh/billingdash/internal/model"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run parse and stats (no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&cfg.FilePath, "file", "", "Path to .xlsx or .parquet file (required)")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)

	if err := cfg.ValidateFile(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	res, err := ingest.Plan(context.Background(), log, cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("plan failed")
		os.Exit(exitcode.ValidationError)
	}

	fmt.Println("=== billingdash plan ===")
	fmt.Printf("File:        %s\n", res.FilePath)
	fmt.Printf("SHA-256:     %s\n", res.FileSHA256)
	fmt.Printf("Columns:     %d\n", len(res.Header))
	fmt.Printf("Rows read:   %d\n", res.RowsRead)
	fmt.Printf("Rejected:    %d\n", res.RowsRejected)
	fmt.Printf("Procedures:  %d\n", res.Procedures)
	fmt.Printf("Patients:    %d\n", res.Patients)
	if res.MinService != nil {
		fmt.Printf("Service:     %s .. %s\n", res.MinService.Format("2006-01-02"), res.MaxService.Format("2006-01-02"))
	}

	if len(res.Rejections) > 0 {
		fmt.Println("\nRejections:")
		printCounts(res.Rejections)
	}
	fmt.Println("\nSurgery types (procedures):")
	printCounts(res.SurgeryTypes)
	fmt.Println("\nPrimary carriers (procedures):")
	printCounts(res.Carriers)
	fmt.Println("\nStatus:")
	for _, s := range model.AllStatuses {
		fmt.Printf("  %-12s %6d\n", s, res.Statuses[s])
	}
	return nil
}

// printCounts prints a count map, largest first.
func printCounts[V int | int64](m map[string]V) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		fmt.Printf("  %-24s %6d\n", k, m[k])
	}
}
