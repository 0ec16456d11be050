package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mission statistics",
	Long:  `Display aggregate mission counts and the average fix confidence recorded in the store.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		st, kv, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer kv.Close()

		stats, err := st.GetMissionStats(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get mission stats: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Remedy Status ==="))
		fmt.Printf("  Missions:   %d total\n", stats.Total)
		fmt.Printf("    %s %d completed\n", green("●"), stats.Completed)
		fmt.Printf("    %s %d failed\n", red("●"), stats.Failed)
		fmt.Printf("    %s %d active\n", yellow("●"), stats.Active)
		if stats.AvgConfidence > 0 {
			fmt.Printf("  Confidence: %.1f average across recorded fixes\n", stats.AvgConfidence)
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
