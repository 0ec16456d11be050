package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/remedyhq/remedy/internal/types"
)

var fixesLimit int

var fixesCmd = &cobra.Command{
	Use:   "fixes",
	Short: "List recent fix records",
	Long:  `List recently recorded fixes, newest first, with their status and confidence.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		st, kv, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer kv.Close()

		fixes, err := st.ListRecentFixes(ctx, fixesLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list fixes: %v\n", err)
			os.Exit(1)
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		if len(fixes) == 0 {
			fmt.Printf("%s\n", gray("No recorded fixes"))
			return
		}

		for _, fix := range fixes {
			fmt.Printf("%s %s\n", fixDot(fix.Status), fix.ID)
			fmt.Printf("    Mission:    %s\n", fix.MissionRef)
			fmt.Printf("    Status:     %s\n", fix.Status)
			fmt.Printf("    Risk:       %s\n", fix.RiskAssessment.Level)
			fmt.Printf("    Confidence: %.1f (%d findings, %d files)\n",
				fix.AverageConfidence(), len(fix.Findings), fix.FilesChanged())
			fmt.Printf("    Created:    %s\n", fix.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Println()
		}
	},
}

// fixDot renders a colored marker for a fix status
func fixDot(status types.FixStatus) string {
	switch status {
	case types.FixApplied, types.FixTested, types.FixDeployed:
		return color.New(color.FgGreen).Sprint("●")
	case types.FixFailed:
		return color.New(color.FgRed).Sprint("●")
	case types.FixReverted:
		return color.New(color.FgYellow).Sprint("●")
	default:
		return color.New(color.FgHiBlack).Sprint("○")
	}
}

func init() {
	fixesCmd.Flags().IntVar(&fixesLimit, "limit", 10, "maximum number of fixes to show")
	rootCmd.AddCommand(fixesCmd)
}
