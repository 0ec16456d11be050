package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/remedyhq/remedy/internal/types"
)

var missionsCmd = &cobra.Command{
	Use:   "missions",
	Short: "List active healing missions",
	Long:  `List every mission in the store that has not reached a terminal state.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		st, kv, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer kv.Close()

		missions, err := st.ListActiveMissions(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list missions: %v\n", err)
			os.Exit(1)
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		if len(missions) == 0 {
			fmt.Printf("%s\n", gray("No active missions"))
			return
		}

		for _, m := range missions {
			fmt.Printf("%s %s\n", statusDot(m.Status), m.Key)
			fmt.Printf("    Goal:     %s\n", m.Goal)
			fmt.Printf("    Anomaly:  %s (%s)\n", m.Anomaly.ID, m.Anomaly.Type)
			if m.Anomaly.AffectedEndpoint != "" {
				fmt.Printf("    Endpoint: %s\n", m.Anomaly.AffectedEndpoint)
			}
			fmt.Printf("    Priority: %s\n", m.Priority)
			fmt.Printf("    Created:  %s (%v ago)\n",
				m.CreatedAt.Format("2006-01-02 15:04:05"),
				time.Since(m.CreatedAt).Round(time.Second))
			fmt.Println()
		}
	},
}

// statusDot renders a colored marker for a mission status
func statusDot(status types.MissionStatus) string {
	switch status {
	case types.MissionCompleted:
		return color.New(color.FgGreen).Sprint("●")
	case types.MissionFailed:
		return color.New(color.FgRed).Sprint("●")
	case types.MissionPending:
		return color.New(color.FgHiBlack).Sprint("○")
	default:
		return color.New(color.FgYellow).Sprint("●")
	}
}

func init() {
	rootCmd.AddCommand(missionsCmd)
}
