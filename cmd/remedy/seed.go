package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/remedyhq/remedy/internal/store"
	"github.com/remedyhq/remedy/internal/types"
)

var (
	seedAnomalyType string
	seedEndpoint    string
	seedPriority    string
)

var seedCmd = &cobra.Command{
	Use:   "seed <goal>",
	Short: "Seed a healing mission into the store",
	Long: `Insert a pending healing mission for the daemon to pick up on its next
poll cycle. Useful for operators and demos; production missions arrive from
the monitoring pipeline.

Example:
  remedy seed "restore /api/users" --type endpoint_failure --endpoint /api/users
  remedy seed "fix broken import" --type import_failure --priority critical`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		st, kv, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer kv.Close()

		priority := types.Priority(seedPriority)
		if !priority.IsValid() {
			fmt.Fprintf(os.Stderr, "Error: invalid priority %q (low, medium, high, critical)\n", seedPriority)
			os.Exit(1)
		}

		m := &types.Mission{
			Key:      store.MissionKey(uuid.New().String()),
			Goal:     args[0],
			Priority: priority,
			Anomaly: types.Anomaly{
				ID:               uuid.New().String(),
				Type:             seedAnomalyType,
				AffectedEndpoint: seedEndpoint,
			},
			Status:    types.MissionPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := m.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := st.SaveMission(ctx, m); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to save mission: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Seeded mission %s\n", m.Key)
		fmt.Printf("  Goal:    %s\n", m.Goal)
		fmt.Printf("  Anomaly: %s (%s)\n", m.Anomaly.ID, m.Anomaly.Type)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAnomalyType, "type", "endpoint_failure", "anomaly type")
	seedCmd.Flags().StringVar(&seedEndpoint, "endpoint", "", "affected endpoint path")
	seedCmd.Flags().StringVar(&seedPriority, "priority", "high", "mission priority (low, medium, high, critical)")
	rootCmd.AddCommand(seedCmd)
}
