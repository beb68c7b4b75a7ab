package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"maintenance-copilot/internal/app"
	"maintenance-copilot/internal/workflow"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Run one question through the copilot workflow",
	Long:  `Connects to Postgres, Elasticsearch and Redis, runs the question through the workflow and prints the answer.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		zapLog, log := app.NewLogger(cfg.Logging)
		defer zapLog.Sync()

		ctx := cmd.Context()
		infra, err := app.Connect(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer infra.Close()

		copilot, err := app.BuildCopilot(cfg, infra, log)
		if err != nil {
			return err
		}

		machineID, _ := cmd.Flags().GetString("machine")
		state, err := copilot.Orchestrator.Execute(ctx, workflow.Input{
			UserInput: strings.Join(args, " "),
			MachineID: machineID,
		})
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		}
		fmt.Println(state.Response)
		return nil
	},
}

func init() {
	askCmd.Flags().String("machine", "", "Machine or product ID to use when the question names none")
	askCmd.Flags().Bool("json", false, "Print the full workflow state as JSON")
	rootCmd.AddCommand(askCmd)
}
