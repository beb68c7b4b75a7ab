package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"maintenance-copilot/internal/app"
	"maintenance-copilot/internal/common/database"
	"maintenance-copilot/internal/repository"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Create the SOP knowledge index if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		zapLog, log := app.NewLogger(cfg.Logging)
		defer zapLog.Sync()

		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}

		store := repository.NewKnowledgeStore(es.Client, cfg.Knowledge.Index, cfg.Knowledge.Dimensions, log)
		created, err := store.EnsureIndex(cmd.Context())
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Created index %s (%d dims)\n", store.Index(), cfg.Knowledge.Dimensions)
		} else {
			fmt.Printf("Index %s already exists\n", store.Index())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
