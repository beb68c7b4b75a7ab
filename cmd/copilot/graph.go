package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"maintenance-copilot/internal/app"
	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/pkg/registry"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the workflow graph",
	Long:  `Prints the routing graph (entry node, per-query-type stages and node task types) as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		graph, err := app.Describe(cfg, logger.NewNoOpLogger())
		if err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("check"); path != "" {
			return checkGraph(path, graph)
		}

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			if err := registry.Save(out, graph); err != nil {
				return err
			}
			fmt.Printf("Graph written to %s\n", out)
			return nil
		}
		return registry.Write(os.Stdout, graph)
	},
}

func init() {
	graphCmd.Flags().String("out", "", "Write the graph to this file instead of stdout")
	graphCmd.Flags().String("check", "", "Compare a saved graph file with the running pipeline")
	rootCmd.AddCommand(graphCmd)
}

func checkGraph(path string, live *registry.Graph) error {
	saved, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}
	if err := registry.Validate(saved); err != nil {
		return fmt.Errorf("invalid graph %s: %w", path, err)
	}

	drift := registry.Diff(saved, live)
	if len(drift) == 0 {
		fmt.Printf("Graph %s matches the pipeline (%d nodes).\n", path, len(live.Nodes))
		return nil
	}
	for _, d := range drift {
		fmt.Println(d)
	}
	return fmt.Errorf("graph %s is out of date: %d difference(s)", path, len(drift))
}
