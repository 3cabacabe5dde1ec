package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"repo-atlas/internal/config"
	"repo-atlas/internal/pipeline"
)

func main() {
	root := &cobra.Command{
		Use:          "repo-atlas",
		Short:        "GitHub repos → categorized markdown index with AI categorization",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return pipeline.Run(context.Background(), cfg)
		},
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
