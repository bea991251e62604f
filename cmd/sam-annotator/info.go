package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCommand(opts *rootOptions) *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show what a batch run over a folder would produce",
		RunE: func(cmd *cobra.Command, args []string) error {
			ann, cfg, err := opts.newAnnotator()
			if err != nil {
				return err
			}
			if err := ann.LoadFolder(folder); err != nil {
				return err
			}

			seq := ann.Sequence()
			dirs := ann.OutputDirs()
			fmt.Printf("folder:       %s\n", seq.Folder())
			fmt.Printf("images:       %d\n", seq.Count())
			if first := seq.First(); first != "" {
				fmt.Printf("first image:  %s\n", first)
			}
			fmt.Printf("mode:         %s\n", seq.Mode())
			fmt.Printf("labels root:  %s\n", dirs.Labels)
			fmt.Printf("images root:  %s\n", dirs.Images)
			fmt.Printf("engine:       %s (model %s)\n", cfg.Engine.URL, cfg.Engine.Model)
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "image folder to inspect (required)")
	cmd.MarkFlagRequired("folder")
	return cmd
}
