package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/menta2k/sam-annotator/pkg/output"
)

func newSegmentCommand(opts *rootOptions) *cobra.Command {
	var folder string
	var positive, negative []string
	var save bool

	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Run single-image segmentation on the first image of a folder",
		Long: `Segment binds the first image of the folder as the annotation reference,
applies the given point prompts, and runs one single-image engine call.
Points use the form obj:x,y (obj defaults to 0 when omitted).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ann, cfg, err := opts.newAnnotator()
			if err != nil {
				return err
			}
			if err := ann.LoadFolder(folder); err != nil {
				return err
			}
			if err := applyPoints(ann, positive, negative); err != nil {
				return err
			}
			log.Info().Str("summary", ann.Summary()).Msg("Annotation ready")

			res, err := ann.RunSegmentation(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().
				Str("image", res.ImagePath).
				Int("masks", len(res.Masks)).
				Msg("Segmentation completed")
			for _, mask := range res.Masks {
				fmt.Printf("class=%d conf=%.2f vertices=%d\n", mask.ClassID, mask.Confidence, len(mask.Contour))
			}

			if save {
				persister := output.NewPersisterWithConfig(ann.OutputDirs(), output.Config{
					Format:   cfg.Output.Format,
					Quality:  cfg.Output.Quality,
					Lossless: cfg.Output.Lossless,
				})
				if err := persister.Persist(res); err != nil {
					return err
				}
				dirs := persister.Dirs()
				log.Info().Str("labels", dirs.Labels).Str("images", dirs.Images).Msg("Saved result")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "image folder to annotate (required)")
	cmd.Flags().StringArrayVar(&positive, "point", nil, "positive point obj:x,y (repeatable)")
	cmd.Flags().StringArrayVar(&negative, "neg-point", nil, "negative point obj:x,y (repeatable)")
	cmd.Flags().BoolVar(&save, "save", false, "persist the result into the derived output roots")
	cmd.MarkFlagRequired("folder")
	return cmd
}
