package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/menta2k/sam-annotator/pkg/batch"
)

func newBatchCommand(opts *rootOptions) *cobra.Command {
	var folder string
	var positive, negative []string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Annotate every image in a folder with the given point prompts",
		Long: `Batch freezes the point prompts, propagates them across the whole image
sequence, and persists one label file plus one predicted image per input.
Interrupt with Ctrl-C to stop after the item in flight.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ann, _, err := opts.newAnnotator()
			if err != nil {
				return err
			}
			if err := ann.LoadFolder(folder); err != nil {
				return err
			}
			if err := applyPoints(ann, positive, negative); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			job, err := ann.StartBatch()
			if err != nil {
				return err
			}
			dirs := ann.OutputDirs()
			log.Info().
				Str("job", job.ID.String()).
				Str("labels", dirs.Labels).
				Str("images", dirs.Images).
				Msg("Batch started")

			return streamBatchEvents(ann.Events(), ctx.Done(), ann.StopBatch)
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "image folder to annotate (required)")
	cmd.Flags().StringArrayVar(&positive, "point", nil, "positive point obj:x,y (repeatable)")
	cmd.Flags().StringArrayVar(&negative, "neg-point", nil, "negative point obj:x,y (repeatable)")
	cmd.MarkFlagRequired("folder")
	return cmd
}

// streamBatchEvents drains the batch channel until a terminal event, printing
// progress and logging the job summary. An interrupt triggers a cooperative
// stop; drainage continues until the worker delivers its terminal event.
func streamBatchEvents(events <-chan batch.Event, interrupt <-chan struct{}, stop func()) error {
	for {
		select {
		case <-interrupt:
			log.Info().Msg("Interrupted, stopping batch")
			stop()
			interrupt = nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case batch.EventProgress:
				fmt.Printf("processed %d/%d\n", ev.Current, ev.Total)
			case batch.EventFinished:
				logJobSummary(ev.Job)
				return nil
			case batch.EventError:
				logJobSummary(ev.Job)
				return ev.Err
			}
		}
	}
}

// logJobSummary reports the terminal job state, including the partial
// outcomes of a failed run.
func logJobSummary(job *batch.Job) {
	log.Info().
		Str("status", job.Status.String()).
		Int("total", job.Total).
		Int("processed", len(job.Outcomes)).
		Int("failed", len(job.FailedOutcomes())).
		Msg("Batch finished")
	for _, out := range job.FailedOutcomes() {
		log.Warn().Str("image", out.ImagePath).Err(out.Err).Msg("Item failed")
	}
}
