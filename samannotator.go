// Package samannotator provides interactive point-prompt annotation and
// whole-sequence propagation for SAM-family segmentation engines.
//
// A session annotates one reference image with positive and negative points
// across multiple objects, then propagates that annotation over every image
// in the folder, writing one label file and one predicted image per frame.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		samannotator "github.com/menta2k/sam-annotator"
//		"github.com/menta2k/sam-annotator/pkg/batch"
//		"github.com/menta2k/sam-annotator/pkg/samhttp"
//		"github.com/menta2k/sam-annotator/pkg/types"
//	)
//
//	func main() {
//		engine, err := samhttp.NewClient("http://localhost:8000")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		ann := samannotator.New(engine)
//		if err := ann.LoadFolder("/data/datasets/images/C_3/split_0"); err != nil {
//			log.Fatal(err)
//		}
//
//		// Annotate two objects on the first image.
//		ann.AddPositivePoint(types.Point{X: 320, Y: 240})
//		ann.AddNegativePoint(types.Point{X: 100, Y: 100})
//		ann.SwitchToNextObject()
//		ann.AddPositivePoint(types.Point{X: 500, Y: 300})
//
//		// Preview on the reference image.
//		if _, err := ann.RunSegmentation(context.Background()); err != nil {
//			log.Fatal(err)
//		}
//
//		// Propagate over the whole folder.
//		if _, err := ann.StartBatch(); err != nil {
//			log.Fatal(err)
//		}
//		for ev := range ann.Events() {
//			switch ev.Kind {
//			case batch.EventProgress:
//				log.Printf("processed %d/%d", ev.Current, ev.Total)
//			case batch.EventFinished:
//				log.Printf("batch %s", ev.Job.Status)
//				return
//			case batch.EventError:
//				log.Fatal(ev.Err)
//			}
//		}
//	}
//
// The package consists of five main components:
//
// 1. Annotation (pkg/annotation): multi-object point store and the balancing transform
// 2. Layout (pkg/layout): output directory derivation from the dataset tree
// 3. Sequence (pkg/sequence): ordered, filtered image-folder loading
// 4. Batch (pkg/batch): the sequential propagation pipeline with progress events
// 5. Output (pkg/output): per-image label and prediction artifacts
//
// The segmentation engine itself is an external collaborator behind the
// client.SegmentClient interface; pkg/samhttp implements it for a SAM HTTP
// server.
package samannotator

import (
	"context"
	"fmt"

	"github.com/menta2k/sam-annotator/internal/config"
	"github.com/menta2k/sam-annotator/internal/utils"
	"github.com/menta2k/sam-annotator/pkg/annotation"
	"github.com/menta2k/sam-annotator/pkg/batch"
	"github.com/menta2k/sam-annotator/pkg/client"
	"github.com/menta2k/sam-annotator/pkg/layout"
	"github.com/menta2k/sam-annotator/pkg/output"
	"github.com/menta2k/sam-annotator/pkg/sequence"
	"github.com/menta2k/sam-annotator/pkg/types"
)

// Version of the sam-annotator library
const Version = "1.0.0"

// Annotator is the single owning coordinator of an annotation session: it
// holds the annotation store, the image-sequence loader, the engine client,
// and the batch coordinator. Presentation layers keep one non-owning
// reference to an Annotator and nothing else.
type Annotator struct {
	store  *annotation.Store
	loader *sequence.Loader
	engine client.SegmentClient
	coord  *batch.Coordinator
	cfg    *config.Config
}

// New creates an Annotator with default configuration.
func New(engine client.SegmentClient) *Annotator {
	return NewWithConfig(engine, config.Default())
}

// NewWithConfig creates an Annotator with custom configuration.
func NewWithConfig(engine client.SegmentClient, cfg *config.Config) *Annotator {
	return &Annotator{
		store:  annotation.NewStore(),
		loader: sequence.NewLoaderWithExtensions(sequence.Frames, cfg.Annotation.Extensions),
		engine: engine,
		coord:  batch.New(engine),
		cfg:    cfg,
	}
}

// LoadFolder loads an image folder and binds its first image as the
// annotation reference.
func (a *Annotator) LoadFolder(folder string) error {
	if err := a.loader.LoadFolder(folder); err != nil {
		return err
	}
	a.store.SetImagePath(a.loader.First())
	return nil
}

// Store returns the annotation state store.
func (a *Annotator) Store() *annotation.Store {
	return a.store
}

// Sequence returns the loaded image sequence.
func (a *Annotator) Sequence() *sequence.Loader {
	return a.loader
}

// AddPositivePoint adds a positive point to the current object.
func (a *Annotator) AddPositivePoint(pt types.Point) {
	a.store.AddPoint(annotation.Positive, pt)
}

// AddNegativePoint adds a negative point to the current object.
func (a *Annotator) AddNegativePoint(pt types.Point) {
	a.store.AddPoint(annotation.Negative, pt)
}

// SwitchToNextObject moves annotation focus to the next object, creating a
// fresh one when already at the last.
func (a *Annotator) SwitchToNextObject() {
	a.store.SwitchToNext()
}

// AddNewObject appends a new object and switches to it, returning its index.
func (a *Annotator) AddNewObject() int {
	index := a.store.AddObject()
	// The index was just created, so the switch cannot fail.
	_ = a.store.SwitchTo(index)
	return index
}

// ClearCurrentObject removes all points from the current object.
func (a *Annotator) ClearCurrentObject() {
	a.store.ClearCurrent()
}

// ClearAllAnnotations clears every object and the cached result.
func (a *Annotator) ClearAllAnnotations() {
	a.store.ClearAll()
}

// RemoveCurrentObject deletes the current object.
func (a *Annotator) RemoveCurrentObject() {
	a.store.RemoveCurrent()
}

// HasAnnotations reports whether any object has points.
func (a *Annotator) HasAnnotations() bool {
	return a.store.HasAnnotations()
}

// Summary returns a one-line description of the session state.
func (a *Annotator) Summary() string {
	return a.store.Summary()
}

// RunSegmentation runs single-image segmentation on the bound reference
// image with the current annotation and caches the result.
func (a *Annotator) RunSegmentation(ctx context.Context) (*types.SegmentResult, error) {
	imagePath := a.store.ImagePath()
	if imagePath == "" {
		return nil, fmt.Errorf("no image bound to the annotation session")
	}
	if !utils.FileExists(imagePath) {
		return nil, fmt.Errorf("image file does not exist: %s", imagePath)
	}

	points, labels := a.store.PointsAndLabels()
	if len(points) == 0 {
		return nil, fmt.Errorf("no annotation points available")
	}

	res, err := a.engine.Segment(ctx, imagePath, points, labels)
	if err != nil {
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}
	a.store.SetResult(res)
	return res, nil
}

// ReadyForBatch reports whether a batch run can start: annotations exist,
// images are loaded, and no job is running.
func (a *Annotator) ReadyForBatch() bool {
	return a.store.HasAnnotations() && a.loader.Count() > 0 && !a.coord.Running()
}

// OutputDirs returns the output roots a batch over the loaded folder would
// write into.
func (a *Annotator) OutputDirs() layout.OutputDirs {
	return layout.Derive(a.loader.Folder())
}

// StartBatch freezes the current annotation into its balanced form and
// launches one batch job over the loaded folder. Progress and completion
// arrive on Events.
func (a *Annotator) StartBatch() (*batch.Job, error) {
	if !a.store.HasAnnotations() {
		return nil, fmt.Errorf("%w: no annotation points", batch.ErrNotReady)
	}

	balanced := annotation.Balance(a.store.Objects())
	dirs := layout.Derive(a.loader.Folder())
	persister := output.NewPersisterWithConfig(dirs, output.Config{
		Format:   a.cfg.Output.Format,
		Quality:  a.cfg.Output.Quality,
		Lossless: a.cfg.Output.Lossless,
	})
	return a.coord.Start(a.loader, balanced, dirs, persister)
}

// StopBatch requests cooperative cancellation of the active batch job.
func (a *Annotator) StopBatch() {
	a.coord.Stop()
}

// Events returns the batch notification channel.
func (a *Annotator) Events() <-chan batch.Event {
	return a.coord.Events()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
