package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/menta2k/sam-annotator/pkg/types"
)

// ErrEngineUnavailable is returned when the segmentation engine cannot be
// reached or errors before yielding a result.
var ErrEngineUnavailable = errors.New("segmentation engine unavailable")

// FrameError reports an inference failure scoped to a single frame of a
// sequence call. The stream stays usable past it; consumers record the
// frame as failed and keep reading.
type FrameError struct {
	ImagePath string
	Message   string
}

func (e *FrameError) Error() string {
	if e.ImagePath != "" {
		return fmt.Sprintf("frame %s: %s", e.ImagePath, e.Message)
	}
	return e.Message
}

// Sequence is a pre-opened, ordered set of images handed to the engine's
// sequence-mode entry point. Read-only and single-consumer per batch job.
type Sequence interface {
	Folder() string
	Paths() []string
	Count() int
}

// ResultStream yields sequence-mode results one frame at a time, in the same
// order as the input sequence. Next returns io.EOF after the last frame and
// *FrameError when only the current frame's inference failed; any other
// error means the stream itself is broken.
type ResultStream interface {
	Next() (*types.SegmentResult, error)
	Close() error
}

// SegmentClient is the segmentation engine collaborator. Single-image and
// sequence calls are two distinct entry points selected explicitly by the
// caller; neither reads shared mode state.
type SegmentClient interface {
	// Segment runs point-prompted segmentation on one image. Points and
	// labels carry one list per object; lists need not be equal-length.
	Segment(ctx context.Context, imagePath string, points [][]types.Point, labels [][]int) (*types.SegmentResult, error)

	// SegmentSequence runs sequence-mode segmentation over every image in
	// seq with one fixed, balanced point/label configuration. Results are
	// streamed lazily, one per sequence position.
	SegmentSequence(ctx context.Context, seq Sequence, points [][]types.Point, labels [][]int) (ResultStream, error)
}
