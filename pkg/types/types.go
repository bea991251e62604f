package types

// Point is an integer (x, y) pixel coordinate on the annotated image.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MaskRecord is one mask prediction returned by the segmentation engine.
// The label line encoding is owned by the engine's serializer; it is written
// to label files verbatim.
type MaskRecord struct {
	ClassID    int          `json:"class_id"`
	Confidence float64      `json:"confidence"`
	Contour    [][2]float64 `json:"contour"`
	LabelLine  string       `json:"label_line"`
}

// SegmentResult contains the engine output for one image.
type SegmentResult struct {
	ImagePath string       `json:"image_path"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Masks     []MaskRecord `json:"masks"`

	// Annotated is an optional pre-rendered prediction image (PNG bytes).
	// When absent, callers render their own overlay from the contours.
	Annotated []byte `json:"-"`
}

// BalancedAnnotation holds per-object point and label arrays padded to a
// common length, the shape the engine's multi-object call expects. Labels
// are 1 for points that originated as positive and 0 for negative.
type BalancedAnnotation struct {
	Points [][]Point
	Labels [][]int
}

// Empty reports whether no objects survived balancing.
func (b BalancedAnnotation) Empty() bool {
	return len(b.Points) == 0
}

// ObjectCount returns the number of balanced objects.
func (b BalancedAnnotation) ObjectCount() int {
	return len(b.Points)
}
