// Package annotation holds the in-memory annotation session state: a list
// of annotated objects, each defined by positive and negative point prompts,
// and the transform that prepares those points for the segmentation engine.
package annotation

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/menta2k/sam-annotator/pkg/types"
)

// ErrInvalidIndex is returned when an operation references an object index
// outside the current object list. The store never mutates on this error.
var ErrInvalidIndex = errors.New("invalid object index")

// Sign marks a point as indicating presence or absence of the object.
type Sign int

const (
	Negative Sign = 0
	Positive Sign = 1
)

// Object holds the point prompts of one annotated object. Object identity
// is its position in the store's list, used as the class id downstream.
type Object struct {
	Positive []types.Point
	Negative []types.Point
}

// PointCount returns the total number of points on the object.
func (o Object) PointCount() int {
	return len(o.Positive) + len(o.Negative)
}

// Empty reports whether the object has no points.
func (o Object) Empty() bool {
	return o.PointCount() == 0
}

func (o Object) clone() Object {
	c := Object{}
	if len(o.Positive) > 0 {
		c.Positive = append([]types.Point(nil), o.Positive...)
	}
	if len(o.Negative) > 0 {
		c.Negative = append([]types.Point(nil), o.Negative...)
	}
	return c
}

// Store manages the annotation state for a multi-object session: the object
// list, the index of the object being annotated, the bound image, and the
// last single-image segmentation result. All operations are synchronous and
// in-memory only.
type Store struct {
	objects   []Object
	current   int
	imagePath string
	result    *types.SegmentResult
}

// NewStore creates an empty annotation store.
func NewStore() *Store {
	return &Store{}
}

// AddObject appends a new empty object and returns its index.
func (s *Store) AddObject() int {
	s.objects = append(s.objects, Object{})
	return len(s.objects) - 1
}

// ensureCurrent repairs the current-object pointer: creates an object when
// the list is empty, clamps the index when it points past the end.
func (s *Store) ensureCurrent() {
	if len(s.objects) == 0 {
		s.AddObject()
	} else if s.current >= len(s.objects) {
		s.current = len(s.objects) - 1
	}
}

// AddPoint appends a point to the current object, creating it first if the
// store is empty.
func (s *Store) AddPoint(sign Sign, pt types.Point) {
	s.ensureCurrent()
	s.appendPoint(s.current, sign, pt)
}

// AddPointAt appends a point to the object at an explicit index. An
// out-of-range index is logged and returned as ErrInvalidIndex without
// touching any object's points.
func (s *Store) AddPointAt(index int, sign Sign, pt types.Point) error {
	s.ensureCurrent()
	if index < 0 || index >= len(s.objects) {
		log.Warn().Int("index", index).Int("objects", len(s.objects)).Msg("Invalid object index")
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	s.appendPoint(index, sign, pt)
	return nil
}

func (s *Store) appendPoint(index int, sign Sign, pt types.Point) {
	if sign == Positive {
		s.objects[index].Positive = append(s.objects[index].Positive, pt)
	} else {
		s.objects[index].Negative = append(s.objects[index].Negative, pt)
	}
}

// SwitchToNext advances to the next object. Switching from the last object
// appends a fresh empty object and moves into it rather than wrapping to
// the first.
func (s *Store) SwitchToNext() {
	if s.current >= len(s.objects)-1 {
		s.AddObject()
	}
	s.current = (s.current + 1) % len(s.objects)
}

// SwitchTo sets the current object index. An out-of-range index is logged
// and returned as ErrInvalidIndex; the current index is unchanged.
func (s *Store) SwitchTo(index int) error {
	if index < 0 || index >= len(s.objects) {
		log.Warn().Int("index", index).Int("objects", len(s.objects)).Msg("Invalid object index")
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	s.current = index
	return nil
}

// ClearCurrent removes all points from the current object. The object
// itself survives.
func (s *Store) ClearCurrent() {
	s.ensureCurrent()
	s.objects[s.current] = Object{}
}

// ClearAll empties the object list, resets the current index, and drops any
// cached segmentation result. Objects are only recreated on demand.
func (s *Store) ClearAll() {
	s.objects = nil
	s.current = 0
	s.result = nil
}

// RemoveCurrent deletes the current object. When the deleted index was the
// last one, the current index moves to the new last object, or back to 0 if
// the list is now empty.
func (s *Store) RemoveCurrent() {
	if s.current < 0 || s.current >= len(s.objects) {
		return
	}
	s.objects = append(s.objects[:s.current], s.objects[s.current+1:]...)
	if len(s.objects) == 0 {
		s.current = 0
	} else if s.current >= len(s.objects) {
		s.current = len(s.objects) - 1
	}
}

// PointsAndLabels returns, for every object with at least one point, its
// points as positive followed by negative, with a parallel label list of a
// 1-run followed by a 0-run. Objects without points are skipped; object
// order is preserved.
func (s *Store) PointsAndLabels() ([][]types.Point, [][]int) {
	var points [][]types.Point
	var labels [][]int
	for _, obj := range s.objects {
		if obj.Empty() {
			continue
		}
		pts := make([]types.Point, 0, obj.PointCount())
		pts = append(pts, obj.Positive...)
		pts = append(pts, obj.Negative...)
		lbl := make([]int, 0, obj.PointCount())
		for range obj.Positive {
			lbl = append(lbl, 1)
		}
		for range obj.Negative {
			lbl = append(lbl, 0)
		}
		points = append(points, pts)
		labels = append(labels, lbl)
	}
	return points, labels
}

// HasAnnotations reports whether any object has at least one point.
func (s *Store) HasAnnotations() bool {
	for _, obj := range s.objects {
		if !obj.Empty() {
			return true
		}
	}
	return false
}

// ObjectCount returns the number of objects, including empty ones.
func (s *Store) ObjectCount() int {
	return len(s.objects)
}

// CurrentIndex returns the index of the object being annotated.
func (s *Store) CurrentIndex() int {
	return s.current
}

// CurrentObject returns a copy of the current object's points, creating the
// object first if the store is empty.
func (s *Store) CurrentObject() Object {
	s.ensureCurrent()
	return s.objects[s.current].clone()
}

// Objects returns a deep copy of the object list, safe to hand to a batch
// worker while interactive editing continues.
func (s *Store) Objects() []Object {
	out := make([]Object, len(s.objects))
	for i, obj := range s.objects {
		out[i] = obj.clone()
	}
	return out
}

// SetImagePath binds the reference image the session annotates.
func (s *Store) SetImagePath(path string) {
	s.imagePath = path
}

// ImagePath returns the bound reference image path, or "" if none.
func (s *Store) ImagePath() string {
	return s.imagePath
}

// SetResult caches the latest single-image segmentation result.
func (s *Store) SetResult(res *types.SegmentResult) {
	s.result = res
}

// Result returns the cached single-image result, or nil.
func (s *Store) Result() *types.SegmentResult {
	return s.result
}

// Summary returns a one-line description of the session state.
func (s *Store) Summary() string {
	var pos, neg int
	for _, obj := range s.objects {
		pos += len(obj.Positive)
		neg += len(obj.Negative)
	}
	return fmt.Sprintf("Objects: %d, Current: %d, Total points: %d (+%d, -%d)",
		len(s.objects), s.current+1, pos+neg, pos, neg)
}
