package annotation

import (
	"errors"
	"testing"

	"github.com/menta2k/sam-annotator/pkg/types"
)

func pt(x, y int) types.Point {
	return types.Point{X: x, Y: y}
}

func TestNewStore(t *testing.T) {
	s := NewStore()
	if s.ObjectCount() != 0 {
		t.Errorf("Expected empty store, got %d objects", s.ObjectCount())
	}
	if s.HasAnnotations() {
		t.Error("Empty store should have no annotations")
	}
	if s.CurrentIndex() != 0 {
		t.Errorf("Expected current index 0, got %d", s.CurrentIndex())
	}
}

func TestAddPointCreatesObjectOnDemand(t *testing.T) {
	s := NewStore()
	s.AddPoint(Positive, pt(10, 20))

	if s.ObjectCount() != 1 {
		t.Fatalf("Expected 1 object after first point, got %d", s.ObjectCount())
	}
	obj := s.CurrentObject()
	if len(obj.Positive) != 1 || obj.Positive[0] != pt(10, 20) {
		t.Errorf("Unexpected positive points: %v", obj.Positive)
	}
}

func TestPointsAndLabelsOrdering(t *testing.T) {
	s := NewStore()
	// Interleave signs; positives must still come first in the output.
	s.AddPoint(Positive, pt(1, 1))
	s.AddPoint(Negative, pt(2, 2))
	s.AddPoint(Positive, pt(3, 3))
	s.AddPoint(Negative, pt(4, 4))
	s.AddPoint(Positive, pt(5, 5))

	points, labels := s.PointsAndLabels()
	if len(points) != 1 || len(labels) != 1 {
		t.Fatalf("Expected 1 object, got %d points lists and %d label lists", len(points), len(labels))
	}
	if len(points[0]) != 5 || len(labels[0]) != 5 {
		t.Fatalf("Expected 5 points and labels, got %d and %d", len(points[0]), len(labels[0]))
	}

	ones := 0
	seenZero := false
	for _, l := range labels[0] {
		if l == 1 {
			if seenZero {
				t.Fatalf("Label 1 after label 0: %v", labels[0])
			}
			ones++
		} else {
			seenZero = true
		}
	}
	if ones != 3 {
		t.Errorf("Expected 3 positive labels, got %d", ones)
	}

	want := []types.Point{pt(1, 1), pt(3, 3), pt(5, 5), pt(2, 2), pt(4, 4)}
	for i, p := range points[0] {
		if p != want[i] {
			t.Errorf("Point %d: expected %v, got %v", i, want[i], p)
		}
	}
}

func TestPointsAndLabelsSkipsEmptyObjects(t *testing.T) {
	s := NewStore()
	s.AddPoint(Positive, pt(1, 1))
	s.AddObject()
	s.SwitchToNext()
	s.AddPoint(Negative, pt(2, 2))
	s.SwitchToNext() // leaves a trailing empty object

	points, labels := s.PointsAndLabels()
	if len(points) != 2 {
		t.Fatalf("Expected 2 non-empty objects, got %d", len(points))
	}
	if labels[0][0] != 1 || labels[1][0] != 0 {
		t.Errorf("Unexpected labels: %v", labels)
	}
}

func TestAddPointAtInvalidIndex(t *testing.T) {
	s := NewStore()
	s.AddPoint(Positive, pt(1, 1))

	err := s.AddPointAt(5, Positive, pt(9, 9))
	if !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("Expected ErrInvalidIndex, got %v", err)
	}
	obj := s.CurrentObject()
	if len(obj.Positive) != 1 {
		t.Errorf("Invalid index must not mutate points, got %v", obj.Positive)
	}
}

func TestAddPointAtExplicitIndex(t *testing.T) {
	s := NewStore()
	s.AddObject()
	s.AddObject()

	if err := s.AddPointAt(1, Negative, pt(7, 8)); err != nil {
		t.Fatalf("AddPointAt failed: %v", err)
	}
	objs := s.Objects()
	if len(objs[1].Negative) != 1 || len(objs[0].Negative) != 0 {
		t.Errorf("Point landed on wrong object: %+v", objs)
	}
}

func TestSwitchToNextAppendsAtEnd(t *testing.T) {
	s := NewStore()
	s.AddPoint(Positive, pt(1, 1))

	before := s.ObjectCount()
	s.SwitchToNext()
	if s.ObjectCount() != before+1 {
		t.Errorf("Expected object count %d, got %d", before+1, s.ObjectCount())
	}
	if s.CurrentIndex() != before {
		t.Errorf("Expected current index %d, got %d", before, s.CurrentIndex())
	}
	if !s.CurrentObject().Empty() {
		t.Error("Freshly appended object should be empty")
	}

	// From the new last index it must append again, never wrap.
	s.SwitchToNext()
	if s.ObjectCount() != before+2 || s.CurrentIndex() != before+1 {
		t.Errorf("Expected count %d and index %d, got %d and %d",
			before+2, before+1, s.ObjectCount(), s.CurrentIndex())
	}
}

func TestSwitchToNextFromMiddle(t *testing.T) {
	s := NewStore()
	s.AddObject()
	s.AddObject()
	s.AddObject()
	if err := s.SwitchTo(0); err != nil {
		t.Fatalf("SwitchTo failed: %v", err)
	}

	s.SwitchToNext()
	if s.ObjectCount() != 3 {
		t.Errorf("Switching from the middle must not append, got %d objects", s.ObjectCount())
	}
	if s.CurrentIndex() != 1 {
		t.Errorf("Expected current index 1, got %d", s.CurrentIndex())
	}
}

func TestSwitchToInvalidIndex(t *testing.T) {
	s := NewStore()
	s.AddObject()

	if err := s.SwitchTo(3); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("Expected ErrInvalidIndex, got %v", err)
	}
	if s.CurrentIndex() != 0 {
		t.Errorf("Failed switch must not move the index, got %d", s.CurrentIndex())
	}
}

func TestClearCurrent(t *testing.T) {
	s := NewStore()
	s.AddPoint(Positive, pt(1, 1))
	s.AddPoint(Negative, pt(2, 2))

	s.ClearCurrent()
	if s.ObjectCount() != 1 {
		t.Errorf("ClearCurrent must keep the object, got %d objects", s.ObjectCount())
	}
	if !s.CurrentObject().Empty() {
		t.Errorf("Expected cleared object, got %+v", s.CurrentObject())
	}
}

func TestClearAll(t *testing.T) {
	s := NewStore()
	s.AddPoint(Positive, pt(1, 1))
	s.SwitchToNext()
	s.AddPoint(Negative, pt(2, 2))
	s.SetResult(&types.SegmentResult{ImagePath: "a.jpg"})

	s.ClearAll()
	if s.ObjectCount() != 0 {
		t.Errorf("Expected empty object list, got %d objects", s.ObjectCount())
	}
	if s.HasAnnotations() {
		t.Error("HasAnnotations must be false after ClearAll")
	}
	if s.CurrentIndex() != 0 {
		t.Errorf("Expected current index 0, got %d", s.CurrentIndex())
	}
	if s.Result() != nil {
		t.Error("ClearAll must drop the cached result")
	}
}

func TestRemoveCurrent(t *testing.T) {
	s := NewStore()
	s.AddPoint(Positive, pt(1, 1))
	s.SwitchToNext()
	s.AddPoint(Positive, pt(2, 2))

	// Current is the last index; removal clamps to the new last.
	s.RemoveCurrent()
	if s.ObjectCount() != 1 {
		t.Fatalf("Expected 1 object, got %d", s.ObjectCount())
	}
	if s.CurrentIndex() != 0 {
		t.Errorf("Expected current index 0, got %d", s.CurrentIndex())
	}

	s.RemoveCurrent()
	if s.ObjectCount() != 0 || s.CurrentIndex() != 0 {
		t.Errorf("Expected empty store with index 0, got %d objects, index %d",
			s.ObjectCount(), s.CurrentIndex())
	}

	// Removing from an empty store is a no-op.
	s.RemoveCurrent()
	if s.ObjectCount() != 0 {
		t.Errorf("RemoveCurrent on empty store appended objects: %d", s.ObjectCount())
	}
}

func TestObjectsReturnsDeepCopy(t *testing.T) {
	s := NewStore()
	s.AddPoint(Positive, pt(1, 1))

	snapshot := s.Objects()
	s.AddPoint(Positive, pt(2, 2))
	if len(snapshot[0].Positive) != 1 {
		t.Error("Snapshot must not observe later edits")
	}

	snapshot[0].Positive[0] = pt(99, 99)
	if s.CurrentObject().Positive[0] != pt(1, 1) {
		t.Error("Mutating the snapshot must not affect the store")
	}
}

func TestSummary(t *testing.T) {
	s := NewStore()
	s.AddPoint(Positive, pt(1, 1))
	s.AddPoint(Negative, pt(2, 2))

	want := "Objects: 1, Current: 1, Total points: 2 (+1, -1)"
	if got := s.Summary(); got != want {
		t.Errorf("Summary: expected %q, got %q", want, got)
	}
}
