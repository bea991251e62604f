package annotation

import (
	"testing"

	"github.com/menta2k/sam-annotator/pkg/types"
)

func objectWithPoints(positive, negative int) Object {
	obj := Object{}
	for i := 0; i < positive; i++ {
		obj.Positive = append(obj.Positive, pt(i, i))
	}
	for i := 0; i < negative; i++ {
		obj.Negative = append(obj.Negative, pt(100+i, 100+i))
	}
	return obj
}

func TestBalanceEmpty(t *testing.T) {
	b := Balance(nil)
	if !b.Empty() {
		t.Errorf("Expected empty result, got %d objects", b.ObjectCount())
	}

	b = Balance([]Object{{}, {}})
	if !b.Empty() {
		t.Errorf("Objects without points must be dropped, got %d objects", b.ObjectCount())
	}
}

func TestBalanceUniformLength(t *testing.T) {
	objects := []Object{
		objectWithPoints(2, 1), // 3 points
		objectWithPoints(1, 0), // 1 point
		objectWithPoints(3, 2), // 5 points
	}

	b := Balance(objects)
	if b.ObjectCount() != 3 {
		t.Fatalf("Expected 3 objects, got %d", b.ObjectCount())
	}
	for i := range b.Points {
		if len(b.Points[i]) != 5 {
			t.Errorf("Object %d: expected 5 points, got %d", i, len(b.Points[i]))
		}
		if len(b.Labels[i]) != 5 {
			t.Errorf("Object %d: expected 5 labels, got %d", i, len(b.Labels[i]))
		}
	}
}

func TestBalanceSinglePointObject(t *testing.T) {
	objects := []Object{
		objectWithPoints(1, 0),
		objectWithPoints(3, 2),
	}

	b := Balance(objects)
	single := b.Points[0]
	for i, p := range single {
		if p != pt(0, 0) {
			t.Errorf("Point %d: expected copy of the single point, got %v", i, p)
		}
	}
	for i, l := range b.Labels[0] {
		if l != 1 {
			t.Errorf("Label %d: expected 1, got %d", i, l)
		}
	}
}

func TestBalanceCyclicRepeat(t *testing.T) {
	// 3-point object padded to 5: the 3 originals followed by points 0 and 1
	// repeated in original order.
	objects := []Object{
		{Positive: []types.Point{pt(1, 1), pt(2, 2)}, Negative: []types.Point{pt(3, 3)}},
		objectWithPoints(5, 0),
	}

	b := Balance(objects)
	want := []types.Point{pt(1, 1), pt(2, 2), pt(3, 3), pt(1, 1), pt(2, 2)}
	for i, p := range b.Points[0] {
		if p != want[i] {
			t.Errorf("Point %d: expected %v, got %v", i, want[i], p)
		}
	}
	wantLabels := []int{1, 1, 0, 1, 1}
	for i, l := range b.Labels[0] {
		if l != wantLabels[i] {
			t.Errorf("Label %d: expected %d, got %d", i, wantLabels[i], l)
		}
	}
}

func TestBalancePreservesRetainedOrder(t *testing.T) {
	objects := []Object{
		objectWithPoints(1, 0),
		{}, // dropped
		objectWithPoints(0, 2),
	}

	b := Balance(objects)
	if b.ObjectCount() != 2 {
		t.Fatalf("Expected 2 retained objects, got %d", b.ObjectCount())
	}
	if b.Labels[0][0] != 1 {
		t.Errorf("First retained object should be the positive one, labels %v", b.Labels[0])
	}
	if b.Labels[1][0] != 0 {
		t.Errorf("Second retained object should be the negative one, labels %v", b.Labels[1])
	}
}

func TestBalanceDoesNotMutateInput(t *testing.T) {
	obj := objectWithPoints(2, 0)
	objects := []Object{obj, objectWithPoints(4, 0)}

	Balance(objects)
	if len(objects[0].Positive) != 2 {
		t.Errorf("Balance mutated its input: %d points", len(objects[0].Positive))
	}
}
