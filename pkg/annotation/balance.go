package annotation

import (
	"github.com/menta2k/sam-annotator/pkg/types"
)

// Balance converts raw per-object point sets into the equal-length form the
// engine's multi-object sequence call requires: one point list and one label
// list per object, all of identical length.
//
// Objects without points are dropped. Each remaining object is padded to the
// maximum point count by repeating its own points cyclically in original
// order, then truncated to exactly that count. A single-point object becomes
// that many identical copies of its one point. Objects are processed
// independently, so the output order ties 1:1 with the retained input order.
func Balance(objects []Object) types.BalancedAnnotation {
	var balanced types.BalancedAnnotation

	var allPoints [][]types.Point
	var allLabels [][]int
	maxCount := 0
	for _, obj := range objects {
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
		allPoints = append(allPoints, pts)
		allLabels = append(allLabels, lbl)
		if len(pts) > maxCount {
			maxCount = len(pts)
		}
	}
	if len(allPoints) == 0 {
		return balanced
	}

	for i := range allPoints {
		balanced.Points = append(balanced.Points, padPoints(allPoints[i], maxCount))
		balanced.Labels = append(balanced.Labels, padLabels(allLabels[i], maxCount))
	}
	return balanced
}

func padPoints(pts []types.Point, target int) []types.Point {
	if len(pts) >= target {
		return pts[:target]
	}
	out := make([]types.Point, target)
	for i := 0; i < target; i++ {
		out[i] = pts[i%len(pts)]
	}
	return out
}

func padLabels(lbl []int, target int) []int {
	if len(lbl) >= target {
		return lbl[:target]
	}
	out := make([]int, target)
	for i := 0; i < target; i++ {
		out[i] = lbl[i%len(lbl)]
	}
	return out
}
