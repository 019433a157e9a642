package dataset

import (
	"github.com/dhconnelly/rtreego"

	"github.com/mirrorhq/infrascene/internal/geo"
)

// rtreego requires non-zero rect dimensions; degenerate (point)
// features get a ~11m box.
const rectEpsilon = 0.0001

// Index answers nearest-feature queries over one collection.
type Index struct {
	tree *rtreego.Rtree
}

type indexedFeature struct {
	feature *geo.Feature
	bounds  geo.Bounds
}

// Bounds implements the rtreego.Spatial interface.
func (f *indexedFeature) Bounds() rtreego.Rect {
	lonLen := f.bounds.MaxLon - f.bounds.MinLon
	latLen := f.bounds.MaxLat - f.bounds.MinLat

	if lonLen < rectEpsilon {
		lonLen = rectEpsilon
	}
	if latLen < rectEpsilon {
		latLen = rectEpsilon
	}

	rect, _ := rtreego.NewRect(
		rtreego.Point{f.bounds.MinLon, f.bounds.MinLat},
		[]float64{lonLen, latLen},
	)
	return rect
}

// NewIndex builds a spatial index over a collection. Features without
// usable geometry are skipped.
func NewIndex(fc *geo.FeatureCollection) *Index {
	tree := rtreego.NewTree(2, 25, 50)

	for i := range fc.Features {
		f := &fc.Features[i]
		b, ok := f.Geometry.Bounds()
		if !ok {
			continue
		}
		tree.Insert(&indexedFeature{feature: f, bounds: b})
	}

	return &Index{tree: tree}
}

// Nearest returns the feature whose bounding box is closest to the
// given coordinate.
func (x *Index) Nearest(loc geo.LonLat) (*geo.Feature, bool) {
	if x.tree.Size() == 0 {
		return nil, false
	}

	res := x.tree.NearestNeighbor(rtreego.Point{loc.Lon, loc.Lat})
	if res == nil {
		return nil, false
	}

	return res.(*indexedFeature).feature, true
}
