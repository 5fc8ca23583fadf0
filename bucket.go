package venuebed

import (
	"math"
	"slices"

	"github.com/golang/geo/s2"
)

// earthRadiusMeters is the mean Earth radius used to turn s2 angles into
// ground distance.
const earthRadiusMeters = 6_371_008.8

// distanceMeters returns the great-circle distance between two venues. Both
// must have coordinates.
func distanceMeters(a, b Venue) float64 {
	la := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	lb := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return la.Distance(lb).Radians() * earthRadiusMeters
}

// BucketKey identifies one grid cell: X is the longitude column, Y the
// latitude row.
type BucketKey struct {
	X, Y int64
}

func bucketFor(lat, lng, span float64) BucketKey {
	return BucketKey{
		X: int64(math.Floor(lng / span)),
		Y: int64(math.Floor(lat / span)),
	}
}

// SpatialIndex groups venues into fixed-size coordinate cells. Venues
// without a coordinate are kept out of the index.
type SpatialIndex struct {
	span    float64
	venues  []Venue
	buckets map[BucketKey][]int
}

// NewSpatialIndex returns an empty index with cells of span degrees.
func NewSpatialIndex(span float64) *SpatialIndex {
	return &SpatialIndex{span: span, buckets: make(map[BucketKey][]int)}
}

// BuildIndex indexes venues into cells of cellSpanDegrees.
func BuildIndex(venues []Venue, cellSpanDegrees float64) *SpatialIndex {
	ix := NewSpatialIndex(cellSpanDegrees)
	for _, v := range venues {
		ix.Insert(v)
	}
	return ix
}

// Insert adds v to the index. It reports false if v has no coordinate.
func (ix *SpatialIndex) Insert(v Venue) bool {
	if !v.HasCoordinate() {
		return false
	}
	key := bucketFor(v.Latitude, v.Longitude, ix.span)
	ix.buckets[key] = append(ix.buckets[key], len(ix.venues))
	ix.venues = append(ix.venues, v)
	return true
}

// Len returns the number of indexed venues.
func (ix *SpatialIndex) Len() int { return len(ix.venues) }

// metersPerDegree is the ground length of one degree of latitude.
const metersPerDegree = earthRadiusMeters * math.Pi / 180

// ringWidths returns how many cells around the center cell must be visited,
// per axis, so that no venue within radiusMeters of a point at lat is
// missed. Longitude cells shrink with latitude, so the X ring is sized at
// the poleward edge of the radius. At least one ring is always walked.
func (ix *SpatialIndex) ringWidths(lat, radiusMeters float64) (dx, dy int64) {
	cellHeight := ix.span * metersPerDegree
	dy = max(1, int64(math.Ceil(radiusMeters/cellHeight)))

	edge := math.Min(90, math.Abs(lat)+radiusMeters/metersPerDegree)
	cellWidth := cellHeight * math.Cos(edge*math.Pi/180)
	full := int64(math.Ceil(360 / ix.span))
	if cellWidth <= 0 {
		return full, dy
	}
	dx = max(1, min(full, int64(math.Ceil(radiusMeters/cellWidth))))
	return dx, dy
}

// Neighbors returns the venues in the cells that can hold a point within
// radiusMeters of (lat, lng), in insertion order. A non-positive radius
// walks the cell and the eight cells around it. Callers still check the
// exact distance.
func (ix *SpatialIndex) Neighbors(lat, lng, radiusMeters float64) []Venue {
	center := bucketFor(lat, lng, ix.span)
	dx, dy := ix.ringWidths(lat, radiusMeters)
	var idx []int
	for x := center.X - dx; x <= center.X+dx; x++ {
		for y := center.Y - dy; y <= center.Y+dy; y++ {
			idx = append(idx, ix.buckets[BucketKey{X: x, Y: y}]...)
		}
	}
	slices.Sort(idx)
	out := make([]Venue, len(idx))
	for i, j := range idx {
		out[i] = ix.venues[j]
	}
	return out
}

// Query returns the venues in every cell touched by vp grown by
// paddingFactor on each axis. Results are unique by ID and in insertion
// order; they may lie outside the padded box, callers filter exactly.
func (ix *SpatialIndex) Query(vp Viewport, paddingFactor float64) []Venue {
	if len(ix.venues) == 0 {
		return nil
	}
	b := vp.Padded(paddingFactor)
	lo := bucketFor(b.Bottom(), b.Left(), ix.span)
	hi := bucketFor(b.Top(), b.Right(), ix.span)

	var idx []int
	cells := (hi.X - lo.X + 1) * (hi.Y - lo.Y + 1)
	if cells > int64(len(ix.buckets)) {
		// Wide viewport over a sparse grid: walk the occupied cells instead.
		for key, members := range ix.buckets {
			if key.X >= lo.X && key.X <= hi.X && key.Y >= lo.Y && key.Y <= hi.Y {
				idx = append(idx, members...)
			}
		}
	} else {
		for x := lo.X; x <= hi.X; x++ {
			for y := lo.Y; y <= hi.Y; y++ {
				idx = append(idx, ix.buckets[BucketKey{X: x, Y: y}]...)
			}
		}
	}
	slices.Sort(idx)

	seen := make(map[string]struct{}, len(idx))
	out := make([]Venue, 0, len(idx))
	for _, j := range idx {
		v := ix.venues[j]
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		out = append(out, v)
	}
	return out
}
