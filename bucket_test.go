package venuebed

import (
	"math"
	"slices"
	"testing"
)

func TestBucketFor(t *testing.T) {
	tests := []struct {
		lat, lng float64
		want     BucketKey
	}{
		{lat: 0.005, lng: 0.015, want: BucketKey{X: 1, Y: 0}},
		{lat: -0.0001, lng: -0.0001, want: BucketKey{X: -1, Y: -1}},
		{lat: 40.7051, lng: -73.9001, want: BucketKey{X: -7391, Y: 4070}},
	}
	for _, tt := range tests {
		if got := bucketFor(tt.lat, tt.lng, 0.01); got != tt.want {
			t.Errorf("bucketFor(%v, %v) = %+v, want %+v", tt.lat, tt.lng, got, tt.want)
		}
	}
}

func TestDistanceMeters(t *testing.T) {
	a := venueAt("a", "", "", 40.7, -73.9)
	lat, lng := offsetMeters(40.7, -73.9, 30, 40)
	b := venueAt("b", "", "", lat, lng)
	if d := distanceMeters(a, b); math.Abs(d-50) > 0.1 {
		t.Errorf("distance = %v, want about 50", d)
	}
}

func TestSpatialIndexInsert(t *testing.T) {
	ix := NewSpatialIndex(0.01)
	if ix.Insert(venueAddr("x", "No Coordinate", "", "")) {
		t.Error("Insert accepted a venue without a coordinate")
	}
	if !ix.Insert(venueAt("a", "A", "", 40.7, -73.9)) {
		t.Error("Insert rejected a venue with a coordinate")
	}
	if ix.Len() != 1 {
		t.Errorf("Len = %d, want 1", ix.Len())
	}
}

func TestSpatialIndexNeighbors(t *testing.T) {
	ix := BuildIndex([]Venue{
		venueAt("here", "", "", 40.7005, -73.9005),
		venueAt("adjacent", "", "", 40.7105, -73.8905),
		venueAt("two-away", "", "", 40.7205, -73.9005),
		venueAt("west", "", "", 40.7005, -73.9105),
	}, 0.01)
	got := ids(ix.Neighbors(40.7005, -73.9005, 0))
	if want := []string{"here", "adjacent", "west"}; !slices.Equal(got, want) {
		t.Errorf("Neighbors = %v, want %v", got, want)
	}
}

func TestSpatialIndexNeighborsEastWest(t *testing.T) {
	lat, lng := 40.7, -73.9000001
	elat, elng := offsetMeters(lat, lng, 0, 50)
	ix := BuildIndex([]Venue{venueAt("east", "", "", elat, elng)}, 0.0005)
	if a, b := bucketFor(lat, lng, 0.0005), bucketFor(elat, elng, 0.0005); b.X-a.X != 2 {
		t.Fatalf("buckets %+v and %+v are not two columns apart", a, b)
	}
	if got := ids(ix.Neighbors(lat, lng, 55)); !slices.Equal(got, []string{"east"}) {
		t.Errorf("Neighbors within 55m = %v, want [east]", got)
	}
}

func TestRingWidths(t *testing.T) {
	ix := NewSpatialIndex(0.0005)
	tests := []struct {
		lat, meters float64
		dx, dy      int64
	}{
		{lat: 0, meters: 55, dx: 1, dy: 1},
		{lat: 40.7, meters: 55, dx: 2, dy: 1},
		{lat: -40.7, meters: 55, dx: 2, dy: 1},
		{lat: 70, meters: 55, dx: 3, dy: 1},
		{lat: 40.7, meters: 120, dx: 3, dy: 3},
		{lat: 40.7, meters: 0, dx: 1, dy: 1},
	}
	for _, tt := range tests {
		dx, dy := ix.ringWidths(tt.lat, tt.meters)
		if dx != tt.dx || dy != tt.dy {
			t.Errorf("ringWidths(%v, %v) = %d, %d, want %d, %d", tt.lat, tt.meters, dx, dy, tt.dx, tt.dy)
		}
	}
}

func TestSpatialIndexQuery(t *testing.T) {
	dup := venueAt("dup", "", "", 40.7005, -73.9005)
	ix := BuildIndex([]Venue{
		dup,
		venueAt("near", "", "", 40.7095, -73.9095),
		dup,
		venueAt("far", "", "", 41.5, -72.0),
	}, 0.01)

	vp := Viewport{CenterLat: 40.705, CenterLng: -73.905, LatSpan: 0.01, LngSpan: 0.01}
	if got := ids(ix.Query(vp, 1.3)); !slices.Equal(got, []string{"dup", "near"}) {
		t.Errorf("Query = %v, want [dup near]", got)
	}

	wide := Viewport{CenterLat: 41, CenterLng: -73, LatSpan: 4, LngSpan: 4}
	if got := ids(ix.Query(wide, 1.3)); !slices.Equal(got, []string{"dup", "near", "far"}) {
		t.Errorf("wide Query = %v, want [dup near far]", got)
	}

	if got := NewSpatialIndex(0.01).Query(vp, 1.3); got != nil {
		t.Errorf("empty index Query = %v", got)
	}
}
