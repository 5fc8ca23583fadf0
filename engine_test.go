package venuebed

import (
	"errors"
	"strings"
	"testing"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type EngineSuite struct {
	e *Engine
}

var _ = Suite(&EngineSuite{})

func (s *EngineSuite) SetUpSuite(c *C) {
	var err error
	s.e, err = NewEngine()
	c.Assert(err, IsNil)
}

func (s *EngineSuite) TestDefaults(c *C) {
	cfg := s.e.Config()
	c.Assert(cfg.DuplicateDistanceMeters, Equals, 55.0)
	c.Assert(cfg.LegacyConflictMeters, Equals, 65.0)
	c.Assert(cfg.DedupBucketDegrees, Equals, 0.0005)
	c.Assert(cfg.TopN, Equals, 5)
	c.Assert(cfg.FallbackCap, Equals, 20)
	c.Assert(cfg.Logger, NotNil)
	c.Assert(s.e.Tables(), NotNil)
	c.Assert(s.e.Classifier(), NotNil)
}

func (s *EngineSuite) TestEmbeddedTables(c *C) {
	t := s.e.Tables()
	c.Assert(t.PostalPrefixes, HasLen, 15)
	c.Assert(t.PostalPrefixes["112"], Equals, RegionBrooklyn)
	c.Assert(t.Boxes, HasLen, 5)
	c.Assert(t.FallbackBox, NotNil)
	c.Assert(t.FallbackBox.Region, Equals, RegionLongIsland)
	for _, r := range NamedRegions() {
		c.Assert(t.Curated[r], HasLen, 5, Commentf("region %s", r))
	}
	c.Assert(len(t.ClosedNames) > 0, Equals, true)
}

func (s *EngineSuite) TestInvalidOptions(c *C) {
	for _, opt := range []Option{
		WithTopN(0),
		WithFallbackCap(3),
		WithDuplicateDistance(-1),
		WithLegacyConflictDistance(0),
		WithDedupBucket(0),
		WithLegacySource("  "),
	} {
		e, err := NewEngine(opt)
		c.Assert(e, IsNil)
		c.Assert(errors.Is(err, ErrInvalidConfig), Equals, true, Commentf("err = %v", err))
	}
}

func (s *EngineSuite) TestOptionsApplied(c *C) {
	e, err := NewEngine(WithTopN(3), WithFallbackCap(10), WithLegacySource("OpenStreetMap"))
	c.Assert(err, IsNil)
	c.Assert(e.Config().TopN, Equals, 3)
	c.Assert(e.Config().FallbackCap, Equals, 10)
	c.Assert(e.isLegacy(Venue{Source: "osm"}), Equals, true)
	c.Assert(e.isLegacy(Venue{Source: "yelp"}), Equals, false)
}

func (s *EngineSuite) TestDefaultEngineShared(c *C) {
	a, err := GetDefaultEngine()
	c.Assert(err, IsNil)
	b, err := GetDefaultEngine()
	c.Assert(err, IsNil)
	c.Assert(a == b, Equals, true)
}

func (s *EngineSuite) TestWithTables(c *C) {
	t, err := LoadTables(strings.NewReader(`
postal_prefixes:
  "070": manhattan
boxes:
  - {region: queens, south: 40.0, west: -75.0, north: 41.0, east: -74.0}
curated:
  queens: ["Somewhere Else"]
`))
	c.Assert(err, IsNil)
	e, err := NewEngine(WithTables(t))
	c.Assert(err, IsNil)

	r, ok := e.RegionFor(venueAddr("1", "x", "", "Newark, NJ 07030"))
	c.Assert(ok, Equals, true)
	c.Assert(r, Equals, RegionManhattan)

	r, ok = e.RegionFor(venueAt("2", "x", "", 40.5, -74.5))
	c.Assert(ok, Equals, true)
	c.Assert(r, Equals, RegionQueens)
	c.Assert(e.Matches(venueAt("3", "x", "", 40.7580, -73.9855), RegionManhattan), Equals, false)
}

func (s *EngineSuite) TestLoadTablesRejects(c *C) {
	for _, doc := range []string{
		`postal_prefixes: {"10": manhattan}`,
		`postal_prefixes: {"100": all}`,
		`postal_prefixes: {"100": jersey}`,
		`keywords: [{keyword: "", region: queens}]`,
		`boxes: [{region: queens, south: 41, west: -74, north: 40, east: -73}]`,
		`boxes: [{region: queens, south: 40, west: -200, north: 41, east: -73}]`,
		`curated: {all: ["x"]}`,
	} {
		_, err := LoadTables(strings.NewReader(doc))
		c.Assert(errors.Is(err, ErrInvalidTables), Equals, true, Commentf("doc %q: %v", doc, err))
	}

	_, err := LoadTables(strings.NewReader("postal_prefixes: [1, 2"))
	c.Assert(err, ErrorMatches, "parsing tables: .*")
}
