package venuebed

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTablesData []byte

// ErrInvalidTables is wrapped by every table validation failure.
var ErrInvalidTables = errors.New("invalid tables")

// Tables holds the static lookup data the engine reads but never writes.
type Tables struct {
	PostalPrefixes map[string]Region
	Keywords       []AddressKeyword
	Boxes          []RegionBox
	FallbackBox    *RegionBox
	Curated        CuratedNames
	ClosedNames    []string
}

// CuratedNames holds the editorially chosen venue names per region.
type CuratedNames map[Region][]string

// tablesFile mirrors tables.yaml.
type tablesFile struct {
	PostalPrefixes map[string]string   `yaml:"postal_prefixes"`
	Keywords       []keywordEntry      `yaml:"keywords"`
	Boxes          []boxEntry          `yaml:"boxes"`
	FallbackBox    *boxEntry           `yaml:"fallback_box"`
	Curated        map[string][]string `yaml:"curated"`
	ClosedNames    []string            `yaml:"closed_names"`
}

type keywordEntry struct {
	Keyword string   `yaml:"keyword"`
	Region  string   `yaml:"region"`
	Exclude []string `yaml:"exclude"`
}

type boxEntry struct {
	Region string  `yaml:"region"`
	South  float64 `yaml:"south"`
	West   float64 `yaml:"west"`
	North  float64 `yaml:"north"`
	East   float64 `yaml:"east"`
}

// DefaultTables returns the tables embedded in the package. Parsed once.
var DefaultTables = sync.OnceValues(func() (*Tables, error) {
	return parseTables(defaultTablesData)
})

// LoadTables reads tables in the tables.yaml format.
func LoadTables(r io.Reader) (*Tables, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading tables: %w", err)
	}
	return parseTables(data)
}

func parseTables(data []byte) (*Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tables: %w", err)
	}

	t := &Tables{
		PostalPrefixes: make(map[string]Region, len(f.PostalPrefixes)),
		Curated:        make(CuratedNames, len(f.Curated)),
		ClosedNames:    f.ClosedNames,
	}

	for prefix, key := range f.PostalPrefixes {
		if len(prefix) != 3 {
			return nil, fmt.Errorf("%w: postal prefix %q must have 3 digits", ErrInvalidTables, prefix)
		}
		r, err := parseNamedRegion(key)
		if err != nil {
			return nil, fmt.Errorf("%w: postal prefix %s: %v", ErrInvalidTables, prefix, err)
		}
		t.PostalPrefixes[prefix] = r
	}

	for i, kw := range f.Keywords {
		r, err := parseNamedRegion(kw.Region)
		if err != nil {
			return nil, fmt.Errorf("%w: keyword %d: %v", ErrInvalidTables, i, err)
		}
		kwLower := strings.ToLower(strings.TrimSpace(kw.Keyword))
		if kwLower == "" {
			return nil, fmt.Errorf("%w: keyword %d is empty", ErrInvalidTables, i)
		}
		exclude := make([]string, 0, len(kw.Exclude))
		for _, ex := range kw.Exclude {
			exclude = append(exclude, strings.ToLower(strings.TrimSpace(ex)))
		}
		t.Keywords = append(t.Keywords, AddressKeyword{Keyword: kwLower, Region: r, Exclude: exclude})
	}

	for i, b := range f.Boxes {
		box, err := b.toRegionBox()
		if err != nil {
			return nil, fmt.Errorf("%w: box %d: %v", ErrInvalidTables, i, err)
		}
		t.Boxes = append(t.Boxes, box)
	}
	if f.FallbackBox != nil {
		box, err := f.FallbackBox.toRegionBox()
		if err != nil {
			return nil, fmt.Errorf("%w: fallback box: %v", ErrInvalidTables, err)
		}
		t.FallbackBox = &box
	}

	for key, names := range f.Curated {
		r, err := parseNamedRegion(key)
		if err != nil {
			return nil, fmt.Errorf("%w: curated: %v", ErrInvalidTables, err)
		}
		t.Curated[r] = names
	}
	return t, nil
}

func (b boxEntry) toRegionBox() (RegionBox, error) {
	r, err := parseNamedRegion(b.Region)
	if err != nil {
		return RegionBox{}, err
	}
	if b.South >= b.North || b.West >= b.East {
		return RegionBox{}, fmt.Errorf("degenerate box for %s", b.Region)
	}
	if !validCoordinate(b.South, b.West) || !validCoordinate(b.North, b.East) {
		return RegionBox{}, fmt.Errorf("box for %s is out of range", b.Region)
	}
	return NewRegionBox(r, b.South, b.West, b.North, b.East), nil
}

// parseNamedRegion is ParseRegion restricted to real regions; RegionAll is
// an aggregate and cannot appear in geographic tables.
func parseNamedRegion(key string) (Region, error) {
	r, err := ParseRegion(key)
	if err != nil {
		return 0, err
	}
	if r == RegionAll {
		return 0, fmt.Errorf("region %q is not a named region", key)
	}
	return r, nil
}
