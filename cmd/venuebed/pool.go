package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/andreiashu/venuebed"
)

// poolFile is the on-disk venue pool. JSON files parse as YAML.
type poolFile struct {
	Source string            `yaml:"source"`
	Venues []venuebed.Record `yaml:"venues"`
}

// loadPool reads a pool file and builds its venues. Records without a source
// take the file's default.
func loadPool(path string) ([]venuebed.Venue, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading pool %s: %w", path, err)
	}
	var pf poolFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing pool %s: %w", path, err)
	}
	for i := range pf.Venues {
		if pf.Venues[i].Source == "" {
			pf.Venues[i].Source = pf.Source
		}
	}
	venues := venuebed.NewVenues(pf.Venues)
	state.log.Debug("Loaded pool",
		zap.String("path", path),
		zap.Int("records", len(pf.Venues)),
		zap.Int("venues", len(venues)),
	)
	return venues, nil
}
