package taxyear

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnknownYear is returned for a tax year with no parameter set.
var ErrUnknownYear = errors.New("unknown tax year")

// BundledYears lists the tax years compiled into the binary.
func BundledYears() []int {
	return []int{2025}
}

// Bundled returns a fresh copy of a compiled-in parameter set.
func Bundled(year int) (*Parameters, error) {
	switch year {
	case 2025:
		return y2025(), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownYear, year)
}

// Registry holds the parameter sets available to a process: the bundled years
// plus any override files. Entries are never modified after construction.
type Registry struct {
	years   map[int]*Parameters
	sources map[int]string
}

// NewRegistry loads the bundled years and then every *.yaml, *.yml and *.toml
// file in dir. A file for a bundled year replaces it. An empty dir or one that
// does not exist yields the bundled years only.
func NewRegistry(dir string) (*Registry, error) {
	r := &Registry{years: make(map[int]*Parameters), sources: make(map[int]string)}
	for _, y := range BundledYears() {
		p, err := Bundled(y)
		if err != nil {
			return nil, err
		}
		r.years[y] = p
		r.sources[y] = "bundled"
	}

	if dir == "" {
		return r, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".toml":
		default:
			continue
		}
		path := filepath.Join(dir, e.Name())
		p, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		r.years[p.Year] = p
		r.sources[p.Year] = path
	}
	return r, nil
}

// Get returns the parameter set for year.
func (r *Registry) Get(year int) (*Parameters, error) {
	p, ok := r.years[year]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownYear, year)
	}
	return p, nil
}

// Source reports where a year's parameters came from: "bundled" or a file path.
func (r *Registry) Source(year int) string {
	return r.sources[year]
}

// Years returns the available years in ascending order.
func (r *Registry) Years() []int {
	years := make([]int, 0, len(r.years))
	for y := range r.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
