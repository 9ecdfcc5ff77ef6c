// Package catalog holds the static dataset registry: id to display name,
// remote CSV URL, description and reference table name. It is consumed as
// read-only configuration by ingestion; a YAML file can extend or replace
// the built-in entries.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Dataset describes one public dataset.
type Dataset struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	URL         string `yaml:"url" json:"url"`
	Description string `yaml:"description" json:"description"`
	// Table is the reference name users write in FROM clauses. It is
	// presentational for the interpreter and the staging table name for
	// the embedded engine.
	Table string `yaml:"table" json:"table"`
	// Shapefile optionally points at a local .shp attribute table instead
	// of a remote CSV.
	Shapefile string `yaml:"shapefile,omitempty" json:"shapefile,omitempty"`
}

// Catalog is an ordered dataset collection with id lookup.
type Catalog struct {
	entries []Dataset
	byID    map[string]int
}

// New builds a catalog from the given datasets, preserving order.
func New(datasets []Dataset) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(datasets))}
	for _, d := range datasets {
		if _, dup := c.byID[d.ID]; dup {
			continue
		}
		c.byID[d.ID] = len(c.entries)
		c.entries = append(c.entries, d)
	}
	return c
}

// Builtin returns the default dataset registry.
func Builtin() *Catalog {
	return New([]Dataset{
		{
			ID:          "gapminder",
			Name:        "Gapminder",
			URL:         "https://raw.githubusercontent.com/plotly/datasets/master/gapminder_unfiltered.csv",
			Description: "Population, life expectancy and GDP per capita by country and year",
			Table:       "gapminder",
		},
		{
			ID:          "iris",
			Name:        "Iris",
			URL:         "https://raw.githubusercontent.com/mwaskom/seaborn-data/master/iris.csv",
			Description: "Sepal and petal measurements for three iris species",
			Table:       "iris",
		},
		{
			ID:          "tips",
			Name:        "Restaurant tips",
			URL:         "https://raw.githubusercontent.com/mwaskom/seaborn-data/master/tips.csv",
			Description: "Restaurant bills and tips with party metadata",
			Table:       "tips",
		},
		{
			ID:          "energy",
			Name:        "OWID energy",
			URL:         "https://raw.githubusercontent.com/owid/energy-data/master/owid-energy-data.csv",
			Description: "Our World in Data energy consumption and mix by country and year",
			Table:       "energy",
		},
	})
}

type catalogFile struct {
	Datasets []Dataset `yaml:"datasets"`
}

// LoadFile reads a YAML catalog file. Entries with an id already present
// override the built-in definition when merged via Merge.
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, d := range f.Datasets {
		if d.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if d.URL == "" && d.Shapefile == "" {
			return nil, fmt.Errorf("catalog entry %q has no url or shapefile", d.ID)
		}
	}
	return New(f.Datasets), nil
}

// Merge returns a catalog containing c's entries with other's entries
// appended or, on id collision, replacing them.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := New(c.entries)
	for _, d := range other.entries {
		if i, ok := merged.byID[d.ID]; ok {
			merged.entries[i] = d
			continue
		}
		merged.byID[d.ID] = len(merged.entries)
		merged.entries = append(merged.entries, d)
	}
	return merged
}

// Get looks a dataset up by id.
func (c *Catalog) Get(id string) (Dataset, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Dataset{}, false
	}
	return c.entries[i], true
}

// List returns the datasets in registration order.
func (c *Catalog) List() []Dataset {
	return append([]Dataset(nil), c.entries...)
}

// Len reports the number of datasets.
func (c *Catalog) Len() int { return len(c.entries) }
