// Package activities manages the YAML-based catalog of wellness activities
// the app can log.
package activities

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aura-wellness/aura-core/pkg/models"
)

// Definition describes one activity the app offers.
type Definition struct {
	Type            models.ActivityType `yaml:"type"`
	Name            string              `yaml:"name"`
	Description     string              `yaml:"description"`
	DefaultDuration int                 `yaml:"default_duration"` // minutes
}

// Config is the top-level YAML structure.
type Config struct {
	Activities []Definition `yaml:"activities"`
}

// Catalog holds loaded activity definitions, keyed by name.
type Catalog struct {
	byName map[string]*Definition
	order  []string // preserves definition order
}

// defaults is the built-in catalog used when no file is configured.
var defaults = []Definition{
	{Type: models.ActivityBreathing, Name: "Box Breathing", Description: "Four-count breathing to settle the nervous system", DefaultDuration: 5},
	{Type: models.ActivityMeditation, Name: "Guided Meditation", Description: "A short guided body-scan meditation", DefaultDuration: 10},
	{Type: models.ActivityJournaling, Name: "Gratitude Journal", Description: "Write three things that went well today", DefaultDuration: 10},
	{Type: models.ActivityGame, Name: "Zen Garden", Description: "A calming focus game", DefaultDuration: 5},
	{Type: models.ActivityGame, Name: "Forest Walk", Description: "A virtual walk through a quiet forest", DefaultDuration: 10},
	{Type: models.ActivityTherapy, Name: "Therapy Session", Description: "A conversation with the AI therapist", DefaultDuration: 30},
}

// Load reads the YAML catalog at path. If path is empty or the file does not
// exist, Load returns the built-in default catalog (not an error).
func Load(path string) (*Catalog, error) {
	if path == "" {
		return build(defaults), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return build(defaults), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return build(cfg.Activities), nil
}

func build(defs []Definition) *Catalog {
	c := &Catalog{
		byName: make(map[string]*Definition, len(defs)),
	}
	for i := range defs {
		d := defs[i]
		if _, dup := c.byName[d.Name]; dup {
			continue
		}
		c.byName[d.Name] = &d
		c.order = append(c.order, d.Name)
	}
	return c
}

// Get returns a definition by name. Returns (nil, false) if not found.
func (c *Catalog) Get(name string) (*Definition, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// All returns all definitions in catalog order.
func (c *Catalog) All() []*Definition {
	result := make([]*Definition, 0, len(c.order))
	for _, name := range c.order {
		result = append(result, c.byName[name])
	}
	return result
}

// Names returns a sorted list of activity names.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	sort.Strings(names)
	return names
}
