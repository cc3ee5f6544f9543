package recipients

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// defaultKey is the reserved cc-map entry holding the fallback CC list.
const defaultKey = "default"

var fallbackCC = []string{"cc@your-company.com"}

// Directory maps entities to their report recipients. Entities come from the
// "to" map; the "cc" map may carry per-entity overrides and a "default" entry
// used for entities without one.
type Directory struct {
	to        map[string][]string
	cc        map[string][]string
	defaultCC []string
}

type fileFormat struct {
	To map[string][]string `json:"to"`
	CC map[string][]string `json:"cc"`
}

// Load reads a recipients JSON file. Entity identifiers and addresses are
// case-sensitive map keys, so the file is decoded with encoding/json rather
// than viper, which lowercases map keys.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipients file: %w", err)
	}

	var raw fileFormat
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse recipients file %s: %w", path, err)
	}

	return New(raw.To, raw.CC), nil
}

// New builds a directory from explicit maps. The cc map's "default" entry
// becomes the fallback CC list.
func New(to, cc map[string][]string) *Directory {
	if to == nil {
		to = map[string][]string{}
	}
	if cc == nil {
		cc = map[string][]string{}
	}
	defaultCC := cc[defaultKey]
	if len(defaultCC) == 0 {
		defaultCC = fallbackCC
	}
	return &Directory{
		to:        to,
		cc:        cc,
		defaultCC: defaultCC,
	}
}

// Entities lists all entities with a recipient entry, in stable order.
func (d *Directory) Entities() []string {
	out := make([]string, 0, len(d.to))
	for entity := range d.to {
		out = append(out, entity)
	}
	sort.Strings(out)
	return out
}

// To returns the primary recipient addresses for an entity.
func (d *Directory) To(entity string) []string {
	return d.to[entity]
}

// CC returns the entity's CC list, falling back to the default list when the
// entity has no specific entry.
func (d *Directory) CC(entity string) []string {
	if cc, ok := d.cc[entity]; ok {
		return cc
	}
	return d.defaultCC
}
