package preset

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptyAnalysis indicates no analysis name was given.
var ErrEmptyAnalysis = errors.New("analysis name is empty")

// Preset is a named analysis commonly charted by the lab.
type Preset struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var builtin = map[string]string{
	"colimetria": "Colimetria (Quantitativa)",
	"eba":        "Esporos de Bactérias Aeróbias - EBA",
}

// Catalog is an immutable set of presets keyed by short name.
type Catalog struct {
	byKey map[string]Preset
}

// NewCatalog returns the built-in presets merged with extra (key -> label).
// Entries in extra override built-ins with the same key.
func NewCatalog(extra map[string]string) *Catalog {
	c := &Catalog{byKey: make(map[string]Preset, len(builtin)+len(extra))}
	for k, v := range builtin {
		c.byKey[k] = Preset{Key: k, Label: v}
	}
	for k, v := range extra {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		c.byKey[k] = Preset{Key: k, Label: v}
	}
	return c
}

// List returns all presets sorted by key.
func (c *Catalog) List() []Preset {
	out := make([]Preset, 0, len(c.byKey))
	for _, p := range c.byKey {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Lookup finds a preset by key, ignoring case.
func (c *Catalog) Lookup(key string) (Preset, bool) {
	p, ok := c.byKey[strings.ToLower(strings.TrimSpace(key))]
	return p, ok
}

// Resolve maps input to an analysis name. A preset key or label resolves to
// the preset label; any other text is accepted as a free-form name.
func (c *Catalog) Resolve(input string) (string, error) {
	in := strings.TrimSpace(input)
	if in == "" {
		return "", ErrEmptyAnalysis
	}
	if p, ok := c.Lookup(in); ok {
		return p.Label, nil
	}
	for _, p := range c.byKey {
		if strings.EqualFold(p.Label, in) {
			return p.Label, nil
		}
	}
	return in, nil
}
