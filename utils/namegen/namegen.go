// Package namegen produces deterministic, non-repeating placeholder names
// for scene-graph entities the source asset left unnamed, so flattened
// output never carries an empty node or mesh name.
package namegen

import (
	"math/rand"

	"github.com/Pallinder/go-randomdata"
)

// Generator hands out silly, unique placeholder names. Two Generators
// constructed with the same seed produce the same sequence, so
// re-flattening an asset with unnamed nodes reproduces identical output
// names run to run.
type Generator struct {
	rng  *rand.Rand
	used map[string]struct{}
}

// New returns a Generator seeded deterministically from seed.
func New(seed int64) *Generator {
	g := &Generator{
		rng:  rand.New(rand.NewSource(seed)),
		used: make(map[string]struct{}),
	}
	randomdata.CustomRand(g.rng)
	return g
}

// Next returns a fresh placeholder name, never repeating one already
// returned by this Generator.
func (g *Generator) Next() string {
	// randomdata draws from one package-wide source; point it at this
	// Generator's own RNG so each Generator advances only its own stream.
	randomdata.CustomRand(g.rng)
	for {
		name := randomdata.SillyName()
		if _, exists := g.used[name]; !exists {
			g.used[name] = struct{}{}
			return name
		}
	}
}

// NameOr returns name unchanged if it is non-empty, otherwise a fresh
// placeholder from g.
func (g *Generator) NameOr(name string) string {
	if name != "" {
		return name
	}
	return g.Next()
}
