// Package pipeline is the facade cmd/gltfpipe and the inspect server
// drive: it owns the arena for one asset's lifetime and sequences the
// coalesce/flatten/parameterize transformations, mirroring the way the
// teacher's wad.Wad ties together load/parse/export for one archive.
package pipeline

import (
	"log"

	"github.com/pkg/errors"

	"github.com/mogaika/gltfpipe/arena"
	"github.com/mogaika/gltfpipe/asset"
	"github.com/mogaika/gltfpipe/config"
	"github.com/mogaika/gltfpipe/gltfcodec"
	"github.com/mogaika/gltfpipe/utils/debugdump"
	"github.com/mogaika/gltfpipe/utils/namegen"
	"github.com/mogaika/gltfpipe/xform"
)

// Pipeline holds the current asset plus every arena its transformations
// have allocated from. Close releases them all; it must be called
// exactly once the Pipeline is done with.
type Pipeline struct {
	cfg    *config.Config
	names  *namegen.Generator
	arenas []*arena.Arena
	asset  *asset.Asset
}

// New constructs a Pipeline with no asset loaded yet.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg, names: namegen.New(0)}
}

func (p *Pipeline) newArena() *arena.Arena {
	a := arena.New()
	p.arenas = append(p.arenas, a)
	return a
}

// Load replaces the current asset with the one read from path.
func (p *Pipeline) Load(path string) error {
	a, err := gltfcodec.Load(path)
	if err != nil {
		return err
	}
	p.asset = a
	return nil
}

// Save writes the current asset to path. Per spec the asset must already
// be flattened.
func (p *Pipeline) Save(path string) error {
	if p.asset == nil {
		return errors.New("pipeline: no asset loaded")
	}
	if !p.IsFlattened() {
		return asset.ErrNotFlattened
	}
	return gltfcodec.Save(p.asset, path, p.cfg.Generator)
}

// Coalesce merges every buffer in the current asset into one.
func (p *Pipeline) Coalesce() error {
	if p.asset == nil {
		return errors.New("pipeline: no asset loaded")
	}
	out, err := xform.Coalesce(p.newArena(), p.asset)
	if err != nil {
		return errors.Wrap(err, "coalesce")
	}
	p.asset = out
	return nil
}

// Flatten bakes world transforms into fresh per-leaf-node primitives.
// Per spec, the flattener itself emits a two-buffer intermediate asset
// (baked data plus a verbatim copy of the source buffer for preserved
// attributes); Flatten immediately coalesces that intermediate so every
// caller only ever observes single-buffer assets.
func (p *Pipeline) Flatten(flags xform.Flags) error {
	if p.asset == nil {
		return errors.New("pipeline: no asset loaded")
	}
	if len(p.asset.Buffers) > 1 {
		if err := p.Coalesce(); err != nil {
			return err
		}
	}
	flattened, err := xform.Flatten(p.newArena(), p.asset, flags, p.names, p.cfg.Generator)
	if err != nil {
		return errors.Wrap(err, "flatten")
	}
	p.asset = flattened
	return p.Coalesce()
}

// Parameterize bakes a new UV channel into every mesh via engine. The
// asset must already be flattened (one primitive per mesh); otherwise
// Parameterize fails with asset.ErrNotFlattened and produces no asset.
func (p *Pipeline) Parameterize(engine xform.AtlasEngine) error {
	defer engine.Destroy()
	if p.asset == nil {
		return errors.New("pipeline: no asset loaded")
	}
	if !p.IsFlattened() {
		return asset.ErrNotFlattened
	}
	out, err := xform.Parameterize(p.newArena(), p.asset, engine, p.cfg.ChartOptions, p.cfg.BakedUVName, p.cfg.BakedUVIndex, p.cfg.Generator)
	if err != nil {
		return errors.Wrap(err, "parameterize")
	}
	p.asset = out
	return nil
}

// IsFlattened reports whether the current asset is a witness of having
// been produced by Flatten with this Pipeline's generator tag.
func (p *Pipeline) IsFlattened() bool {
	return p.asset != nil && p.asset.IsFlattened(p.cfg.Generator)
}

// Stats returns the RunStat records of every arena this Pipeline has
// allocated from, oldest first.
func (p *Pipeline) Stats() []arena.RunStat {
	var stats []arena.RunStat
	for _, a := range p.arenas {
		stats = append(stats, a.Stats()...)
	}
	return stats
}

// Dump writes the current asset's structured text representation
// through the standard logger.
func (p *Pipeline) Dump() {
	debugdump.Log(p.asset)
}

// Asset returns the pipeline's current asset, or nil if none is loaded.
func (p *Pipeline) Asset() *asset.Asset {
	return p.asset
}

// Close releases every arena the pipeline has allocated, invalidating
// the current asset. Safe to call more than once.
func (p *Pipeline) Close() {
	for _, a := range p.arenas {
		if !a.Released() {
			a.Release()
		}
	}
	p.arenas = nil
	p.asset = nil
	log.Println("pipeline: closed")
}
