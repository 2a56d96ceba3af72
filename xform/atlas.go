package xform

import (
	"github.com/mogaika/gltfpipe/config"
)

// AtlasInputMesh is one mesh's worth of geometry handed to an AtlasEngine
// for charting and packing. Positions are required; Normals and UVs are
// optional charting hints (nil when the source primitive lacks them).
type AtlasInputMesh struct {
	Positions []float32 // xyz, len == 3*vertexCount
	Normals   []float32 // xyz, len == 3*vertexCount, or nil
	UVs       []float32 // uv, len == 2*vertexCount, or nil
	Indices   []uint32
}

// AtlasOutputMesh is the packed result for one mesh. OriginalVertex maps
// each output vertex back to the input vertex it was duplicated from —
// atlas charting commonly splits vertices along chart seams, so
// VertexCount can exceed the input mesh's vertex count.
type AtlasOutputMesh struct {
	VertexCount    int
	OriginalVertex []uint32  // len == VertexCount
	UV             []float32 // packed atlas-space uv, len == 2*VertexCount, in [0,1]
	Indices        []uint32
}

// AtlasEngine bridges Parameterize to an external charting/packing
// engine. It is deliberately narrow: submit every mesh, run the packer
// once over the whole batch, then read results back one mesh at a time.
// This mirrors the xatlas C API's Add/Generate/GetMesh/Destroy shape.
type AtlasEngine interface {
	AddMesh(mesh AtlasInputMesh) (handle int, err error)
	ComputeAndPack(opts config.ChartOptions) error
	Mesh(handle int) (AtlasOutputMesh, error)
	Destroy()
}

// IdentityAtlasEngine is a deterministic stand-in for a real charting
// engine: it never splits vertices and derives uv coordinates from a
// per-mesh planar projection of the position bounding box, picking the
// two axes of greatest extent. It exists because the corpus this
// package was built from carries no native Go xatlas binding; it is
// good enough to exercise the Parameterize contract end to end and is
// the default when no other engine is wired in.
type IdentityAtlasEngine struct {
	meshes []AtlasInputMesh
	packed []AtlasOutputMesh
}

func NewIdentityAtlasEngine() *IdentityAtlasEngine {
	return &IdentityAtlasEngine{}
}

func (e *IdentityAtlasEngine) AddMesh(mesh AtlasInputMesh) (int, error) {
	handle := len(e.meshes)
	e.meshes = append(e.meshes, mesh)
	return handle, nil
}

func (e *IdentityAtlasEngine) ComputeAndPack(opts config.ChartOptions) error {
	e.packed = make([]AtlasOutputMesh, len(e.meshes))
	cols := packGridColumns(len(e.meshes))
	for i, m := range e.meshes {
		vcount := len(m.Positions) / 3
		minX, minY, minZ := m.Positions[0], m.Positions[1], m.Positions[2]
		maxX, maxY, maxZ := minX, minY, minZ
		for v := 1; v < vcount; v++ {
			x, y, z := m.Positions[v*3], m.Positions[v*3+1], m.Positions[v*3+2]
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if z < minZ {
				minZ = z
			}
			if x > maxX {
				maxX = x
			}
			if y > maxY {
				maxY = y
			}
			if z > maxZ {
				maxZ = z
			}
		}
		extX, extY, extZ := maxX-minX, maxY-minY, maxZ-minZ
		ax0, ax1, off0, off1, span0, span1 := planarAxes(extX, extY, extZ, minX, minY, minZ)

		row := i / cols
		col := i % cols
		cellW, cellH := 1.0/float32(cols), 1.0/float32(packGridRows(len(e.meshes), cols))
		pad := float32(opts.Padding) * 0.001

		uv := make([]float32, vcount*2)
		for v := 0; v < vcount; v++ {
			u := planarCoord(m.Positions[v*3+ax0], off0, span0)
			w := planarCoord(m.Positions[v*3+ax1], off1, span1)
			uv[v*2] = (float32(col)+clamp01(u+pad))*cellW - pad*cellW
			uv[v*2+1] = (float32(row)+clamp01(w+pad))*cellH - pad*cellH
		}

		origVertex := make([]uint32, vcount)
		for v := range origVertex {
			origVertex[v] = uint32(v)
		}
		indices := make([]uint32, len(m.Indices))
		copy(indices, m.Indices)

		e.packed[i] = AtlasOutputMesh{
			VertexCount:    vcount,
			OriginalVertex: origVertex,
			UV:             uv,
			Indices:        indices,
		}
	}
	return nil
}

func (e *IdentityAtlasEngine) Mesh(handle int) (AtlasOutputMesh, error) {
	if handle < 0 || handle >= len(e.packed) {
		return AtlasOutputMesh{}, errInvalidAtlasHandle(handle)
	}
	return e.packed[handle], nil
}

func (e *IdentityAtlasEngine) Destroy() {
	e.meshes = nil
	e.packed = nil
}

func planarAxes(extX, extY, extZ, minX, minY, minZ float32) (ax0, ax1 int, off0, off1, span0, span1 float32) {
	// Drop the axis of smallest extent, project onto the other two.
	if extX <= extY && extX <= extZ {
		return 1, 2, minY, minZ, extY, extZ
	}
	if extY <= extX && extY <= extZ {
		return 0, 2, minX, minZ, extX, extZ
	}
	return 0, 1, minX, minY, extX, extY
}

func planarCoord(v, off, span float32) float32 {
	if span <= 0 {
		return 0
	}
	return (v - off) / span
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func packGridColumns(n int) int {
	if n <= 1 {
		return 1
	}
	cols := 1
	for cols*cols < n {
		cols++
	}
	return cols
}

func packGridRows(n, cols int) int {
	rows := n / cols
	if n%cols != 0 {
		rows++
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

type invalidAtlasHandleError int

func (e invalidAtlasHandleError) Error() string {
	return "atlas engine: invalid mesh handle"
}

func errInvalidAtlasHandle(handle int) error {
	return invalidAtlasHandleError(handle)
}
