package xform

import (
	"github.com/mogaika/gltfpipe/arena"
	"github.com/mogaika/gltfpipe/asset"
	"github.com/mogaika/gltfpipe/config"
)

// meshJob is the per-mesh bookkeeping carried from the submit phase to
// the rebuild phase of Parameterize.
type meshJob struct {
	meshIndex  asset.MeshIndex
	handle     int
	attrs      []asset.Attribute // preserved attributes, in output order
	components []int             // NumComponents() for each of attrs, parallel slice
}

// Parameterize bakes a new UV attribute into every mesh of a flattened,
// single-buffer asset by routing each primitive's geometry through an
// AtlasEngine. src must satisfy IsFlattened(generatorTag); if it does
// not, Parameterize fails with asset.ErrNotFlattened and produces no
// asset. It is grounded on Pipeline::parameterize in the original gltfio
// AssetPipeline.cpp: submit every mesh first, run the packer once over
// the whole batch, then rebuild each mesh from the packed result.
//
// Every surviving mesh gets a fresh interleaved vertex buffer view (one
// glTF bufferView with a byte stride, multiple accessors reading it at
// different byte offsets) since atlas charting can duplicate vertices
// along seams, invalidating any attribute data shared with other
// primitives.
func Parameterize(a *arena.Arena, src *asset.Asset, engine AtlasEngine, opts config.ChartOptions, uvName string, uvIndex int, generatorTag string) (*asset.Asset, error) {
	if !src.IsFlattened(generatorTag) {
		return nil, asset.ErrNotFlattened
	}
	if len(src.Buffers) != 1 {
		return nil, asset.NewMalformedInput("Parameterize requires a coalesced (single-buffer) asset, got %d buffers", len(src.Buffers))
	}
	for mi := range src.Meshes {
		if len(src.Meshes[mi].Primitives) != 1 {
			return nil, &asset.ParameterizationFailedError{
				MeshName: src.Meshes[mi].Name,
				Reason:   "mesh does not have exactly one primitive; run Flatten first",
			}
		}
	}

	jobs := make([]meshJob, len(src.Meshes))
	for mi := range src.Meshes {
		prim := &src.Meshes[mi].Primitives[0]
		posAttr := prim.AttributeBySemantic(asset.SemanticPosition, 0)
		if posAttr == nil || prim.Indices == nil {
			return nil, &asset.ParameterizationFailedError{
				MeshName: src.Meshes[mi].Name,
				Reason:   "primitive has no POSITION attribute or no indices",
			}
		}
		posAcc := &src.Accessors[posAttr.Accessor]
		positions, err := readAllFloat3(src, posAcc)
		if err != nil {
			return nil, err
		}

		var normals []float32
		if normAttr := prim.AttributeBySemantic(asset.SemanticNormal, 0); normAttr != nil {
			normals, err = readAllFloat3(src, &src.Accessors[normAttr.Accessor])
			if err != nil {
				return nil, err
			}
		}

		var uv0 []float32
		if uvAttr := prim.AttributeBySemantic(asset.SemanticTexcoord, 0); uvAttr != nil {
			uv0, err = readAllFloat2(src, &src.Accessors[uvAttr.Accessor])
			if err != nil {
				return nil, err
			}
		}

		idxAcc := &src.Accessors[*prim.Indices]
		indices := make([]uint32, idxAcc.Count)
		for i := 0; i < idxAcc.Count; i++ {
			v, err := src.ReadIndex(idxAcc, i)
			if err != nil {
				return nil, err
			}
			indices[i] = v
		}

		handle, err := engine.AddMesh(AtlasInputMesh{Positions: positions, Normals: normals, UVs: uv0, Indices: indices})
		if err != nil {
			return nil, &asset.ParameterizationFailedError{MeshName: src.Meshes[mi].Name, Reason: err.Error()}
		}

		var attrs []asset.Attribute
		var components []int
		for _, attr := range prim.Attributes {
			if attr.Semantic == asset.SemanticTexcoord && attr.SemanticIndex == uvIndex {
				continue // overwritten by the baked channel below
			}
			attrs = append(attrs, attr)
			components = append(components, elementComponents(&src.Accessors[attr.Accessor]))
		}
		jobs[mi] = meshJob{meshIndex: asset.MeshIndex(mi), handle: handle, attrs: attrs, components: components}
	}

	if err := engine.ComputeAndPack(opts); err != nil {
		return nil, &asset.ParameterizationFailedError{Reason: "packing failed: " + err.Error()}
	}

	type meshBuild struct {
		stride      int
		offsets     []int
		vertexCount int
		vertexBytes []byte
		indexBytes  []byte
		indexCount  int
	}
	builds := make([]meshBuild, len(jobs))
	totalVertexBytes, totalIndexBytes := 0, 0

	for mi := range jobs {
		job := &jobs[mi]
		out, err := engine.Mesh(job.handle)
		if err != nil {
			return nil, &asset.ParameterizationFailedError{MeshName: src.Meshes[job.meshIndex].Name, Reason: err.Error()}
		}

		stride := 0
		offsets := make([]int, len(job.attrs))
		for i, n := range job.components {
			offsets[i] = stride
			stride += n * 4
		}
		uvOffset := stride
		stride += 2 * 4

		vertexBytes := make([]byte, out.VertexCount*stride)
		for i, attr := range job.attrs {
			srcAcc := &src.Accessors[attr.Accessor]
			flat, err := readAllFloatN(src, srcAcc, job.components[i])
			if err != nil {
				return nil, err
			}
			n := job.components[i]
			for v := 0; v < out.VertexCount; v++ {
				srcVertex := int(out.OriginalVertex[v])
				dst := vertexBytes[v*stride+offsets[i]:]
				for c := 0; c < n; c++ {
					putFloat32(dst[c*4:], flat[srcVertex*n+c])
				}
			}
		}
		for v := 0; v < out.VertexCount; v++ {
			dst := vertexBytes[v*stride+uvOffset:]
			putFloat32(dst[0:], out.UV[v*2])
			putFloat32(dst[4:], out.UV[v*2+1])
		}

		indexBytes := make([]byte, len(out.Indices)*4)
		for i, idx := range out.Indices {
			putUint32(indexBytes[i*4:], idx)
		}

		builds[mi] = meshBuild{
			stride: stride, offsets: offsets, vertexCount: out.VertexCount,
			vertexBytes: vertexBytes, indexBytes: indexBytes, indexCount: len(out.Indices),
		}
		totalVertexBytes += len(vertexBytes)
		totalIndexBytes += len(indexBytes)
	}

	buf := arena.AllocBytes(a, totalVertexBytes+totalIndexBytes)
	buffers := arena.Alloc[asset.Buffer](a, 1)
	buffers[0] = asset.Buffer{Data: buf}

	numViews := len(jobs) * 2 // one vertex view + one index view per mesh
	numAccessors := 0
	for _, job := range jobs {
		numAccessors += len(job.attrs) + 2 // preserved attrs + baked uv + indices
	}
	views := arena.Alloc[asset.BufferView](a, numViews)
	accessors := arena.Alloc[asset.Accessor](a, numAccessors)
	meshes := arena.Alloc[asset.Mesh](a, len(src.Meshes))
	prims := arena.Alloc[asset.Primitive](a, len(src.Meshes))

	vertexCursor, indexCursor := 0, totalVertexBytes
	viewCursor, accCursor := 0, 0
	for mi := range jobs {
		job := &jobs[mi]
		b := &builds[mi]

		copy(buf[vertexCursor:], b.vertexBytes)
		copy(buf[indexCursor:], b.indexBytes)

		vertexView := viewCursor
		views[viewCursor] = asset.BufferView{Buffer: 0, ByteOffset: vertexCursor, ByteLength: len(b.vertexBytes), ByteStride: b.stride, Usage: asset.UsageVertex}
		viewCursor++
		indexView := viewCursor
		views[viewCursor] = asset.BufferView{Buffer: 0, ByteOffset: indexCursor, ByteLength: len(b.indexBytes), Usage: asset.UsageIndex}
		viewCursor++

		attrsOut := make([]asset.Attribute, 0, len(job.attrs)+1)
		for i, attr := range job.attrs {
			accIdx := accCursor
			accessors[accCursor] = asset.Accessor{
				View: asset.BufferViewIndex(vertexView), ByteOffset: b.offsets[i],
				ComponentType: asset.ComponentF32, ElementType: elementTypeFor(job.components[i]),
				Count: b.vertexCount, Stride: b.stride,
			}
			accCursor++
			attrsOut = append(attrsOut, asset.Attribute{Semantic: attr.Semantic, SemanticIndex: attr.SemanticIndex, CustomName: attr.CustomName, Accessor: asset.AccessorIndex(accIdx)})
		}

		uvAccIdx := accCursor
		accessors[accCursor] = asset.Accessor{
			View: asset.BufferViewIndex(vertexView), ByteOffset: b.stride - 2*4,
			ComponentType: asset.ComponentF32, ElementType: asset.ElementVec2, Count: b.vertexCount, Stride: b.stride,
		}
		accCursor++
		attrsOut = append(attrsOut, asset.Attribute{Semantic: asset.SemanticTexcoord, SemanticIndex: uvIndex, CustomName: uvName, Accessor: asset.AccessorIndex(uvAccIdx)})

		idxAccIdx := accCursor
		accessors[accCursor] = asset.Accessor{View: asset.BufferViewIndex(indexView), ComponentType: asset.ComponentU32, ElementType: asset.ElementScalar, Count: b.indexCount}
		accCursor++

		srcPrim := &src.Meshes[job.meshIndex].Primitives[0]
		idxAccessor := asset.AccessorIndex(idxAccIdx)
		prims[mi] = asset.Primitive{
			Topology:   asset.Triangles,
			Indices:    &idxAccessor,
			Material:   srcPrim.Material,
			Attributes: attrsOut,
		}
		meshes[mi] = asset.Mesh{Name: src.Meshes[mi].Name, Primitives: prims[mi : mi+1]}

		vertexCursor += len(b.vertexBytes)
		indexCursor += len(b.indexBytes)
	}

	nodes := arena.Alloc[asset.Node](a, len(src.Nodes))
	for i := range src.Nodes {
		nodes[i] = cloneNode(a, &src.Nodes[i])
	}
	scenes := arena.Alloc[asset.Scene](a, len(src.Scenes))
	for i := range src.Scenes {
		scenes[i] = cloneScene(a, &src.Scenes[i])
	}
	images := arena.Alloc[asset.Image](a, len(src.Images))
	copy(images, src.Images)
	textures := arena.Alloc[asset.Texture](a, len(src.Textures))
	copy(textures, src.Textures)
	materials := arena.Alloc[asset.Material](a, len(src.Materials))
	for i := range src.Materials {
		materials[i] = cloneMaterial(a, &src.Materials[i])
	}

	return &asset.Asset{
		Generator:   generatorTag,
		Buffers:     buffers,
		BufferViews: views,
		Accessors:   accessors,
		Images:      images,
		Textures:    textures,
		Materials:   materials,
		Meshes:      meshes,
		Nodes:       nodes,
		Scenes:      scenes,
		Scene:       src.Scene,
	}, nil
}

func elementComponents(acc *asset.Accessor) int {
	return acc.ElementType.NumComponents()
}

func elementTypeFor(components int) asset.ElementType {
	switch components {
	case 1:
		return asset.ElementScalar
	case 2:
		return asset.ElementVec2
	case 3:
		return asset.ElementVec3
	case 4:
		return asset.ElementVec4
	default:
		return asset.ElementScalar
	}
}

func readAllFloatN(a *asset.Asset, acc *asset.Accessor, n int) ([]float32, error) {
	out := make([]float32, acc.Count*n)
	lane := make([]float32, n)
	for i := 0; i < acc.Count; i++ {
		if err := a.ReadFloat(acc, i, lane); err != nil {
			return nil, err
		}
		copy(out[i*n:], lane)
	}
	return out, nil
}

func readAllFloat3(a *asset.Asset, acc *asset.Accessor) ([]float32, error) {
	return readAllFloatN(a, acc, 3)
}

func readAllFloat2(a *asset.Asset, acc *asset.Accessor) ([]float32, error) {
	return readAllFloatN(a, acc, 2)
}
