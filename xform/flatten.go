package xform

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/gltfpipe/arena"
	"github.com/mogaika/gltfpipe/asset"
	"github.com/mogaika/gltfpipe/utils/namegen"
)

// Flags is the bitset Flatten accepts.
type Flags uint32

// FilterTriangles restricts primitive eligibility to triangle topology,
// per spec §6.
const FilterTriangles Flags = 1

func (f Flags) filterTriangles() bool { return f&FilterTriangles != 0 }

// bakedPrim is the bookkeeping record for one eligible source primitive,
// grounded on the BakedPrim struct in the original AssetPipeline.cpp.
type bakedPrim struct {
	node   asset.NodeIndex
	mesh   asset.MeshIndex
	prim   *asset.Primitive
	pos    *asset.Attribute
	norm   *asset.Attribute
	tan    *asset.Attribute
	matrix mgl32.Mat4
	normal mgl32.Mat3
}

func filterPrimitive(src *asset.Asset, prim *asset.Primitive, filterTriangles bool) bool {
	if filterTriangles && prim.Topology != asset.Triangles {
		return false
	}
	if prim.Indices == nil {
		return false
	}
	idxAcc := &src.Accessors[*prim.Indices]
	if idxAcc.Sparse {
		return false
	}
	for _, attr := range prim.Attributes {
		acc := &src.Accessors[attr.Accessor]
		if acc.Count == 0 || acc.Sparse {
			return false
		}
	}
	return true
}

// worldMatrices computes the world-space transform of every node in the
// asset by walking the parent chain implied by Node.Children, matching
// cgltf_node_transform_world's behavior of ignoring scene membership.
func worldMatrices(nodes []asset.Node) []mgl32.Mat4 {
	n := len(nodes)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}
	for i := range nodes {
		for _, c := range nodes[i].Children {
			parent[c] = i
		}
	}
	world := make([]mgl32.Mat4, n)
	done := make([]bool, n)
	var compute func(i int) mgl32.Mat4
	compute = func(i int) mgl32.Mat4 {
		if done[i] {
			return world[i]
		}
		local := nodes[i].Transform.Local()
		m := local
		if p := parent[i]; p >= 0 {
			m = compute(p).Mul4(local)
		}
		world[i] = m
		done[i] = true
		return m
	}
	for i := range nodes {
		compute(i)
	}
	return world
}

func normalMatrixOf(m mgl32.Mat4) mgl32.Mat3 {
	return m.Mat3().Inv().Transpose()
}

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func putUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

// Flatten splits every eligible primitive of a coalesced source asset
// into its own leaf node with identity transform, baking world-space
// positions/normals/tangents into a fresh vertex+index buffer. Non-baked
// attributes are preserved by reference into a verbatim second copy of
// the source's single buffer (spec §4.4); the caller (pipeline.Flatten)
// is expected to coalesce the result again to merge the two buffers.
//
// Normals and tangent xyz are transformed by the normal matrix and never
// renormalized afterward — this mirrors the source's own behavior and is
// preserved deliberately, not fixed (spec §9 open question).
func Flatten(a *arena.Arena, src *asset.Asset, flags Flags, names *namegen.Generator, generatorTag string) (*asset.Asset, error) {
	if len(src.Buffers) != 1 {
		return nil, asset.NewMalformedInput("Flatten requires a coalesced (single-buffer) asset, got %d buffers", len(src.Buffers))
	}
	if err := checkSourceBounds(src); err != nil {
		return nil, err
	}

	world := worldMatrices(src.Nodes)

	var bakedPrims []bakedPrim
	var numPositions, numNormals, numTangents, numIndices int
	var numPrimsWithNormals, numPrimsWithTangents int

	filterTriangles := flags.filterTriangles()
	for ni := range src.Nodes {
		node := &src.Nodes[ni]
		if node.Mesh == nil {
			continue
		}
		mesh := &src.Meshes[*node.Mesh]
		for pi := range mesh.Primitives {
			prim := &mesh.Primitives[pi]
			if !filterPrimitive(src, prim, filterTriangles) {
				continue
			}
			bp := bakedPrim{
				node:   asset.NodeIndex(ni),
				mesh:   *node.Mesh,
				prim:   prim,
				matrix: world[ni],
				normal: normalMatrixOf(world[ni]),
			}
			for ai := range prim.Attributes {
				attr := &prim.Attributes[ai]
				switch attr.Semantic {
				case asset.SemanticPosition:
					bp.pos = attr
				case asset.SemanticNormal:
					bp.norm = attr
				case asset.SemanticTangent:
					bp.tan = attr
				}
			}
			if bp.pos == nil {
				continue // no POSITION attribute: not a drawable primitive
			}
			numPositions += src.Accessors[bp.pos.Accessor].Count
			if bp.norm != nil {
				numNormals += src.Accessors[bp.norm.Accessor].Count
				numPrimsWithNormals++
			}
			if bp.tan != nil {
				numTangents += src.Accessors[bp.tan.Accessor].Count
				numPrimsWithTangents++
			}
			numIndices += src.Accessors[*prim.Indices].Count
			bakedPrims = append(bakedPrims, bp)
		}
	}

	numPrims := len(bakedPrims)

	const vec3Size, vec4Size, u32Size = 12, 16, 4
	positionsSize := numPositions * vec3Size
	normalsSize := numNormals * vec3Size
	tangentsSize := numTangents * vec4Size
	vertexSize := positionsSize + normalsSize + tangentsSize
	indicesSize := numIndices * u32Size

	buf0 := arena.AllocBytes(a, vertexSize+indicesSize)
	buf1 := arena.AllocBytes(a, src.Buffers[0].Size())
	copy(buf1, src.Buffers[0].Data)

	buffers := arena.Alloc[asset.Buffer](a, 2)
	buffers[0] = asset.Buffer{Data: buf0}
	buffers[1] = asset.Buffer{Data: buf1}

	numAttributesBaked := numPrims + numPrimsWithNormals + numPrimsWithTangents
	numBaseViews := numPrims + numAttributesBaked // one index view + one per baked attribute, per prim
	numBaseAccessors := numBaseViews

	views := arena.Alloc[asset.BufferView](a, numBaseViews+len(src.BufferViews))
	accessors := arena.Alloc[asset.Accessor](a, numBaseAccessors+len(src.Accessors))

	// Carry over every source view/accessor verbatim, re-pointed at buf1,
	// so preserved (non-position/normal/tangent) attributes keep working
	// without their own baked storage.
	for i := range src.BufferViews {
		v := src.BufferViews[i]
		v.Buffer = 1
		views[numBaseViews+i] = v
	}
	for i := range src.Accessors {
		acc := src.Accessors[i]
		acc.View = asset.BufferViewIndex(numBaseViews) + acc.View
		accessors[numBaseAccessors+i] = acc
	}

	nodes := arena.Alloc[asset.Node](a, numPrims)
	meshes := arena.Alloc[asset.Mesh](a, numPrims)
	prims := arena.Alloc[asset.Primitive](a, numPrims)
	roots := arena.Alloc[asset.NodeIndex](a, numPrims)

	posOffset, normOffset, tanOffset, idxOffset := 0, positionsSize, positionsSize+normalsSize, vertexSize
	viewCursor, accCursor, attrBudget := 0, 0, 0
	for i := range bakedPrims {
		attrBudget += 1 + boolToInt(bakedPrims[i].norm != nil) + boolToInt(bakedPrims[i].tan != nil) + (len(bakedPrims[i].prim.Attributes) - countBaked(&bakedPrims[i]))
	}
	attributes := arena.Alloc[asset.Attribute](a, attrBudget)
	attrCursor := 0

	for i := range bakedPrims {
		bp := &bakedPrims[i]
		srcNode := &src.Nodes[bp.node]
		srcMesh := &src.Meshes[bp.mesh]
		firstAttr := attrCursor

		posAcc := &src.Accessors[bp.pos.Accessor]
		posCount := posAcc.Count

		positions := make([]mgl32.Vec3, posCount)
		min := mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
		max := mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
		var lane [3]float32
		for v := 0; v < posCount; v++ {
			if err := src.ReadFloat(posAcc, v, lane[:]); err != nil {
				return nil, err
			}
			p := bp.matrix.Mul4x1(mgl32.Vec4{lane[0], lane[1], lane[2], 1}).Vec3()
			positions[v] = p
			min = componentMin(min, p)
			max = componentMax(max, p)
		}

		posDst := buf0[posOffset : posOffset+posCount*vec3Size]
		for v, p := range positions {
			putFloat32(posDst[v*vec3Size:], p[0])
			putFloat32(posDst[v*vec3Size+4:], p[1])
			putFloat32(posDst[v*vec3Size+8:], p[2])
		}

		idxAcc := &src.Accessors[*bp.prim.Indices]
		idxCount := idxAcc.Count
		idxDst := buf0[idxOffset : idxOffset+idxCount*u32Size]
		for v := 0; v < idxCount; v++ {
			iv, err := src.ReadIndex(idxAcc, v)
			if err != nil {
				return nil, err
			}
			putUint32(idxDst[v*u32Size:], iv)
		}

		views[viewCursor] = asset.BufferView{Buffer: 0, ByteOffset: idxOffset, ByteLength: idxCount * u32Size, Usage: asset.UsageIndex}
		idxAccessor := asset.AccessorIndex(accCursor)
		accessors[accCursor] = asset.Accessor{View: asset.BufferViewIndex(viewCursor), ComponentType: asset.ComponentU32, ElementType: asset.ElementScalar, Count: idxCount}
		viewCursor++
		accCursor++
		idxOffset += idxCount * u32Size

		views[viewCursor] = asset.BufferView{Buffer: 0, ByteOffset: posOffset, ByteLength: posCount * vec3Size, Usage: asset.UsageVertex}
		posAccessorIdx := asset.AccessorIndex(accCursor)
		posAccessor := asset.Accessor{
			View: asset.BufferViewIndex(viewCursor), ComponentType: asset.ComponentF32, ElementType: asset.ElementVec3,
			Count: posCount, HasMin: true, HasMax: true,
		}
		posAccessor.Min[0], posAccessor.Min[1], posAccessor.Min[2] = float64(min[0]), float64(min[1]), float64(min[2])
		posAccessor.Max[0], posAccessor.Max[1], posAccessor.Max[2] = float64(max[0]), float64(max[1]), float64(max[2])
		accessors[accCursor] = posAccessor
		viewCursor++
		accCursor++
		posOffset += posCount * vec3Size

		attributes[attrCursor] = asset.Attribute{Semantic: asset.SemanticPosition, Accessor: posAccessorIdx}
		attrCursor++

		if bp.norm != nil {
			normAcc := &src.Accessors[bp.norm.Accessor]
			normCount := normAcc.Count
			normDst := buf0[normOffset : normOffset+normCount*vec3Size]
			var nlane [3]float32
			for v := 0; v < normCount; v++ {
				if err := src.ReadFloat(normAcc, v, nlane[:]); err != nil {
					return nil, err
				}
				n := bp.normal.Mul3x1(mgl32.Vec3{nlane[0], nlane[1], nlane[2]})
				putFloat32(normDst[v*vec3Size:], n[0])
				putFloat32(normDst[v*vec3Size+4:], n[1])
				putFloat32(normDst[v*vec3Size+8:], n[2])
			}
			views[viewCursor] = asset.BufferView{Buffer: 0, ByteOffset: normOffset, ByteLength: normCount * vec3Size, Usage: asset.UsageVertex}
			normAccessorIdx := asset.AccessorIndex(accCursor)
			accessors[accCursor] = asset.Accessor{View: asset.BufferViewIndex(viewCursor), ComponentType: asset.ComponentF32, ElementType: asset.ElementVec3, Count: normCount}
			viewCursor++
			accCursor++
			normOffset += normCount * vec3Size
			attributes[attrCursor] = asset.Attribute{Semantic: asset.SemanticNormal, Accessor: normAccessorIdx}
			attrCursor++
		}

		if bp.tan != nil {
			tanAcc := &src.Accessors[bp.tan.Accessor]
			tanCount := tanAcc.Count
			tanDst := buf0[tanOffset : tanOffset+tanCount*vec4Size]
			var tlane [4]float32
			for v := 0; v < tanCount; v++ {
				if err := src.ReadFloat(tanAcc, v, tlane[:]); err != nil {
					return nil, err
				}
				t := bp.normal.Mul3x1(mgl32.Vec3{tlane[0], tlane[1], tlane[2]})
				putFloat32(tanDst[v*vec4Size:], t[0])
				putFloat32(tanDst[v*vec4Size+4:], t[1])
				putFloat32(tanDst[v*vec4Size+8:], t[2])
				putFloat32(tanDst[v*vec4Size+12:], tlane[3]) // handedness preserved unchanged
			}
			views[viewCursor] = asset.BufferView{Buffer: 0, ByteOffset: tanOffset, ByteLength: tanCount * vec4Size, Usage: asset.UsageVertex}
			tanAccessorIdx := asset.AccessorIndex(accCursor)
			accessors[accCursor] = asset.Accessor{View: asset.BufferViewIndex(viewCursor), ComponentType: asset.ComponentF32, ElementType: asset.ElementVec4, Count: tanCount}
			viewCursor++
			accCursor++
			tanOffset += tanCount * vec4Size
			attributes[attrCursor] = asset.Attribute{Semantic: asset.SemanticTangent, Accessor: tanAccessorIdx}
			attrCursor++
		}

		for ai := range bp.prim.Attributes {
			attr := &bp.prim.Attributes[ai]
			if attr.Semantic == asset.SemanticPosition || attr.Semantic == asset.SemanticNormal || attr.Semantic == asset.SemanticTangent {
				continue
			}
			attributes[attrCursor] = asset.Attribute{
				Semantic:      attr.Semantic,
				SemanticIndex: attr.SemanticIndex,
				CustomName:    attr.CustomName,
				Accessor:      asset.AccessorIndex(numBaseAccessors) + attr.Accessor,
			}
			attrCursor++
		}

		prims[i] = asset.Primitive{
			Topology:   bp.prim.Topology,
			Indices:    &idxAccessor,
			Material:   bp.prim.Material,
			Attributes: attributes[firstAttr:attrCursor],
		}

		meshName := names.NameOr(srcMesh.Name)
		meshes[i] = asset.Mesh{Name: meshName, Primitives: prims[i : i+1]}

		nodeName := names.NameOr(srcNode.Name)
		nodes[i] = asset.Node{Name: nodeName, Transform: asset.IdentityTransform(), Mesh: meshIndexPtr(asset.MeshIndex(i))}

		roots[i] = asset.NodeIndex(i)
	}

	images := arena.Alloc[asset.Image](a, len(src.Images))
	for i := range src.Images {
		img := src.Images[i]
		if img.View != nil {
			v := asset.BufferViewIndex(numBaseViews) + *img.View
			img.View = &v
		}
		images[i] = img
	}

	textures := arena.Alloc[asset.Texture](a, len(src.Textures))
	copy(textures, src.Textures)

	materials := arena.Alloc[asset.Material](a, len(src.Materials))
	for i := range src.Materials {
		materials[i] = cloneMaterial(a, &src.Materials[i])
	}

	scenes := arena.Alloc[asset.Scene](a, 1)
	sceneName := ""
	if len(src.Scenes) > 0 {
		sceneName = src.Scenes[src.Scene].Name
	}
	scenes[0] = asset.Scene{Name: sceneName, Roots: roots}

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
		Scene:       0,
	}, nil
}

func countBaked(bp *bakedPrim) int {
	n := 1
	if bp.norm != nil {
		n++
	}
	if bp.tan != nil {
		n++
	}
	return n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func meshIndexPtr(i asset.MeshIndex) *asset.MeshIndex { return &i }

func componentMin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min32(a[0], b[0]), min32(a[1], b[1]), min32(a[2], b[2])}
}

func componentMax(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max32(a[0], b[0]), max32(a[1], b[1]), max32(a[2], b[2])}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
