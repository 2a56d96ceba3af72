package xform

import (
	"github.com/mogaika/gltfpipe/arena"
	"github.com/mogaika/gltfpipe/asset"
)

// Coalesce produces a new asset whose Buffers array has length 1, holding
// the concatenation of src's buffers in source order, with every
// cross-reference rewired to the new arrays. It is grounded on
// Pipeline::flattenBuffers in the original gltfio AssetPipeline.cpp.
func Coalesce(a *arena.Arena, src *asset.Asset) (*asset.Asset, error) {
	if err := checkSourceBounds(src); err != nil {
		return nil, err
	}

	total := 0
	baseOffsets := make([]int, len(src.Buffers))
	for i := range src.Buffers {
		baseOffsets[i] = total
		total += src.Buffers[i].Size()
	}

	data := arena.AllocBytes(a, total)
	for i := range src.Buffers {
		copy(data[baseOffsets[i]:], src.Buffers[i].Data)
	}

	buffers := arena.Alloc[asset.Buffer](a, 1)
	buffers[0] = asset.Buffer{Data: data}

	views := arena.Alloc[asset.BufferView](a, len(src.BufferViews))
	for i := range src.BufferViews {
		v := src.BufferViews[i]
		v.Buffer = 0
		v.ByteOffset += baseOffsets[src.BufferViews[i].Buffer]
		views[i] = v
	}

	accessors := arena.Alloc[asset.Accessor](a, len(src.Accessors))
	copy(accessors, src.Accessors)

	images := arena.Alloc[asset.Image](a, len(src.Images))
	copy(images, src.Images)

	textures := arena.Alloc[asset.Texture](a, len(src.Textures))
	copy(textures, src.Textures)

	materials := arena.Alloc[asset.Material](a, len(src.Materials))
	for i := range src.Materials {
		materials[i] = cloneMaterial(a, &src.Materials[i])
	}

	meshes := arena.Alloc[asset.Mesh](a, len(src.Meshes))
	for i := range src.Meshes {
		meshes[i] = cloneMesh(a, &src.Meshes[i])
	}

	nodes := arena.Alloc[asset.Node](a, len(src.Nodes))
	for i := range src.Nodes {
		nodes[i] = cloneNode(a, &src.Nodes[i])
	}

	scenes := arena.Alloc[asset.Scene](a, len(src.Scenes))
	for i := range src.Scenes {
		scenes[i] = cloneScene(a, &src.Scenes[i])
	}

	out := &asset.Asset{
		Generator:   src.Generator,
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
	}
	return out, nil
}

func cloneMaterial(a *arena.Arena, m *asset.Material) asset.Material {
	out := *m
	for _, slot := range out.TextureSlots() {
		if *slot != nil {
			ref := **slot
			cloned := arena.Alloc[asset.TextureRef](a, 1)
			cloned[0] = ref
			*slot = &cloned[0]
		}
	}
	return out
}

func cloneMesh(a *arena.Arena, m *asset.Mesh) asset.Mesh {
	prims := arena.Alloc[asset.Primitive](a, len(m.Primitives))
	for i := range m.Primitives {
		prims[i] = clonePrimitive(a, &m.Primitives[i])
	}
	return asset.Mesh{Name: m.Name, Primitives: prims}
}

func clonePrimitive(a *arena.Arena, p *asset.Primitive) asset.Primitive {
	out := *p
	if p.Material != nil {
		mat := arena.Alloc[asset.MaterialIndex](a, 1)
		mat[0] = *p.Material
		out.Material = &mat[0]
	}
	if p.Indices != nil {
		idx := arena.Alloc[asset.AccessorIndex](a, 1)
		idx[0] = *p.Indices
		out.Indices = &idx[0]
	}
	out.Attributes = arena.Alloc[asset.Attribute](a, len(p.Attributes))
	copy(out.Attributes, p.Attributes)
	return out
}

func cloneNode(a *arena.Arena, n *asset.Node) asset.Node {
	out := *n
	if n.Mesh != nil {
		mesh := arena.Alloc[asset.MeshIndex](a, 1)
		mesh[0] = *n.Mesh
		out.Mesh = &mesh[0]
	}
	out.Children = arena.Alloc[asset.NodeIndex](a, len(n.Children))
	copy(out.Children, n.Children)
	return out
}

func cloneScene(a *arena.Arena, s *asset.Scene) asset.Scene {
	roots := arena.Alloc[asset.NodeIndex](a, len(s.Roots))
	copy(roots, s.Roots)
	return asset.Scene{Name: s.Name, Roots: roots}
}

// checkSourceBounds validates that every cross-reference in src resolves
// inside src's own arrays, per the coalescer's failure-mode contract.
func checkSourceBounds(src *asset.Asset) error {
	for i, v := range src.BufferViews {
		if int(v.Buffer) < 0 || int(v.Buffer) >= len(src.Buffers) {
			return asset.NewMalformedInput("buffer view %d references out-of-range buffer %d", i, v.Buffer)
		}
	}
	for i, acc := range src.Accessors {
		if int(acc.View) < 0 || int(acc.View) >= len(src.BufferViews) {
			return asset.NewMalformedInput("accessor %d references out-of-range view %d", i, acc.View)
		}
	}
	for i, img := range src.Images {
		if img.View != nil && (int(*img.View) < 0 || int(*img.View) >= len(src.BufferViews)) {
			return asset.NewMalformedInput("image %d references out-of-range view %d", i, *img.View)
		}
	}
	for i, tex := range src.Textures {
		if int(tex.Image) < 0 || int(tex.Image) >= len(src.Images) {
			return asset.NewMalformedInput("texture %d references out-of-range image %d", i, tex.Image)
		}
	}
	for i, mat := range src.Materials {
		for _, slot := range mat.TextureSlots() {
			if *slot != nil && (int((*slot).Texture) < 0 || int((*slot).Texture) >= len(src.Textures)) {
				return asset.NewMalformedInput("material %d references out-of-range texture %d", i, (*slot).Texture)
			}
		}
	}
	for mi, mesh := range src.Meshes {
		for pi, prim := range mesh.Primitives {
			if prim.Indices != nil && (int(*prim.Indices) < 0 || int(*prim.Indices) >= len(src.Accessors)) {
				return asset.NewMalformedInput("mesh %d primitive %d references out-of-range indices accessor %d", mi, pi, *prim.Indices)
			}
			if prim.Material != nil && (int(*prim.Material) < 0 || int(*prim.Material) >= len(src.Materials)) {
				return asset.NewMalformedInput("mesh %d primitive %d references out-of-range material %d", mi, pi, *prim.Material)
			}
			for ai, attr := range prim.Attributes {
				if int(attr.Accessor) < 0 || int(attr.Accessor) >= len(src.Accessors) {
					return asset.NewMalformedInput("mesh %d primitive %d attribute %d references out-of-range accessor %d", mi, pi, ai, attr.Accessor)
				}
			}
		}
	}
	for i, node := range src.Nodes {
		if node.Mesh != nil && (int(*node.Mesh) < 0 || int(*node.Mesh) >= len(src.Meshes)) {
			return asset.NewMalformedInput("node %d references out-of-range mesh %d", i, *node.Mesh)
		}
		for _, child := range node.Children {
			if int(child) < 0 || int(child) >= len(src.Nodes) {
				return asset.NewMalformedInput("node %d references out-of-range child %d", i, child)
			}
		}
	}
	for i, scene := range src.Scenes {
		for _, root := range scene.Roots {
			if int(root) < 0 || int(root) >= len(src.Nodes) {
				return asset.NewMalformedInput("scene %d references out-of-range node %d", i, root)
			}
		}
	}
	if int(src.Scene) < 0 || int(src.Scene) >= len(src.Scenes) {
		return asset.NewMalformedInput("asset root scene %d out of range", src.Scene)
	}
	return nil
}
