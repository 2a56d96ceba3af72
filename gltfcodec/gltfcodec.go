// Package gltfcodec bridges the asset graph to disk through
// github.com/qmuntal/gltf. Exporters that build a document attribute by
// attribute with modeler.Write* helpers do so because they start from
// game-specific vertex structs; this codec already holds raw
// buffer/view/accessor data shaped exactly like glTF's own, so it maps
// struct to struct directly.
package gltfcodec

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/gltfpipe/asset"
)

// Load reads a .gltf or .glb file from path into an Asset.
func Load(path string) (*asset.Asset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, asset.NewIoError("open", path, err)
	}
	return fromDocument(doc)
}

// Save writes a into a .gltf or .glb file at path, depending on path's
// extension (handled by gltf.Save), stamping generatorTag as the
// written asset's generator.
func Save(a *asset.Asset, path, generatorTag string) error {
	doc := toDocument(a, generatorTag)
	if err := gltf.Save(doc, path); err != nil {
		return asset.NewIoError("save", path, err)
	}
	return nil
}

func fromDocument(doc *gltf.Document) (*asset.Asset, error) {
	out := &asset.Asset{Generator: doc.Asset.Generator}

	out.Buffers = make([]asset.Buffer, len(doc.Buffers))
	for i, b := range doc.Buffers {
		out.Buffers[i] = asset.Buffer{Data: b.Data}
	}

	out.BufferViews = make([]asset.BufferView, len(doc.BufferViews))
	for i, v := range doc.BufferViews {
		usage := asset.UsageNone
		switch v.Target {
		case gltf.TargetArrayBuffer:
			usage = asset.UsageVertex
		case gltf.TargetElementArrayBuffer:
			usage = asset.UsageIndex
		}
		out.BufferViews[i] = asset.BufferView{
			Buffer:     asset.BufferIndex(v.Buffer),
			ByteOffset: int(v.ByteOffset),
			ByteLength: int(v.ByteLength),
			ByteStride: int(v.ByteStride),
			Usage:      usage,
		}
	}

	out.Accessors = make([]asset.Accessor, len(doc.Accessors))
	for i, acc := range doc.Accessors {
		ct, err := fromComponentType(acc.ComponentType)
		if err != nil {
			return nil, errors.Wrapf(err, "accessor %d", i)
		}
		et, err := fromAccessorType(acc.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "accessor %d", i)
		}
		a := asset.Accessor{
			ComponentType: ct,
			Normalized:    acc.Normalized,
			ElementType:   et,
			Count:         int(acc.Count),
			ByteOffset:    int(acc.ByteOffset),
			Sparse:        acc.Sparse != nil,
		}
		if acc.BufferView != nil {
			a.View = asset.BufferViewIndex(*acc.BufferView)
			if int(*acc.BufferView) < len(doc.BufferViews) {
				a.Stride = int(doc.BufferViews[*acc.BufferView].ByteStride)
			}
		}
		if len(acc.Min) > 0 {
			a.HasMin = true
			for i, v := range acc.Min {
				a.Min[i] = float64(v)
			}
		}
		if len(acc.Max) > 0 {
			a.HasMax = true
			for i, v := range acc.Max {
				a.Max[i] = float64(v)
			}
		}
		out.Accessors[i] = a
	}

	out.Images = make([]asset.Image, len(doc.Images))
	for i, img := range doc.Images {
		out.Images[i] = asset.Image{Name: img.Name, URI: img.URI}
		if img.BufferView != nil {
			v := asset.BufferViewIndex(*img.BufferView)
			out.Images[i].View = &v
		}
	}

	out.Textures = make([]asset.Texture, len(doc.Textures))
	for i, tex := range doc.Textures {
		t := asset.Texture{Name: tex.Name}
		if tex.Source != nil {
			t.Image = asset.ImageIndex(*tex.Source)
		}
		if tex.Sampler != nil && int(*tex.Sampler) < len(doc.Samplers) {
			s := doc.Samplers[*tex.Sampler]
			t.Sampler = asset.Sampler{
				WrapS:      int(s.WrapS),
				WrapT:      int(s.WrapT),
				MagNearest: s.MagFilter == gltf.MagNearest,
				MinNearest: s.MinFilter == gltf.MinNearest,
			}
		}
		out.Textures[i] = t
	}

	out.Materials = make([]asset.Material, len(doc.Materials))
	for i, mat := range doc.Materials {
		out.Materials[i] = fromMaterial(mat)
	}

	out.Meshes = make([]asset.Mesh, len(doc.Meshes))
	for i, mesh := range doc.Meshes {
		out.Meshes[i] = fromMesh(mesh)
	}

	out.Nodes = make([]asset.Node, len(doc.Nodes))
	for i, node := range doc.Nodes {
		out.Nodes[i] = fromNode(node)
	}

	out.Scenes = make([]asset.Scene, len(doc.Scenes))
	for i, scene := range doc.Scenes {
		roots := make([]asset.NodeIndex, len(scene.Nodes))
		for j, n := range scene.Nodes {
			roots[j] = asset.NodeIndex(n)
		}
		out.Scenes[i] = asset.Scene{Name: scene.Name, Roots: roots}
	}
	if doc.Scene != nil {
		out.Scene = asset.SceneIndex(*doc.Scene)
	}

	return out, nil
}

func fromMesh(mesh *gltf.Mesh) asset.Mesh {
	prims := make([]asset.Primitive, len(mesh.Primitives))
	for i, p := range mesh.Primitives {
		prim := asset.Primitive{Topology: fromPrimitiveMode(p.Mode)}
		if p.Indices != nil {
			idx := asset.AccessorIndex(*p.Indices)
			prim.Indices = &idx
		}
		if p.Material != nil {
			mi := asset.MaterialIndex(*p.Material)
			prim.Material = &mi
		}
		prim.Attributes = attributesFromMap(p.Attributes)
		prims[i] = prim
	}
	return asset.Mesh{Name: mesh.Name, Primitives: prims}
}

func fromNode(node *gltf.Node) asset.Node {
	out := asset.Node{Name: node.Name}
	if node.Mesh != nil {
		mi := asset.MeshIndex(*node.Mesh)
		out.Mesh = &mi
	}
	out.Children = make([]asset.NodeIndex, len(node.Children))
	for i, c := range node.Children {
		out.Children[i] = asset.NodeIndex(c)
	}
	if node.Matrix != [16]float32{} {
		out.Transform.HasMatrix = true
		out.Transform.Matrix = node.Matrix
	} else {
		out.Transform.Translation = node.Translation
		out.Transform.Rotation = mgl32.Quat{W: node.Rotation[3], V: mgl32.Vec3{node.Rotation[0], node.Rotation[1], node.Rotation[2]}}
		scale := node.Scale
		if scale == ([3]float32{}) {
			scale = [3]float32{1, 1, 1}
		}
		out.Transform.Scale = scale
	}
	return out
}

func toDocument(a *asset.Asset, generatorTag string) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = generatorTag

	doc.Buffers = make([]*gltf.Buffer, len(a.Buffers))
	for i, b := range a.Buffers {
		doc.Buffers[i] = &gltf.Buffer{ByteLength: uint32(len(b.Data)), Data: b.Data}
	}

	doc.BufferViews = make([]*gltf.BufferView, len(a.BufferViews))
	for i, v := range a.BufferViews {
		target := gltf.Target(0)
		switch v.Usage {
		case asset.UsageVertex:
			target = gltf.TargetArrayBuffer
		case asset.UsageIndex:
			target = gltf.TargetElementArrayBuffer
		}
		doc.BufferViews[i] = &gltf.BufferView{
			Buffer:     uint32(v.Buffer),
			ByteOffset: uint32(v.ByteOffset),
			ByteLength: uint32(v.ByteLength),
			ByteStride: uint32(v.ByteStride),
			Target:     target,
		}
	}

	doc.Accessors = make([]*gltf.Accessor, len(a.Accessors))
	for i, acc := range a.Accessors {
		view := uint32(acc.View)
		out := &gltf.Accessor{
			BufferView:    &view,
			ByteOffset:    uint32(acc.ByteOffset),
			ComponentType: toComponentType(acc.ComponentType),
			Normalized:    acc.Normalized,
			Count:         uint32(acc.Count),
			Type:          toAccessorType(acc.ElementType),
		}
		if acc.HasMin {
			n := acc.ElementType.NumComponents()
			out.Min = make([]float32, n)
			for i, v := range acc.Min[:n] {
				out.Min[i] = float32(v)
			}
		}
		if acc.HasMax {
			n := acc.ElementType.NumComponents()
			out.Max = make([]float32, n)
			for i, v := range acc.Max[:n] {
				out.Max[i] = float32(v)
			}
		}
		doc.Accessors[i] = out
	}

	doc.Images = make([]*gltf.Image, len(a.Images))
	for i, img := range a.Images {
		out := &gltf.Image{Name: img.Name, URI: img.URI}
		if img.View != nil {
			v := uint32(*img.View)
			out.BufferView = &v
		}
		doc.Images[i] = out
	}

	doc.Samplers = make([]*gltf.Sampler, 0, len(a.Textures))
	doc.Textures = make([]*gltf.Texture, len(a.Textures))
	for i, tex := range a.Textures {
		samplerIdx := uint32(len(doc.Samplers))
		doc.Samplers = append(doc.Samplers, toSampler(tex.Sampler))
		src := uint32(tex.Image)
		doc.Textures[i] = &gltf.Texture{Name: tex.Name, Source: &src, Sampler: &samplerIdx}
	}

	doc.Materials = make([]*gltf.Material, len(a.Materials))
	for i, mat := range a.Materials {
		doc.Materials[i] = toMaterial(&a.Materials[i])
		_ = mat
	}

	doc.Meshes = make([]*gltf.Mesh, len(a.Meshes))
	for i, mesh := range a.Meshes {
		doc.Meshes[i] = toMesh(&mesh)
	}

	doc.Nodes = make([]*gltf.Node, len(a.Nodes))
	for i, node := range a.Nodes {
		doc.Nodes[i] = toNode(&node)
	}

	doc.Scenes = make([]*gltf.Scene, len(a.Scenes))
	for i, scene := range a.Scenes {
		nodes := make([]uint32, len(scene.Roots))
		for j, r := range scene.Roots {
			nodes[j] = uint32(r)
		}
		doc.Scenes[i] = &gltf.Scene{Name: scene.Name, Nodes: nodes}
	}
	sceneIdx := uint32(a.Scene)
	doc.Scene = &sceneIdx

	return doc
}

func toMesh(mesh *asset.Mesh) *gltf.Mesh {
	prims := make([]*gltf.Primitive, len(mesh.Primitives))
	for i := range mesh.Primitives {
		p := &mesh.Primitives[i]
		out := &gltf.Primitive{
			Mode:       toPrimitiveMode(p.Topology),
			Attributes: attributesToMap(p.Attributes),
		}
		if p.Indices != nil {
			idx := uint32(*p.Indices)
			out.Indices = &idx
		}
		if p.Material != nil {
			mi := uint32(*p.Material)
			out.Material = &mi
		}
		prims[i] = out
	}
	return &gltf.Mesh{Name: mesh.Name, Primitives: prims}
}

func toNode(node *asset.Node) *gltf.Node {
	out := &gltf.Node{Name: node.Name}
	if node.Mesh != nil {
		mi := uint32(*node.Mesh)
		out.Mesh = &mi
	}
	out.Children = make([]uint32, len(node.Children))
	for i, c := range node.Children {
		out.Children[i] = uint32(c)
	}
	if node.Transform.HasMatrix {
		out.Matrix = node.Transform.Matrix
	} else {
		out.Translation = node.Transform.Translation
		q := node.Transform.Rotation
		out.Rotation = [4]float32{q.V[0], q.V[1], q.V[2], q.W}
		out.Scale = node.Transform.Scale
	}
	return out
}

func attributesFromMap(m map[string]uint32) []asset.Attribute {
	attrs := make([]asset.Attribute, 0, len(m))
	for name, accIdx := range m {
		sem, idx, custom := parseAttributeName(name)
		attrs = append(attrs, asset.Attribute{
			Semantic: sem, SemanticIndex: idx, CustomName: custom,
			Accessor: asset.AccessorIndex(accIdx),
		})
	}
	return attrs
}

func attributesToMap(attrs []asset.Attribute) map[string]uint32 {
	m := make(map[string]uint32, len(attrs))
	for _, a := range attrs {
		m[attributeName(a)] = uint32(a.Accessor)
	}
	return m
}
