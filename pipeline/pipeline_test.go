package pipeline

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/mogaika/gltfpipe/asset"
	"github.com/mogaika/gltfpipe/config"
	"github.com/mogaika/gltfpipe/xform"
)

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func vec3Bytes(x, y, z float32) []byte {
	out := make([]byte, 12)
	putFloat32(out[0:], x)
	putFloat32(out[4:], y)
	putFloat32(out[8:], z)
	return out
}

func triangleAsset() *asset.Asset {
	var posData []byte
	posData = append(posData, vec3Bytes(0, 0, 0)...)
	posData = append(posData, vec3Bytes(1, 0, 0)...)
	posData = append(posData, vec3Bytes(0, 1, 0)...)

	idxData := []byte{0, 0, 1, 0, 2, 0}
	buf := append(append([]byte{}, posData...), idxData...)

	mesh := asset.MeshIndex(0)
	indices := asset.AccessorIndex(1)
	return &asset.Asset{
		Generator: "unflattened",
		Buffers:   []asset.Buffer{{Data: buf}},
		BufferViews: []asset.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: len(posData), Usage: asset.UsageVertex},
			{Buffer: 0, ByteOffset: len(posData), ByteLength: len(idxData), Usage: asset.UsageIndex},
		},
		Accessors: []asset.Accessor{
			{View: 0, ComponentType: asset.ComponentF32, ElementType: asset.ElementVec3, Count: 3},
			{View: 1, ComponentType: asset.ComponentU16, ElementType: asset.ElementScalar, Count: 3},
		},
		Meshes: []asset.Mesh{{
			Name: "tri",
			Primitives: []asset.Primitive{{
				Topology:   asset.Triangles,
				Indices:    &indices,
				Attributes: []asset.Attribute{{Semantic: asset.SemanticPosition, Accessor: 0}},
			}},
		}},
		Nodes: []asset.Node{{
			Name:      "n",
			Transform: asset.IdentityTransform(),
			Mesh:      &mesh,
		}},
		Scenes: []asset.Scene{{Name: "s", Roots: []asset.NodeIndex{0}}},
		Scene:  0,
	}
}

func newTestPipeline() *Pipeline {
	cfg := config.Default()
	cfg.Generator = "gltfio"
	return New(cfg)
}

func TestParameterizeRejectsNonFlattenedAsset(t *testing.T) {
	p := newTestPipeline()
	p.asset = triangleAsset()

	err := p.Parameterize(xform.NewIdentityAtlasEngine())
	if err != asset.ErrNotFlattened {
		t.Fatalf("Parameterize on a non-flattened asset returned %v, want asset.ErrNotFlattened", err)
	}
	if p.asset == nil {
		t.Fatal("Parameterize on a non-flattened asset discarded the current asset")
	}
}

func TestSaveRejectsNonFlattenedAsset(t *testing.T) {
	p := newTestPipeline()
	p.asset = triangleAsset()

	err := p.Save(t.TempDir() + "/out.gltf")
	if err != asset.ErrNotFlattened {
		t.Fatalf("Save on a non-flattened asset returned %v, want asset.ErrNotFlattened", err)
	}
}

func TestParameterizeSucceedsAfterFlatten(t *testing.T) {
	p := newTestPipeline()
	p.asset = triangleAsset()

	if err := p.Flatten(xform.FilterTriangles); err != nil {
		t.Fatal(err)
	}
	if !p.IsFlattened() {
		t.Fatal("pipeline asset is not flattened after Flatten")
	}
	if err := p.Parameterize(xform.NewIdentityAtlasEngine()); err != nil {
		t.Fatalf("Parameterize after Flatten failed: %v", err)
	}
}
