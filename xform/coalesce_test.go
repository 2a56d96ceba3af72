package xform

import (
	"testing"

	"github.com/mogaika/gltfpipe/arena"
	"github.com/mogaika/gltfpipe/asset"
)

func vec3Bytes(x, y, z float32) []byte {
	out := make([]byte, 12)
	putFloat32(out[0:], x)
	putFloat32(out[4:], y)
	putFloat32(out[8:], z)
	return out
}

func twoBufferAsset() *asset.Asset {
	mesh := asset.MeshIndex(0)
	return &asset.Asset{
		Generator: "test",
		Buffers: []asset.Buffer{
			{Data: vec3Bytes(1, 2, 3)},
			{Data: vec3Bytes(4, 5, 6)},
		},
		BufferViews: []asset.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 12, Usage: asset.UsageVertex},
			{Buffer: 1, ByteOffset: 0, ByteLength: 12, Usage: asset.UsageVertex},
		},
		Accessors: []asset.Accessor{
			{View: 0, ComponentType: asset.ComponentF32, ElementType: asset.ElementVec3, Count: 1},
			{View: 1, ComponentType: asset.ComponentF32, ElementType: asset.ElementVec3, Count: 1},
		},
		Meshes: []asset.Mesh{{
			Name: "m",
			Primitives: []asset.Primitive{{
				Topology:   asset.Triangles,
				Attributes: []asset.Attribute{{Semantic: asset.SemanticPosition, Accessor: 0}},
			}},
		}},
		Nodes:  []asset.Node{{Name: "n", Transform: asset.IdentityTransform(), Mesh: &mesh}},
		Scenes: []asset.Scene{{Name: "s", Roots: []asset.NodeIndex{0}}},
		Scene:  0,
	}
}

func TestCoalesceMergesIntoOneBuffer(t *testing.T) {
	src := twoBufferAsset()
	out, err := Coalesce(arena.New(), src)
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Buffers) != 1 {
		t.Fatalf("len(out.Buffers) = %d, want 1", len(out.Buffers))
	}
	if out.Buffers[0].Size() != 24 {
		t.Fatalf("merged buffer size = %d, want 24", out.Buffers[0].Size())
	}
	if out.BufferViews[1].ByteOffset != 12 {
		t.Errorf("second view offset = %d, want 12 (shifted past the first buffer)", out.BufferViews[1].ByteOffset)
	}
	for _, v := range out.BufferViews {
		if v.Buffer != 0 {
			t.Errorf("view.Buffer = %d, want 0 for every view after coalescing", v.Buffer)
		}
	}

	var lane [3]float32
	if err := out.ReadFloat(&out.Accessors[1], 0, lane[:]); err != nil {
		t.Fatal(err)
	}
	if lane != [3]float32{4, 5, 6} {
		t.Errorf("second accessor reads %v after coalescing, want [4 5 6]", lane)
	}
}

func TestCoalesceRejectsOutOfRangeReference(t *testing.T) {
	src := twoBufferAsset()
	src.Meshes[0].Primitives[0].Attributes[0].Accessor = 99
	if _, err := Coalesce(arena.New(), src); err == nil {
		t.Error("Coalesce with an out-of-range accessor reference did not error")
	}
}
