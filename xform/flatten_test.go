package xform

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/gltfpipe/arena"
	"github.com/mogaika/gltfpipe/asset"
	"github.com/mogaika/gltfpipe/utils/namegen"
)

func triangleAsset(translation [3]float32) *asset.Asset {
	var posData []byte
	posData = append(posData, vec3Bytes(0, 0, 0)...)
	posData = append(posData, vec3Bytes(1, 0, 0)...)
	posData = append(posData, vec3Bytes(0, 1, 0)...)

	idxBytes := make([]byte, 6)
	for i, v := range []uint16{0, 1, 2} {
		idxBytes[i*2] = byte(v)
		idxBytes[i*2+1] = byte(v >> 8)
	}

	buf := append(append([]byte{}, posData...), idxBytes...)

	mesh := asset.MeshIndex(0)
	indices := asset.AccessorIndex(1)
	return &asset.Asset{
		Generator: "src",
		Buffers:   []asset.Buffer{{Data: buf}},
		BufferViews: []asset.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: len(posData), Usage: asset.UsageVertex},
			{Buffer: 0, ByteOffset: len(posData), ByteLength: len(idxBytes), Usage: asset.UsageIndex},
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
			Name: "n",
			Transform: asset.Transform{
				Rotation:    mgl32.QuatIdent(),
				Scale:       [3]float32{1, 1, 1},
				Translation: translation,
			},
			Mesh: &mesh,
		}},
		Scenes: []asset.Scene{{Name: "s", Roots: []asset.NodeIndex{0}}},
		Scene:  0,
	}
}

func TestFlattenBakesWorldTranslation(t *testing.T) {
	src := triangleAsset([3]float32{2, 0, 0})
	names := namegen.New(0)
	out, err := Flatten(arena.New(), src, 0, names, "gltfio")
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Meshes) != 1 || len(out.Nodes) != 1 {
		t.Fatalf("flatten produced %d meshes / %d nodes, want 1/1", len(out.Meshes), len(out.Nodes))
	}
	if len(out.Buffers) != 2 {
		t.Fatalf("len(out.Buffers) = %d, want 2 (baked + verbatim source copy)", len(out.Buffers))
	}

	posAttr := out.Meshes[0].Primitives[0].AttributeBySemantic(asset.SemanticPosition, 0)
	if posAttr == nil {
		t.Fatal("flattened primitive has no POSITION attribute")
	}
	var lane [3]float32
	if err := out.ReadFloat(&out.Accessors[posAttr.Accessor], 0, lane[:]); err != nil {
		t.Fatal(err)
	}
	if lane != [3]float32{2, 0, 0} {
		t.Errorf("baked position[0] = %v, want [2 0 0] (translation baked in)", lane)
	}

	if !out.Nodes[0].Transform.HasMatrix && out.Nodes[0].Transform.Translation != [3]float32{} {
		t.Errorf("flattened node transform is not identity: %+v", out.Nodes[0].Transform)
	}
}

func TestFlattenResultCoalescesToAWitness(t *testing.T) {
	src := triangleAsset([3]float32{0, 0, 0})
	names := namegen.New(0)
	flattened, err := Flatten(arena.New(), src, 0, names, "gltfio")
	if err != nil {
		t.Fatal(err)
	}
	coalesced, err := Coalesce(arena.New(), flattened)
	if err != nil {
		t.Fatal(err)
	}
	if !coalesced.IsFlattened("gltfio") {
		t.Error("coalescing a flattened asset should still satisfy IsFlattened")
	}
}

func TestFilterPrimitiveDropsNonIndexed(t *testing.T) {
	src := triangleAsset([3]float32{0, 0, 0})
	src.Meshes[0].Primitives[0].Indices = nil
	names := namegen.New(0)
	out, err := Flatten(arena.New(), src, 0, names, "gltfio")
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Meshes) != 0 {
		t.Errorf("flatten kept %d meshes for a non-indexed primitive, want 0", len(out.Meshes))
	}
}
