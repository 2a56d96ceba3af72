package xform

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/gltfpipe/arena"
	"github.com/mogaika/gltfpipe/asset"
	"github.com/mogaika/gltfpipe/config"
	"github.com/mogaika/gltfpipe/utils/namegen"
)

func flattenedTriangle(t *testing.T) *asset.Asset {
	src := triangleAsset([3]float32{0, 0, 0})
	flattened, err := Flatten(arena.New(), src, 0, namegen.New(0), "gltfio")
	if err != nil {
		t.Fatal(err)
	}
	out, err := Coalesce(arena.New(), flattened)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestParameterizeBakesUVAttribute(t *testing.T) {
	src := flattenedTriangle(t)
	engine := NewIdentityAtlasEngine()
	opts := config.ChartOptions{Padding: 1}

	out, err := Parameterize(arena.New(), src, engine, opts, "TEXCOORD_4", 4, "gltfio")
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Meshes) != 1 {
		t.Fatalf("len(out.Meshes) = %d, want 1", len(out.Meshes))
	}
	prim := &out.Meshes[0].Primitives[0]
	uvAttr := prim.AttributeBySemantic(asset.SemanticTexcoord, 4)
	if uvAttr == nil {
		t.Fatal("parameterized primitive has no TEXCOORD_4 attribute")
	}
	acc := &out.Accessors[uvAttr.Accessor]
	if acc.ElementType != asset.ElementVec2 {
		t.Errorf("baked uv accessor element type = %v, want Vec2", acc.ElementType)
	}

	var uv [2]float32
	if err := out.ReadFloat(acc, 0, uv[:]); err != nil {
		t.Fatal(err)
	}
	for _, c := range uv {
		if c < 0 || c > 1 {
			t.Errorf("baked uv = %v, want coordinates in [0,1]", uv)
		}
	}

	posAttr := prim.AttributeBySemantic(asset.SemanticPosition, 0)
	if posAttr == nil {
		t.Fatal("parameterized primitive lost its POSITION attribute")
	}
	var pos mgl32.Vec3
	if err := out.ReadFloat(&out.Accessors[posAttr.Accessor], 0, pos[:]); err != nil {
		t.Fatal(err)
	}
}

func TestParameterizeRejectsNonFlattenedInput(t *testing.T) {
	src := triangleAsset([3]float32{0, 0, 0})
	coalesced, err := Coalesce(arena.New(), src)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Parameterize(arena.New(), coalesced, NewIdentityAtlasEngine(), config.ChartOptions{}, "TEXCOORD_4", 4, "gltfio")
	if err != asset.ErrNotFlattened {
		t.Fatalf("Parameterize on a non-flattened asset returned %v, want asset.ErrNotFlattened", err)
	}
}

func TestParameterizeRejectsMultiPrimitiveMesh(t *testing.T) {
	src := flattenedTriangle(t)
	src.Meshes[0].Primitives = append(src.Meshes[0].Primitives, src.Meshes[0].Primitives[0])

	_, err := Parameterize(arena.New(), src, NewIdentityAtlasEngine(), config.ChartOptions{}, "TEXCOORD_4", 4, "gltfio")
	if err == nil {
		t.Error("Parameterize on a multi-primitive mesh did not error")
	}
}
