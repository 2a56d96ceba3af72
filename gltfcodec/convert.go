package gltfcodec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/mogaika/gltfpipe/asset"
)

func fromComponentType(ct gltf.ComponentType) (asset.ComponentType, error) {
	switch ct {
	case gltf.ComponentByte:
		return asset.ComponentI8, nil
	case gltf.ComponentUbyte:
		return asset.ComponentU8, nil
	case gltf.ComponentShort:
		return asset.ComponentI16, nil
	case gltf.ComponentUshort:
		return asset.ComponentU16, nil
	case gltf.ComponentUint:
		return asset.ComponentU32, nil
	case gltf.ComponentFloat:
		return asset.ComponentF32, nil
	default:
		return 0, fmt.Errorf("unsupported component type %v", ct)
	}
}

func toComponentType(ct asset.ComponentType) gltf.ComponentType {
	switch ct {
	case asset.ComponentI8:
		return gltf.ComponentByte
	case asset.ComponentU8:
		return gltf.ComponentUbyte
	case asset.ComponentI16:
		return gltf.ComponentShort
	case asset.ComponentU16:
		return gltf.ComponentUshort
	case asset.ComponentU32:
		return gltf.ComponentUint
	default:
		return gltf.ComponentFloat
	}
}

func fromAccessorType(t gltf.AccessorType) (asset.ElementType, error) {
	switch t {
	case gltf.AccessorScalar:
		return asset.ElementScalar, nil
	case gltf.AccessorVec2:
		return asset.ElementVec2, nil
	case gltf.AccessorVec3:
		return asset.ElementVec3, nil
	case gltf.AccessorVec4:
		return asset.ElementVec4, nil
	case gltf.AccessorMat2:
		return asset.ElementMat2, nil
	case gltf.AccessorMat3:
		return asset.ElementMat3, nil
	case gltf.AccessorMat4:
		return asset.ElementMat4, nil
	default:
		return 0, fmt.Errorf("unsupported accessor type %v", t)
	}
}

func toAccessorType(e asset.ElementType) gltf.AccessorType {
	switch e {
	case asset.ElementScalar:
		return gltf.AccessorScalar
	case asset.ElementVec2:
		return gltf.AccessorVec2
	case asset.ElementVec3:
		return gltf.AccessorVec3
	case asset.ElementVec4:
		return gltf.AccessorVec4
	case asset.ElementMat2:
		return gltf.AccessorMat2
	case asset.ElementMat3:
		return gltf.AccessorMat3
	default:
		return gltf.AccessorMat4
	}
}

func fromPrimitiveMode(m gltf.PrimitiveMode) asset.Topology {
	switch m {
	case gltf.PrimitiveTriangleStrip:
		return asset.TriangleStrip
	case gltf.PrimitiveTriangleFan:
		return asset.TriangleFan
	case gltf.PrimitiveLines:
		return asset.Lines
	case gltf.PrimitiveLineStrip:
		return asset.LineStrip
	case gltf.PrimitiveLineLoop:
		return asset.LineLoop
	case gltf.PrimitivePoints:
		return asset.Points
	default:
		return asset.Triangles
	}
}

func toPrimitiveMode(t asset.Topology) gltf.PrimitiveMode {
	switch t {
	case asset.TriangleStrip:
		return gltf.PrimitiveTriangleStrip
	case asset.TriangleFan:
		return gltf.PrimitiveTriangleFan
	case asset.Lines:
		return gltf.PrimitiveLines
	case asset.LineStrip:
		return gltf.PrimitiveLineStrip
	case asset.LineLoop:
		return gltf.PrimitiveLineLoop
	case asset.Points:
		return gltf.PrimitivePoints
	default:
		return gltf.PrimitiveTriangles
	}
}

// parseAttributeName splits a glTF attribute key like "TEXCOORD_4" or
// "_MYCHANNEL" into a Semantic, its index, and (for custom channels) the
// raw key.
func parseAttributeName(name string) (asset.Semantic, int, string) {
	switch {
	case name == "POSITION":
		return asset.SemanticPosition, 0, ""
	case name == "NORMAL":
		return asset.SemanticNormal, 0, ""
	case name == "TANGENT":
		return asset.SemanticTangent, 0, ""
	case strings.HasPrefix(name, "TEXCOORD_"):
		idx, _ := strconv.Atoi(strings.TrimPrefix(name, "TEXCOORD_"))
		return asset.SemanticTexcoord, idx, ""
	case strings.HasPrefix(name, "COLOR_"):
		idx, _ := strconv.Atoi(strings.TrimPrefix(name, "COLOR_"))
		return asset.SemanticColor, idx, ""
	case strings.HasPrefix(name, "JOINTS_"):
		idx, _ := strconv.Atoi(strings.TrimPrefix(name, "JOINTS_"))
		return asset.SemanticJoints, idx, ""
	case strings.HasPrefix(name, "WEIGHTS_"):
		idx, _ := strconv.Atoi(strings.TrimPrefix(name, "WEIGHTS_"))
		return asset.SemanticWeights, idx, ""
	default:
		return asset.SemanticCustom, 0, name
	}
}

func attributeName(a asset.Attribute) string {
	if a.CustomName != "" {
		return a.CustomName
	}
	switch a.Semantic {
	case asset.SemanticPosition:
		return "POSITION"
	case asset.SemanticNormal:
		return "NORMAL"
	case asset.SemanticTangent:
		return "TANGENT"
	case asset.SemanticTexcoord:
		return fmt.Sprintf("TEXCOORD_%d", a.SemanticIndex)
	case asset.SemanticColor:
		return fmt.Sprintf("COLOR_%d", a.SemanticIndex)
	case asset.SemanticJoints:
		return fmt.Sprintf("JOINTS_%d", a.SemanticIndex)
	case asset.SemanticWeights:
		return fmt.Sprintf("WEIGHTS_%d", a.SemanticIndex)
	default:
		return "_CUSTOM"
	}
}

func fromMaterial(mat *gltf.Material) asset.Material {
	out := asset.Material{Name: mat.Name, DoubleSided: mat.DoubleSided, BaseColorFactor: [4]float32{1, 1, 1, 1}}
	if mat.PBRMetallicRoughness != nil {
		pbr := mat.PBRMetallicRoughness
		if pbr.BaseColorFactor != nil {
			out.BaseColorFactor = *pbr.BaseColorFactor
		}
		if pbr.BaseColorTexture != nil {
			out.BaseColor = textureRefFromInfo(pbr.BaseColorTexture.Index, pbr.BaseColorTexture.TexCoord)
		}
		if pbr.MetallicRoughnessTexture != nil {
			out.MetallicRoughness = textureRefFromInfo(pbr.MetallicRoughnessTexture.Index, pbr.MetallicRoughnessTexture.TexCoord)
		}
	}
	if mat.NormalTexture != nil && mat.NormalTexture.Index != nil {
		out.Normal = textureRefFromInfo(*mat.NormalTexture.Index, mat.NormalTexture.TexCoord)
	}
	if mat.OcclusionTexture != nil && mat.OcclusionTexture.Index != nil {
		out.Occlusion = textureRefFromInfo(*mat.OcclusionTexture.Index, mat.OcclusionTexture.TexCoord)
	}
	if mat.EmissiveTexture != nil {
		out.Emissive = textureRefFromInfo(mat.EmissiveTexture.Index, mat.EmissiveTexture.TexCoord)
	}
	return out
}

func textureRefFromInfo(index, texCoord uint32) *asset.TextureRef {
	return &asset.TextureRef{Texture: asset.TextureIndex(index), TexCoordIndex: int(texCoord)}
}

func toMaterial(mat *asset.Material) *gltf.Material {
	out := &gltf.Material{Name: mat.Name, DoubleSided: mat.DoubleSided}
	pbr := &gltf.PBRMetallicRoughness{BaseColorFactor: &mat.BaseColorFactor}
	if mat.BaseColor != nil {
		pbr.BaseColorTexture = &gltf.TextureInfo{Index: uint32(mat.BaseColor.Texture), TexCoord: uint32(mat.BaseColor.TexCoordIndex)}
	}
	if mat.MetallicRoughness != nil {
		pbr.MetallicRoughnessTexture = &gltf.TextureInfo{Index: uint32(mat.MetallicRoughness.Texture), TexCoord: uint32(mat.MetallicRoughness.TexCoordIndex)}
	}
	out.PBRMetallicRoughness = pbr
	if mat.Normal != nil {
		idx := uint32(mat.Normal.Texture)
		out.NormalTexture = &gltf.NormalTexture{Index: &idx, TexCoord: uint32(mat.Normal.TexCoordIndex)}
	}
	if mat.Occlusion != nil {
		idx := uint32(mat.Occlusion.Texture)
		out.OcclusionTexture = &gltf.OcclusionTexture{Index: &idx, TexCoord: uint32(mat.Occlusion.TexCoordIndex)}
	}
	if mat.Emissive != nil {
		out.EmissiveTexture = &gltf.TextureInfo{Index: uint32(mat.Emissive.Texture), TexCoord: uint32(mat.Emissive.TexCoordIndex)}
	}
	return out
}

func toSampler(s asset.Sampler) *gltf.Sampler {
	mag := gltf.MagLinear
	if s.MagNearest {
		mag = gltf.MagNearest
	}
	min := gltf.MinLinear
	if s.MinNearest {
		min = gltf.MinNearest
	}
	return &gltf.Sampler{
		MagFilter: mag,
		MinFilter: min,
		WrapS:     gltf.WrappingMode(s.WrapS),
		WrapT:     gltf.WrappingMode(s.WrapT),
	}
}
